package listing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/logger"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

type ListingInput struct {
	Title       string
	Description string
	Price       int64
	Category    string
	Metadata    entity.ListingMetadata
	PreviewURL  *string
}

func signal(l *entity.Listing, action string) invalidation.Signal {
	return invalidation.Signal{
		Entity:   "listing",
		EntityID: l.ID,
		Action:   action,
		Paths:    []string{"/api/listings", "/api/my/listings"},
		UserIDs:  []uuid.UUID{l.SellerID},
	}
}

type CreateListingUseCase struct {
	listingRepo repository.ListingRepository
	notifier    invalidation.Notifier
}

func NewCreateListingUseCase(listingRepo repository.ListingRepository, notifier invalidation.Notifier) *CreateListingUseCase {
	return &CreateListingUseCase{listingRepo: listingRepo, notifier: notifier}
}

func (uc *CreateListingUseCase) Execute(ctx context.Context, actor entity.Actor, input ListingInput) (*entity.Listing, error) {
	if err := actor.RequireRole(valueobject.RoleFreelancer); err != nil {
		return nil, err
	}

	l, err := entity.NewListing(actor.UserID, input.Title, input.Description, input.Price, input.Category, input.Metadata, input.PreviewURL)
	if err != nil {
		return nil, err
	}
	if err := uc.listingRepo.Create(ctx, l); err != nil {
		return nil, apperror.Database(err, "не удалось создать объявление")
	}

	uc.notifier.Notify(ctx, signal(l, "create"))
	return l, nil
}

type UpdateListingUseCase struct {
	listingRepo repository.ListingRepository
	notifier    invalidation.Notifier
}

func NewUpdateListingUseCase(listingRepo repository.ListingRepository, notifier invalidation.Notifier) *UpdateListingUseCase {
	return &UpdateListingUseCase{listingRepo: listingRepo, notifier: notifier}
}

func (uc *UpdateListingUseCase) Execute(ctx context.Context, actor entity.Actor, id uuid.UUID, input ListingInput) (*entity.Listing, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	l, err := uc.listingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsOwnedBy(actor.UserID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "редактировать объявление может только владелец")
	}
	if err := l.Update(input.Title, input.Description, input.Price, input.Category, input.Metadata, input.PreviewURL); err != nil {
		return nil, err
	}
	if err := uc.listingRepo.Update(ctx, l); err != nil {
		return nil, apperror.Database(err, "не удалось обновить объявление")
	}

	uc.notifier.Notify(ctx, signal(l, "update"))
	return l, nil
}

type GetListingUseCase struct {
	listingRepo repository.ListingRepository
}

func NewGetListingUseCase(listingRepo repository.ListingRepository) *GetListingUseCase {
	return &GetListingUseCase{listingRepo: listingRepo}
}

// Execute скрытое объявление для посторонних выглядит как несуществующее.
func (uc *GetListingUseCase) Execute(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Listing, error) {
	l, err := uc.listingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.VisibleTo(actor) {
		return nil, apperror.ErrListingNotFound
	}
	return l, nil
}

type ListListingsUseCase struct {
	listingRepo repository.ListingRepository
}

func NewListListingsUseCase(listingRepo repository.ListingRepository) *ListListingsUseCase {
	return &ListListingsUseCase{listingRepo: listingRepo}
}

// Execute публичный каталог: только активные объявления.
func (uc *ListListingsUseCase) Execute(ctx context.Context, filter repository.ListingFilter) ([]*entity.Listing, int, error) {
	filter.Status = string(valueobject.ListingStatusActive)
	filter.SellerID = nil
	return uc.listingRepo.List(ctx, filter)
}

type ListMyListingsUseCase struct {
	listingRepo repository.ListingRepository
}

func NewListMyListingsUseCase(listingRepo repository.ListingRepository) *ListMyListingsUseCase {
	return &ListMyListingsUseCase{listingRepo: listingRepo}
}

func (uc *ListMyListingsUseCase) Execute(ctx context.Context, actor entity.Actor, filter repository.ListingFilter) ([]*entity.Listing, int, error) {
	if actor.IsAnonymous() {
		return nil, 0, apperror.ErrUnauthorized
	}
	if filter.Status != "" {
		if _, err := valueobject.NewListingStatus(filter.Status); err != nil {
			return nil, 0, err
		}
	}
	filter.SellerID = &actor.UserID
	return uc.listingRepo.List(ctx, filter)
}

type ModerateListingUseCase struct {
	listingRepo repository.ListingRepository
	notifier    invalidation.Notifier
}

func NewModerateListingUseCase(listingRepo repository.ListingRepository, notifier invalidation.Notifier) *ModerateListingUseCase {
	return &ModerateListingUseCase{listingRepo: listingRepo, notifier: notifier}
}

func (uc *ModerateListingUseCase) Execute(ctx context.Context, actor entity.Actor, id uuid.UUID, status string) (*entity.Listing, error) {
	if !actor.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	next, err := valueobject.NewListingStatus(status)
	if err != nil {
		return nil, err
	}

	l, err := uc.listingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Moderate(next)
	if err := uc.listingRepo.Update(ctx, l); err != nil {
		return nil, apperror.Database(err, "не удалось изменить статус объявления")
	}

	logger.Log.WithFields(logrus.Fields{
		"listing_id": l.ID,
		"status":     l.Status,
		"admin_id":   actor.UserID,
	}).Info("listing: статус изменён модератором")
	uc.notifier.Notify(ctx, signal(l, "moderate"))
	return l, nil
}

type DeleteListingUseCase struct {
	listingRepo repository.ListingRepository
	notifier    invalidation.Notifier
}

func NewDeleteListingUseCase(listingRepo repository.ListingRepository, notifier invalidation.Notifier) *DeleteListingUseCase {
	return &DeleteListingUseCase{listingRepo: listingRepo, notifier: notifier}
}

// Execute удаляет объявление. Если на него ссылаются заказы, объявление архивируется; archived=true.
func (uc *DeleteListingUseCase) Execute(ctx context.Context, actor entity.Actor, id uuid.UUID) (archived bool, err error) {
	if actor.IsAnonymous() {
		return false, apperror.ErrUnauthorized
	}

	l, err := uc.listingRepo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !l.IsOwnedBy(actor.UserID) && !actor.IsAdmin {
		return false, apperror.New(apperror.ErrCodeForbidden, "удалить объявление может только владелец")
	}

	err = uc.listingRepo.Delete(ctx, id)
	switch {
	case err == nil:
		uc.notifier.Notify(ctx, signal(l, "delete"))
		return false, nil
	case errors.Is(err, repository.ErrReferenced):
		l.Archive()
		if err := uc.listingRepo.Update(ctx, l); err != nil {
			return false, apperror.Database(err, "не удалось архивировать объявление")
		}
		uc.notifier.Notify(ctx, signal(l, "archive"))
		return true, nil
	default:
		return false, apperror.Database(err, "не удалось удалить объявление")
	}
}
