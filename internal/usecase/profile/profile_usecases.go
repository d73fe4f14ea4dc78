package profile

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

func signal(p *entity.Profile, action string) invalidation.Signal {
	return invalidation.Signal{
		Entity:   "profile",
		EntityID: p.ID,
		Action:   action,
		Paths:    []string{"/api/users/" + p.ID.String()},
		UserIDs:  []uuid.UUID{p.ID},
	}
}

type GetMeUseCase struct {
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
}

func NewGetMeUseCase(profileRepo repository.ProfileRepository, userRepo repository.UserRepository) *GetMeUseCase {
	return &GetMeUseCase{profileRepo: profileRepo, userRepo: userRepo}
}

// Execute возвращает профиль; если его нет, создаёт профиль по умолчанию из email.
func (uc *GetMeUseCase) Execute(ctx context.Context, actor entity.Actor) (*entity.Profile, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	p, err := uc.profileRepo.FindByID(ctx, actor.UserID)
	if err == nil {
		return p, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	user, err := uc.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	p = entity.NewProfile(user.ID, DefaultDisplayName(user.Email))
	if err := uc.profileRepo.Create(ctx, p); err != nil {
		return nil, apperror.Database(err, "не удалось создать профиль")
	}
	return p, nil
}

// DefaultDisplayName часть email до @.
func DefaultDisplayName(email string) string {
	name, _, _ := strings.Cut(email, "@")
	if len([]rune(name)) < 2 {
		return "user"
	}
	return name
}

type UpdateProfileInput struct {
	DisplayName string
	Bio         string
	AvatarURL   *string
	Skills      []string
}

type UpdateMeUseCase struct {
	profileRepo repository.ProfileRepository
	notifier    invalidation.Notifier
}

func NewUpdateMeUseCase(profileRepo repository.ProfileRepository, notifier invalidation.Notifier) *UpdateMeUseCase {
	return &UpdateMeUseCase{profileRepo: profileRepo, notifier: notifier}
}

func (uc *UpdateMeUseCase) Execute(ctx context.Context, actor entity.Actor, input UpdateProfileInput) (*entity.Profile, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	p, err := uc.profileRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := p.Update(input.DisplayName, input.Bio, input.AvatarURL, input.Skills); err != nil {
		return nil, err
	}
	if err := uc.profileRepo.Update(ctx, p); err != nil {
		return nil, apperror.Database(err, "не удалось обновить профиль")
	}

	uc.notifier.Notify(ctx, signal(p, "update"))
	return p, nil
}

type ChooseRoleUseCase struct {
	profileRepo repository.ProfileRepository
	notifier    invalidation.Notifier
}

func NewChooseRoleUseCase(profileRepo repository.ProfileRepository, notifier invalidation.Notifier) *ChooseRoleUseCase {
	return &ChooseRoleUseCase{profileRepo: profileRepo, notifier: notifier}
}

// Execute онбординг. Повторный выбор роли отклоняется, в том числе при гонке двух запросов.
func (uc *ChooseRoleUseCase) Execute(ctx context.Context, actor entity.Actor, role string) (*entity.Profile, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}
	r, err := valueobject.NewOnboardingRole(role)
	if err != nil {
		return nil, err
	}

	p, err := uc.profileRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := p.ChooseRole(r); err != nil {
		return nil, err
	}
	if err := uc.profileRepo.SetRole(ctx, p); err != nil {
		return nil, apperror.Database(err, "не удалось сохранить роль")
	}

	uc.notifier.Notify(ctx, signal(p, "choose_role"))
	return p, nil
}

type PublicProfile struct {
	Profile *entity.Profile
	Rating  entity.RatingSummary
}

type GetPublicProfileUseCase struct {
	profileRepo repository.ProfileRepository
	reviewRepo  repository.ReviewRepository
}

func NewGetPublicProfileUseCase(profileRepo repository.ProfileRepository, reviewRepo repository.ReviewRepository) *GetPublicProfileUseCase {
	return &GetPublicProfileUseCase{profileRepo: profileRepo, reviewRepo: reviewRepo}
}

func (uc *GetPublicProfileUseCase) Execute(ctx context.Context, userID uuid.UUID) (*PublicProfile, error) {
	p, err := uc.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	rating, err := uc.reviewRepo.RatingSummary(ctx, userID)
	if err != nil {
		return nil, apperror.Database(err, "не удалось посчитать рейтинг")
	}
	return &PublicProfile{Profile: p, Rating: rating}, nil
}
