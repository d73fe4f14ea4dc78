package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

type CreateOrderInput struct {
	ListingID    uuid.UUID
	AddOnIDs     []string
	Requirements string
}

type CreateOrderUseCase struct {
	listingRepo repository.ListingRepository
	orderRepo   repository.OrderRepository
	notifier    invalidation.Notifier
}

func NewCreateOrderUseCase(listingRepo repository.ListingRepository, orderRepo repository.OrderRepository, notifier invalidation.Notifier) *CreateOrderUseCase {
	return &CreateOrderUseCase{listingRepo: listingRepo, orderRepo: orderRepo, notifier: notifier}
}

func (uc *CreateOrderUseCase) Execute(ctx context.Context, actor entity.Actor, input CreateOrderInput) (*entity.Order, error) {
	if err := actor.RequireOnboarded(); err != nil {
		return nil, err
	}

	listing, err := uc.listingRepo.FindByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}

	order, err := entity.NewListingOrder(actor.UserID, listing, input.AddOnIDs, input.Requirements)
	if err != nil {
		return nil, err
	}

	if err := uc.orderRepo.Create(ctx, order); err != nil {
		return nil, apperror.Database(err, "не удалось создать заказ")
	}

	order.Listing = listing
	Record(order, "create")
	uc.notifier.Notify(ctx, Signal(order, "create"))
	return order, nil
}
