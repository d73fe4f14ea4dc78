package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/logger"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

type GetOrderUseCase struct {
	orderRepo   repository.OrderRepository
	listingRepo repository.ListingRepository
	jobRepo     repository.JobRepository
}

func NewGetOrderUseCase(orderRepo repository.OrderRepository, listingRepo repository.ListingRepository, jobRepo repository.JobRepository) *GetOrderUseCase {
	return &GetOrderUseCase{orderRepo: orderRepo, listingRepo: listingRepo, jobRepo: jobRepo}
}

// Execute возвращает заказ со связанными объявлением или заданием и результатами работы.
// Если связанные данные не загрузились, отдаётся базовый заказ.
func (uc *GetOrderUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID) (*entity.Order, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	order, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsParticipant(actor.UserID) && !actor.IsAdmin {
		return nil, apperror.ErrForbidden
	}

	if err := uc.loadRelations(ctx, order); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		}).Warn("order: связанные данные не загружены, отдаём базовый заказ")
	}
	return order, nil
}

func (uc *GetOrderUseCase) loadRelations(ctx context.Context, order *entity.Order) error {
	if order.ListingID != nil {
		listing, err := uc.listingRepo.FindByID(ctx, *order.ListingID)
		if err != nil {
			return err
		}
		order.Listing = listing
	}
	if order.JobID != nil {
		job, err := uc.jobRepo.FindByID(ctx, *order.JobID)
		if err != nil {
			return err
		}
		order.Job = job
	}

	deliveries, err := uc.orderRepo.FindDeliveries(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Deliveries = deliveries
	return nil
}

type ListMyOrdersUseCase struct {
	orderRepo repository.OrderRepository
}

func NewListMyOrdersUseCase(orderRepo repository.OrderRepository) *ListMyOrdersUseCase {
	return &ListMyOrdersUseCase{orderRepo: orderRepo}
}

func (uc *ListMyOrdersUseCase) Execute(ctx context.Context, actor entity.Actor, filter repository.OrderFilter) ([]*entity.Order, int, error) {
	if actor.IsAnonymous() {
		return nil, 0, apperror.ErrUnauthorized
	}
	switch filter.Side {
	case "", "buyer", "seller":
	default:
		return nil, 0, apperror.Validation("side должен быть buyer или seller")
	}
	return uc.orderRepo.FindByParticipant(ctx, actor.UserID, filter)
}
