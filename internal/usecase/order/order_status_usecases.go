package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

// errManagedByJob заказ найма двигается вместе с заданием.
var errManagedByJob = apperror.Validation("сдача и приёмка работы по этому заказу выполняются в задании")

func managedByJob(o *entity.Order, actorID uuid.UUID) error {
	if !o.IsParticipant(actorID) {
		return apperror.ErrForbidden
	}
	return errManagedByJob
}

// statusDeps общие зависимости переходов заказа.
type statusDeps struct {
	tx        repository.Transactor
	orderRepo repository.OrderRepository
	notifier  invalidation.Notifier
}

func (d statusDeps) run(ctx context.Context, orderID uuid.UUID, action valueobject.OrderAction, fn func(ctx context.Context, o *entity.Order) (*entity.Order, error)) (*entity.Order, error) {
	var result *entity.Order
	err := d.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := d.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		result, err = fn(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}

	Record(result, string(action))
	d.notifier.Notify(ctx, Signal(result, string(action)))
	return result, nil
}

type SubmitDeliveryInput struct {
	Content string
	FileURL *string
}

type SubmitDeliveryUseCase struct {
	statusDeps
}

func NewSubmitDeliveryUseCase(tx repository.Transactor, orderRepo repository.OrderRepository, notifier invalidation.Notifier) *SubmitDeliveryUseCase {
	return &SubmitDeliveryUseCase{statusDeps{tx: tx, orderRepo: orderRepo, notifier: notifier}}
}

func (uc *SubmitDeliveryUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID, input SubmitDeliveryInput) (*entity.Order, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}
	return uc.run(ctx, orderID, valueobject.OrderActionSubmitDelivery, func(ctx context.Context, o *entity.Order) (*entity.Order, error) {
		if o.IsHire() {
			return nil, managedByJob(o, actor.UserID)
		}
		o, _, err := Deliver(ctx, uc.orderRepo, o, actor.UserID, input.Content, input.FileURL)
		return o, err
	})
}

type ApproveOrderUseCase struct {
	statusDeps
}

func NewApproveOrderUseCase(tx repository.Transactor, orderRepo repository.OrderRepository, notifier invalidation.Notifier) *ApproveOrderUseCase {
	return &ApproveOrderUseCase{statusDeps{tx: tx, orderRepo: orderRepo, notifier: notifier}}
}

func (uc *ApproveOrderUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID) (*entity.Order, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}
	return uc.run(ctx, orderID, valueobject.OrderActionApprove, func(ctx context.Context, o *entity.Order) (*entity.Order, error) {
		if o.IsHire() {
			return nil, managedByJob(o, actor.UserID)
		}
		return ApplyLoaded(ctx, uc.orderRepo, o, func(o *entity.Order) error {
			return o.Approve(actor.UserID)
		})
	})
}

type RequestChangesUseCase struct {
	statusDeps
}

func NewRequestChangesUseCase(tx repository.Transactor, orderRepo repository.OrderRepository, notifier invalidation.Notifier) *RequestChangesUseCase {
	return &RequestChangesUseCase{statusDeps{tx: tx, orderRepo: orderRepo, notifier: notifier}}
}

func (uc *RequestChangesUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID, feedback string) (*entity.Order, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}
	return uc.run(ctx, orderID, valueobject.OrderActionRequestChanges, func(ctx context.Context, o *entity.Order) (*entity.Order, error) {
		if o.IsHire() {
			return nil, managedByJob(o, actor.UserID)
		}
		return ApplyLoaded(ctx, uc.orderRepo, o, func(o *entity.Order) error {
			return o.RequestChanges(actor.UserID, feedback)
		})
	})
}

type CancelOrderUseCase struct {
	statusDeps
}

func NewCancelOrderUseCase(tx repository.Transactor, orderRepo repository.OrderRepository, notifier invalidation.Notifier) *CancelOrderUseCase {
	return &CancelOrderUseCase{statusDeps{tx: tx, orderRepo: orderRepo, notifier: notifier}}
}

// Execute отмена с возвратом эскроу. Оплаченный заказ найма отменить нельзя: задание уже в работе.
func (uc *CancelOrderUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID, reason string) (*entity.Order, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}
	return uc.run(ctx, orderID, valueobject.OrderActionCancel, func(ctx context.Context, o *entity.Order) (*entity.Order, error) {
		if o.IsHire() && o.Status != valueobject.OrderStatusPending {
			return nil, managedByJob(o, actor.UserID)
		}
		return ApplyLoaded(ctx, uc.orderRepo, o, func(o *entity.Order) error {
			return o.Cancel(actor.UserID, reason)
		})
	})
}
