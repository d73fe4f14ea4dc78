package job

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/usecase/order"
)

// deliveryDeps зависимости сдачи и приёмки работы по заданию.
// Если к заданию привязан оплаченный заказ найма, он двигается вместе с заданием.
type deliveryDeps struct {
	tx        repository.Transactor
	jobRepo   repository.JobRepository
	orderRepo repository.OrderRepository
	notifier  invalidation.Notifier
}

type linkedResult struct {
	job    *entity.Job
	order  *entity.Order
	action string
}

func (d deliveryDeps) notify(ctx context.Context, r linkedResult, jobAction valueobject.JobAction) {
	Record(r.job, string(jobAction))
	d.notifier.Notify(ctx, Signal(r.job, string(jobAction)))
	if r.order != nil {
		order.Record(r.order, r.action)
		d.notifier.Notify(ctx, order.Signal(r.order, r.action))
	}
}

// linkedOrder заказ найма по принятому отклику в нужном статусе или nil.
// Задание, назначенное через оффер в чате, заказа не имеет.
func (d deliveryDeps) linkedOrder(ctx context.Context, job *entity.Job, status valueobject.OrderStatus) (*entity.Order, error) {
	if job.AcceptedBidID == nil {
		return nil, nil
	}
	o, err := d.orderRepo.FindHireOrder(ctx, job.ID, *job.AcceptedBidID, status)
	if err != nil {
		return nil, apperror.Database(err, "не удалось получить заказ задания")
	}
	return o, nil
}

type SubmitJobDeliveryInput struct {
	URL  string
	Note string
}

type SubmitJobDeliveryUseCase struct {
	deliveryDeps
}

func NewSubmitJobDeliveryUseCase(tx repository.Transactor, jobRepo repository.JobRepository, orderRepo repository.OrderRepository, notifier invalidation.Notifier) *SubmitJobDeliveryUseCase {
	return &SubmitJobDeliveryUseCase{deliveryDeps{tx: tx, jobRepo: jobRepo, orderRepo: orderRepo, notifier: notifier}}
}

func (uc *SubmitJobDeliveryUseCase) Execute(ctx context.Context, actor entity.Actor, jobID uuid.UUID, input SubmitJobDeliveryInput) (*entity.Job, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	result := linkedResult{action: string(valueobject.OrderActionSubmitDelivery)}
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		job, err := uc.jobRepo.FindByID(ctx, jobID)
		if err != nil {
			return err
		}
		if err := ApplyLoaded(ctx, uc.jobRepo, job, func(j *entity.Job) error {
			return j.SubmitDelivery(actor.UserID, input.URL, input.Note)
		}); err != nil {
			return err
		}
		result.job = job

		linked, err := uc.linkedOrder(ctx, job, valueobject.OrderStatusPaid)
		if err != nil || linked == nil {
			return err
		}
		content := input.Note
		if content == "" {
			content = input.URL
		}
		result.order, _, err = order.Deliver(ctx, uc.orderRepo, linked, actor.UserID, content, job.DeliveryURL)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.notify(ctx, result, valueobject.JobActionSubmitDelivery)
	return result.job, nil
}

type ReviewJobDeliveryInput struct {
	Approve bool
	Reason  string
}

type ReviewJobDeliveryUseCase struct {
	deliveryDeps
}

func NewReviewJobDeliveryUseCase(tx repository.Transactor, jobRepo repository.JobRepository, orderRepo repository.OrderRepository, notifier invalidation.Notifier) *ReviewJobDeliveryUseCase {
	return &ReviewJobDeliveryUseCase{deliveryDeps{tx: tx, jobRepo: jobRepo, orderRepo: orderRepo, notifier: notifier}}
}

// Execute приёмка: approve завершает задание, иначе возврат в работу с причиной.
func (uc *ReviewJobDeliveryUseCase) Execute(ctx context.Context, actor entity.Actor, jobID uuid.UUID, input ReviewJobDeliveryInput) (*entity.Job, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	jobAction := valueobject.JobActionRejectDelivery
	result := linkedResult{action: string(valueobject.OrderActionRequestChanges)}
	if input.Approve {
		jobAction = valueobject.JobActionApproveDelivery
		result.action = string(valueobject.OrderActionApprove)
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		job, err := uc.jobRepo.FindByID(ctx, jobID)
		if err != nil {
			return err
		}
		if err := ApplyLoaded(ctx, uc.jobRepo, job, func(j *entity.Job) error {
			if input.Approve {
				return j.ApproveDelivery(actor.UserID)
			}
			return j.RejectDelivery(actor.UserID, input.Reason)
		}); err != nil {
			return err
		}
		result.job = job

		linked, err := uc.linkedOrder(ctx, job, valueobject.OrderStatusDelivered)
		if err != nil || linked == nil {
			return err
		}
		result.order, err = order.ApplyLoaded(ctx, uc.orderRepo, linked, func(o *entity.Order) error {
			if input.Approve {
				return o.Approve(actor.UserID)
			}
			return o.RequestChanges(actor.UserID, input.Reason)
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.notify(ctx, result, jobAction)
	return result.job, nil
}
