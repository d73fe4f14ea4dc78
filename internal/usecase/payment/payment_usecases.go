package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/logger"
	"github.com/ignatzorin/market-backend/internal/metrics"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/usecase/job"
	"github.com/ignatzorin/market-backend/internal/usecase/order"
)

// Результаты обработки вебхука.
const (
	ResultProcessed = "processed"
	ResultDuplicate = "duplicate"
	ResultIgnored   = "ignored"
	// ResultRefunded оплата найма пришла, когда исполнитель уже назначен: заказ отменён с возвратом.
	ResultRefunded = "refunded"
)

type CheckoutResult struct {
	Order       *entity.Order
	CheckoutURL string
}

func startCheckout(ctx context.Context, gateway Gateway, orderRepo repository.OrderRepository, urls URLs, o *entity.Order) (*CheckoutResult, error) {
	session, err := gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		Amount:     o.Amount.Amount,
		Currency:   strings.ToLower(o.Amount.Currency),
		Title:      o.Title,
		SuccessURL: strings.ReplaceAll(urls.SuccessURL, "{ORDER_ID}", o.ID.String()),
		CancelURL:  strings.ReplaceAll(urls.CancelURL, "{ORDER_ID}", o.ID.String()),
		Metadata: map[string]string{
			MetadataOrderID: o.ID.String(),
			MetadataBuyerID: o.BuyerID.String(),
		},
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать платёжную сессию")
	}

	if err := orderRepo.SetCheckoutSession(ctx, o.ID, session.ID); err != nil {
		return nil, apperror.Database(err, "не удалось сохранить платёжную сессию")
	}
	o.CheckoutSessionID = &session.ID
	return &CheckoutResult{Order: o, CheckoutURL: session.URL}, nil
}

type CreateOrderCheckoutUseCase struct {
	orderRepo repository.OrderRepository
	gateway   Gateway
	urls      URLs
}

func NewCreateOrderCheckoutUseCase(orderRepo repository.OrderRepository, gateway Gateway, urls URLs) *CreateOrderCheckoutUseCase {
	return &CreateOrderCheckoutUseCase{orderRepo: orderRepo, gateway: gateway, urls: urls}
}

func (uc *CreateOrderCheckoutUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID) (*CheckoutResult, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	o, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsBuyer(actor.UserID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "оплатить заказ может только покупатель")
	}
	if o.Status != valueobject.OrderStatusPending {
		return nil, apperror.Wrap(
			&valueobject.TransitionError{Entity: "order", From: string(o.Status), Action: string(valueobject.OrderActionPay)},
			apperror.ErrCodeInvalidState, "заказ уже оплачен или закрыт")
	}

	return startCheckout(ctx, uc.gateway, uc.orderRepo, uc.urls, o)
}

type CreateHireCheckoutUseCase struct {
	jobRepo   repository.JobRepository
	bidRepo   repository.BidRepository
	orderRepo repository.OrderRepository
	gateway   Gateway
	urls      URLs
	notifier  invalidation.Notifier
}

func NewCreateHireCheckoutUseCase(
	jobRepo repository.JobRepository,
	bidRepo repository.BidRepository,
	orderRepo repository.OrderRepository,
	gateway Gateway,
	urls URLs,
	notifier invalidation.Notifier,
) *CreateHireCheckoutUseCase {
	return &CreateHireCheckoutUseCase{
		jobRepo:   jobRepo,
		bidRepo:   bidRepo,
		orderRepo: orderRepo,
		gateway:   gateway,
		urls:      urls,
		notifier:  notifier,
	}
}

// Execute создаёт заказ найма по отклику и платёжную сессию. Найм происходит после оплаты.
func (uc *CreateHireCheckoutUseCase) Execute(ctx context.Context, actor entity.Actor, jobID, bidID uuid.UUID) (*CheckoutResult, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	j, err := uc.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	bid, err := uc.bidRepo.FindByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	o, err := entity.NewHireOrder(actor.UserID, j, bid)
	if err != nil {
		return nil, err
	}

	// повторный запуск оплаты по тому же отклику продолжает ожидающий заказ
	existing, err := uc.orderRepo.FindHireOrder(ctx, j.ID, bid.ID, valueobject.OrderStatusPending)
	if err != nil {
		return nil, apperror.Database(err, "не удалось проверить заказы найма")
	}
	if existing != nil {
		return startCheckout(ctx, uc.gateway, uc.orderRepo, uc.urls, existing)
	}

	// гонку двух запросов закрывает уникальный индекс: ErrHirePending
	if err := uc.orderRepo.Create(ctx, o); err != nil {
		return nil, apperror.Database(err, "не удалось создать заказ найма")
	}

	order.Record(o, "create")
	uc.notifier.Notify(ctx, order.Signal(o, "create"))
	return startCheckout(ctx, uc.gateway, uc.orderRepo, uc.urls, o)
}

type HandleWebhookUseCase struct {
	tx        repository.Transactor
	orderRepo repository.OrderRepository
	jobRepo   repository.JobRepository
	bidRepo   repository.BidRepository
	gateway   Gateway
	notifier  invalidation.Notifier
}

func NewHandleWebhookUseCase(
	tx repository.Transactor,
	orderRepo repository.OrderRepository,
	jobRepo repository.JobRepository,
	bidRepo repository.BidRepository,
	gateway Gateway,
	notifier invalidation.Notifier,
) *HandleWebhookUseCase {
	return &HandleWebhookUseCase{
		tx:        tx,
		orderRepo: orderRepo,
		jobRepo:   jobRepo,
		bidRepo:   bidRepo,
		gateway:   gateway,
		notifier:  notifier,
	}
}

// Execute проверяет подпись и отмечает заказ оплаченным.
// Для заказа найма исполнитель назначается, а остальные ожидающие отклики отклоняются.
// Если исполнитель уже назначен, оплаченный заказ найма отменяется с возвратом.
func (uc *HandleWebhookUseCase) Execute(ctx context.Context, payload []byte, signature string) (string, error) {
	event, err := uc.gateway.ParseWebhook(payload, signature)
	if err != nil {
		metrics.RecordWebhookEvent("unknown", "invalid_signature")
		return "", apperror.Wrap(err, apperror.ErrCodeBadRequest, "некорректная подпись вебхука")
	}

	result, err := uc.handle(ctx, event)
	if err != nil {
		metrics.RecordWebhookEvent(event.Type, "error")
		return "", err
	}
	metrics.RecordWebhookEvent(event.Type, result)
	return result, nil
}

func (uc *HandleWebhookUseCase) handle(ctx context.Context, event *Event) (string, error) {
	if event.Type != EventCheckoutCompleted {
		return ResultIgnored, nil
	}

	orderID, err := uuid.Parse(event.Metadata[MetadataOrderID])
	if err != nil {
		return "", apperror.Validation("в событии нет идентификатора заказа")
	}

	var (
		paid      *entity.Order
		refunded  *entity.Order
		hired     *entity.Job
		duplicate bool
	)
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := uc.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != valueobject.OrderStatusPending {
			duplicate = true
			return nil
		}

		// оплату подтверждает шлюз от имени записанного покупателя
		paid, err = order.ApplyLoaded(ctx, uc.orderRepo, o, func(o *entity.Order) error {
			return o.Pay(o.BuyerID)
		})
		if err != nil {
			return err
		}
		if !paid.IsHire() {
			return nil
		}
		hired, err = uc.hire(ctx, paid)
		if err != nil || hired != nil {
			return err
		}

		// найм не состоялся, эскроу возвращается покупателю
		snapshot := *paid
		refunded, err = order.ApplyLoaded(ctx, uc.orderRepo, &snapshot, func(o *entity.Order) error {
			return o.Refund("исполнитель по заданию уже назначен")
		})
		return err
	})
	if err != nil {
		return "", err
	}
	if duplicate {
		return ResultDuplicate, nil
	}

	order.Record(paid, string(valueobject.OrderActionPay))
	uc.notifier.Notify(ctx, order.Signal(paid, string(valueobject.OrderActionPay)))
	if refunded != nil {
		order.Record(refunded, string(valueobject.OrderActionCancel))
		uc.notifier.Notify(ctx, order.Signal(refunded, string(valueobject.OrderActionCancel)))
		return ResultRefunded, nil
	}
	if hired != nil {
		job.Record(hired, string(valueobject.JobActionHire))
		uc.notifier.Notify(ctx, job.Signal(hired, string(valueobject.JobActionHire)))
	}
	return ResultProcessed, nil
}

// hire назначает исполнителя по оплаченному отклику и отклоняет конкурентов.
// TODO: согласовать с job.AcceptBidUseCase, где остальные отклики остаются в ожидании.
func (uc *HandleWebhookUseCase) hire(ctx context.Context, o *entity.Order) (*entity.Job, error) {
	j, err := uc.jobRepo.FindByID(ctx, *o.JobID)
	if err != nil {
		return nil, err
	}
	bid, err := uc.bidRepo.FindByID(ctx, *o.BidID)
	if err != nil {
		return nil, err
	}

	if j.Status != valueobject.JobStatusOpen || bid.Status != valueobject.BidStatusPending {
		// исполнитель уже назначен другим путём
		logger.Log.WithFields(logrus.Fields{
			"order_id":   o.ID,
			"job_id":     j.ID,
			"job_status": j.Status,
			"bid_status": bid.Status,
		}).Warn("payment: задание уже не открыто, найм по оплате пропущен, заказ отменяется с возвратом")
		return nil, nil
	}

	if err := job.Hire(ctx, uc.jobRepo, uc.bidRepo, j, bid, o.BuyerID); err != nil {
		return nil, err
	}
	rejected, err := uc.bidRepo.RejectPendingExcept(ctx, j.ID, bid.ID)
	if err != nil {
		return nil, apperror.Database(err, "не удалось отклонить остальные отклики")
	}
	metrics.BidsTotal.WithLabelValues(string(valueobject.BidStatusRejected)).Add(float64(rejected))
	return j, nil
}
