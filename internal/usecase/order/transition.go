package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/metrics"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

// Apply загружает заказ, применяет переход и пишет его условным обновлением.
// Вызывать внутри транзакции. Ошибка перехода возвращается без записи.
func Apply(ctx context.Context, orders repository.OrderRepository, orderID uuid.UUID, fn func(o *entity.Order) error) (*entity.Order, error) {
	o, err := orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ApplyLoaded(ctx, orders, o, fn)
}

// ApplyLoaded то же для уже загруженного заказа.
func ApplyLoaded(ctx context.Context, orders repository.OrderRepository, o *entity.Order, fn func(o *entity.Order) error) (*entity.Order, error) {
	expected := o.Status
	if err := fn(o); err != nil {
		return nil, err
	}
	if err := orders.UpdateState(ctx, o, expected); err != nil {
		return nil, apperror.Database(err, "не удалось обновить заказ")
	}
	return o, nil
}

// Deliver переход submit_delivery с записью результата в той же транзакции.
func Deliver(ctx context.Context, orders repository.OrderRepository, o *entity.Order, sellerID uuid.UUID, content string, fileURL *string) (*entity.Order, *entity.Delivery, error) {
	var delivery *entity.Delivery
	o, err := ApplyLoaded(ctx, orders, o, func(o *entity.Order) error {
		d, err := o.SubmitDelivery(sellerID, content, fileURL)
		delivery = d
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if err := orders.AddDelivery(ctx, delivery); err != nil {
		return nil, nil, apperror.Database(err, "не удалось сохранить результат работы")
	}
	return o, delivery, nil
}

// Record пишет метрики после успешной фиксации транзакции.
func Record(o *entity.Order, action string) {
	metrics.RecordOrderTransition(action, string(o.Status), string(o.EscrowStatus), o.Amount.Amount)
}

// Signal сигнал инвалидации для страниц заказа.
func Signal(o *entity.Order, action string) invalidation.Signal {
	paths := []string{"/api/orders/" + o.ID.String(), "/api/my/orders"}
	if o.JobID != nil {
		paths = append(paths, "/api/jobs/"+o.JobID.String(), "/api/my/jobs")
	}
	return invalidation.Signal{
		Entity:   "order",
		EntityID: o.ID,
		Action:   action,
		Paths:    paths,
		UserIDs:  []uuid.UUID{o.BuyerID, o.SellerID},
	}
}
