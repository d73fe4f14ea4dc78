package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// FindHireOrder последний заказ найма по отклику в статусе status или nil.
	FindHireOrder(ctx context.Context, jobID, bidID uuid.UUID, status valueobject.OrderStatus) (*entity.Order, error)
	FindByParticipant(ctx context.Context, userID uuid.UUID, filter OrderFilter) ([]*entity.Order, int, error)
	// UpdateState записывает новый статус только если в хранилище всё ещё expected.
	UpdateState(ctx context.Context, order *entity.Order, expected valueobject.OrderStatus) error
	SetCheckoutSession(ctx context.Context, orderID uuid.UUID, sessionID string) error

	AddDelivery(ctx context.Context, delivery *entity.Delivery) error
	FindDeliveries(ctx context.Context, orderID uuid.UUID) ([]entity.Delivery, error)
}

type OrderFilter struct {
	// Side: "buyer", "seller" или пусто для обеих сторон.
	Side   string
	Status string
	Limit  int
	Offset int
}
