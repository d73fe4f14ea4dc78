package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/entity"
)

// ErrReferenced удаление нарушает ссылочную целостность.
var ErrReferenced = errors.New("запись используется другими данными")

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	Update(ctx context.Context, listing *entity.Listing) error
	// Delete возвращает ErrReferenced, если на объявление ссылаются заказы.
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	List(ctx context.Context, filter ListingFilter) ([]*entity.Listing, int, error)
}

type ListingFilter struct {
	SellerID *uuid.UUID
	Status   string
	Category string
	Search   string
	Limit    int
	Offset   int
}
