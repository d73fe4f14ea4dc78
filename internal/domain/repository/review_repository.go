package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/entity"
)

type ReviewRepository interface {
	// Create возвращает apperror.ErrAlreadyReviewed при нарушении уникальности.
	Create(ctx context.Context, review *entity.Review) error
	Exists(ctx context.Context, kind entity.ReviewParentKind, parentID, reviewerID uuid.UUID) (bool, error)
	FindByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]*entity.Review, error)
	RatingSummary(ctx context.Context, revieweeID uuid.UUID) (entity.RatingSummary, error)
}
