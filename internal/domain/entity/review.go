package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

const (
	MinRating = 1
	MaxRating = 5
)

type ReviewParentKind string

const (
	ReviewParentJob   ReviewParentKind = "job"
	ReviewParentOrder ReviewParentKind = "order"
)

type Review struct {
	ID         uuid.UUID
	JobID      *uuid.UUID
	OrderID    *uuid.UUID
	ReviewerID uuid.UUID
	RevieweeID uuid.UUID
	Rating     int
	Comment    *string
	CreatedAt  time.Time
}

// ValidateRating вызывается до любых чтений и записей.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperror.Validation("рейтинг должен быть от 1 до 5")
	}
	return nil
}

func NewReview(kind ReviewParentKind, parentID, reviewerID, revieweeID uuid.UUID, rating int, comment string) (*Review, error) {
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	if reviewerID == revieweeID {
		return nil, apperror.Validation("нельзя оставить отзыв самому себе")
	}

	r := &Review{
		ID:         uuid.New(),
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     rating,
		CreatedAt:  time.Now(),
	}
	switch kind {
	case ReviewParentJob:
		r.JobID = &parentID
	case ReviewParentOrder:
		r.OrderID = &parentID
	default:
		return nil, apperror.Validation("отзыв можно оставить только к заданию или заказу")
	}
	if c := strings.TrimSpace(comment); c != "" {
		r.Comment = &c
	}
	return r, nil
}

// RatingSummary средняя оценка пользователя.
type RatingSummary struct {
	Average float64
	Count   int
}
