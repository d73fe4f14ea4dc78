package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

const reviewColumns = `id, job_id, order_id, reviewer_id, reviewee_id, rating, comment, created_at`

type reviewRow struct {
	ID         uuid.UUID  `db:"id"`
	JobID      *uuid.UUID `db:"job_id"`
	OrderID    *uuid.UUID `db:"order_id"`
	ReviewerID uuid.UUID  `db:"reviewer_id"`
	RevieweeID uuid.UUID  `db:"reviewee_id"`
	Rating     int        `db:"rating"`
	Comment    *string    `db:"comment"`
	CreatedAt  time.Time  `db:"created_at"`
}

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *entity.Review) error {
	query := `INSERT INTO reviews (` + reviewColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		rv.ID, rv.JobID, rv.OrderID, rv.ReviewerID, rv.RevieweeID, rv.Rating, rv.Comment, rv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrAlreadyReviewed
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить отзыв")
	}
	return nil
}

func (r *ReviewRepository) Exists(ctx context.Context, kind entity.ReviewParentKind, parentID, reviewerID uuid.UUID) (bool, error) {
	column := "order_id"
	if kind == entity.ReviewParentJob {
		column = "job_id"
	}

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM reviews WHERE ` + column + ` = $1 AND reviewer_id = $2)`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &exists, query, parentID, reviewerID); err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить отзыв")
	}
	return exists, nil
}

func (r *ReviewRepository) FindByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	c := conditions{}
	c.add("reviewee_id = $%d", revieweeID)
	tail, args := c.page(limit, offset)

	var rows []reviewRow
	query := `SELECT ` + reviewColumns + ` FROM reviews` + c.where() + ` ORDER BY created_at DESC` + tail
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отзывы")
	}

	result := make([]*entity.Review, 0, len(rows))
	for _, row := range rows {
		result = append(result, &entity.Review{
			ID:         row.ID,
			JobID:      row.JobID,
			OrderID:    row.OrderID,
			ReviewerID: row.ReviewerID,
			RevieweeID: row.RevieweeID,
			Rating:     row.Rating,
			Comment:    row.Comment,
			CreatedAt:  row.CreatedAt,
		})
	}
	return result, nil
}

func (r *ReviewRepository) RatingSummary(ctx context.Context, revieweeID uuid.UUID) (entity.RatingSummary, error) {
	var row struct {
		Average float64 `db:"average"`
		Count   int     `db:"count"`
	}
	query := `SELECT COALESCE(AVG(rating), 0)::float8 AS average, COUNT(*) AS count FROM reviews WHERE reviewee_id = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, revieweeID); err != nil {
		return entity.RatingSummary{}, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать рейтинг")
	}
	return entity.RatingSummary{Average: row.Average, Count: row.Count}, nil
}
