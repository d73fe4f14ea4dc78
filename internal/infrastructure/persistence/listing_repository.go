package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

const listingColumns = `id, seller_id, title, description, price, currency, category, metadata, preview_url, status, created_at, updated_at`

type listingRow struct {
	ID          uuid.UUID      `db:"id"`
	SellerID    uuid.UUID      `db:"seller_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Price       int64          `db:"price"`
	Currency    string         `db:"currency"`
	Category    string         `db:"category"`
	Metadata    types.JSONText `db:"metadata"`
	PreviewURL  *string        `db:"preview_url"`
	Status      string         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r listingRow) toEntity() (*entity.Listing, error) {
	l := &entity.Listing{
		ID:          r.ID,
		SellerID:    r.SellerID,
		Title:       r.Title,
		Description: r.Description,
		Price:       valueobject.Money{Amount: r.Price, Currency: r.Currency},
		Category:    r.Category,
		PreviewURL:  r.PreviewURL,
		Status:      valueobject.ListingStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.Metadata) > 0 {
		if err := r.Metadata.Unmarshal(&l.Metadata); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены метаданные объявления")
		}
	}
	return l, nil
}

type ListingRepository struct {
	db *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) Create(ctx context.Context, l *entity.Listing) error {
	meta, err := json.Marshal(l.Metadata)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать метаданные")
	}

	query := `INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = executor(ctx, r.db).ExecContext(ctx, query,
		l.ID, l.SellerID, l.Title, l.Description, l.Price.Amount, l.Price.Currency,
		l.Category, types.JSONText(meta), l.PreviewURL, string(l.Status), l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать объявление")
	}
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, l *entity.Listing) error {
	meta, err := json.Marshal(l.Metadata)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать метаданные")
	}

	query := `
		UPDATE listings
		SET title = $2, description = $3, price = $4, category = $5, metadata = $6,
		    preview_url = $7, status = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		l.ID, l.Title, l.Description, l.Price.Amount, l.Category, types.JSONText(meta),
		l.PreviewURL, string(l.Status), l.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить объявление")
	}
	return requireAffected(res, apperror.ErrListingNotFound)
}

func (r *ListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrReferenced
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось удалить объявление")
	}
	return requireAffected(res, apperror.ErrListingNotFound)
}

func (r *ListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	var row listingRow
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrListingNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявление")
	}
	return row.toEntity()
}

func (r *ListingRepository) List(ctx context.Context, f repository.ListingFilter) ([]*entity.Listing, int, error) {
	var c conditions
	if f.SellerID != nil {
		c.add("seller_id = $%d", *f.SellerID)
	}
	if f.Status != "" {
		c.add("status = $%d", f.Status)
	}
	if f.Category != "" {
		c.add("category = $%d", f.Category)
	}
	if f.Search != "" {
		c.add("title ILIKE $%d", "%"+f.Search+"%")
	}

	q := executor(ctx, r.db)
	var total int
	if err := sqlx.GetContext(ctx, q, &total, `SELECT COUNT(*) FROM listings`+c.where(), c.args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать объявления")
	}

	tail, args := c.page(f.Limit, f.Offset)
	var rows []listingRow
	query := `SELECT ` + listingColumns + ` FROM listings` + c.where() + ` ORDER BY created_at DESC` + tail
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявления")
	}

	result := make([]*entity.Listing, 0, len(rows))
	for _, row := range rows {
		l, err := row.toEntity()
		if err != nil {
			return nil, 0, err
		}
		result = append(result, l)
	}
	return result, total, nil
}
