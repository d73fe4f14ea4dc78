package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

const jobColumns = `id, creator_id, title, description, budget, currency, status, worker_id, accepted_bid_id,
	delivery_url, delivery_note, rejection_reason, created_at, updated_at`

type jobRow struct {
	ID              uuid.UUID  `db:"id"`
	CreatorID       uuid.UUID  `db:"creator_id"`
	Title           string     `db:"title"`
	Description     string     `db:"description"`
	Budget          int64      `db:"budget"`
	Currency        string     `db:"currency"`
	Status          string     `db:"status"`
	WorkerID        *uuid.UUID `db:"worker_id"`
	AcceptedBidID   *uuid.UUID `db:"accepted_bid_id"`
	DeliveryURL     *string    `db:"delivery_url"`
	DeliveryNote    *string    `db:"delivery_note"`
	RejectionReason *string    `db:"rejection_reason"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (r jobRow) toEntity() *entity.Job {
	return &entity.Job{
		ID:              r.ID,
		CreatorID:       r.CreatorID,
		Title:           r.Title,
		Description:     r.Description,
		Budget:          valueobject.Money{Amount: r.Budget, Currency: r.Currency},
		Status:          valueobject.JobStatus(r.Status),
		WorkerID:        r.WorkerID,
		AcceptedBidID:   r.AcceptedBidID,
		DeliveryURL:     r.DeliveryURL,
		DeliveryNote:    r.DeliveryNote,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, j *entity.Job) error {
	query := `INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		j.ID, j.CreatorID, j.Title, j.Description, j.Budget.Amount, j.Budget.Currency, string(j.Status),
		j.WorkerID, j.AcceptedBidID, j.DeliveryURL, j.DeliveryNote, j.RejectionReason, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать задание")
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	var row jobRow
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить задание")
	}
	return row.toEntity(), nil
}

func (r *JobRepository) List(ctx context.Context, f repository.JobFilter) ([]*entity.Job, int, error) {
	var c conditions
	if f.CreatorID != nil {
		c.add("creator_id = $%d", *f.CreatorID)
	}
	if f.WorkerID != nil {
		c.add("worker_id = $%d", *f.WorkerID)
	}
	if f.Status != "" {
		c.add("status = $%d", f.Status)
	}
	if f.Search != "" {
		c.add("title ILIKE $%d", "%"+f.Search+"%")
	}
	if f.BudgetMin != nil {
		c.add("budget >= $%d", *f.BudgetMin)
	}
	if f.BudgetMax != nil {
		c.add("budget <= $%d", *f.BudgetMax)
	}

	q := executor(ctx, r.db)
	var total int
	if err := sqlx.GetContext(ctx, q, &total, `SELECT COUNT(*) FROM jobs`+c.where(), c.args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать задания")
	}

	tail, args := c.page(f.Limit, f.Offset)
	var rows []jobRow
	query := `SELECT ` + jobColumns + ` FROM jobs` + c.where() + ` ORDER BY created_at DESC` + tail
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить задания")
	}

	result := make([]*entity.Job, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toEntity())
	}
	return result, total, nil
}

// UpdateState пишет статус и поля исполнения, если в базе всё ещё expected.
func (r *JobRepository) UpdateState(ctx context.Context, j *entity.Job, expected valueobject.JobStatus) error {
	query := `
		UPDATE jobs
		SET status = $3, worker_id = $4, accepted_bid_id = $5, delivery_url = $6,
		    delivery_note = $7, rejection_reason = $8, updated_at = $9
		WHERE id = $1 AND status = $2
	`
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		j.ID, string(expected), string(j.Status), j.WorkerID, j.AcceptedBidID,
		j.DeliveryURL, j.DeliveryNote, j.RejectionReason, j.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить задание")
	}
	return requireAffected(res, apperror.ErrStaleState)
}

const bidColumns = `id, job_id, bidder_id, amount, currency, delivery_time, proposal, status, created_at, updated_at`

type bidRow struct {
	ID           uuid.UUID `db:"id"`
	JobID        uuid.UUID `db:"job_id"`
	BidderID     uuid.UUID `db:"bidder_id"`
	Amount       int64     `db:"amount"`
	Currency     string    `db:"currency"`
	DeliveryTime string    `db:"delivery_time"`
	Proposal     string    `db:"proposal"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r bidRow) toEntity() *entity.Bid {
	return &entity.Bid{
		ID:           r.ID,
		JobID:        r.JobID,
		BidderID:     r.BidderID,
		Amount:       valueobject.Money{Amount: r.Amount, Currency: r.Currency},
		DeliveryTime: r.DeliveryTime,
		Proposal:     r.Proposal,
		Status:       valueobject.BidStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type BidRepository struct {
	db *sqlx.DB
}

func NewBidRepository(db *sqlx.DB) *BidRepository {
	return &BidRepository{db: db}
}

// Create уникальный индекс (job_id, bidder_id) превращается в ErrAlreadyBid.
func (r *BidRepository) Create(ctx context.Context, b *entity.Bid) error {
	query := `INSERT INTO bids (` + bidColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		b.ID, b.JobID, b.BidderID, b.Amount.Amount, b.Amount.Currency,
		b.DeliveryTime, b.Proposal, string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrAlreadyBid
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить отклик")
	}
	return nil
}

func (r *BidRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	var row bidRow
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrBidNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отклик")
	}
	return row.toEntity(), nil
}

func (r *BidRepository) FindByJobID(ctx context.Context, jobID uuid.UUID) ([]*entity.Bid, error) {
	return r.selectBids(ctx, `SELECT `+bidColumns+` FROM bids WHERE job_id = $1 ORDER BY created_at DESC`, jobID)
}

func (r *BidRepository) FindByBidderID(ctx context.Context, bidderID uuid.UUID) ([]*entity.Bid, error) {
	return r.selectBids(ctx, `SELECT `+bidColumns+` FROM bids WHERE bidder_id = $1 ORDER BY created_at DESC`, bidderID)
}

func (r *BidRepository) selectBids(ctx context.Context, query string, arg any) ([]*entity.Bid, error) {
	var rows []bidRow
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, arg); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отклики")
	}
	result := make([]*entity.Bid, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toEntity())
	}
	return result, nil
}

// FindByJobAndBidder возвращает nil без ошибки, если отклика нет.
func (r *BidRepository) FindByJobAndBidder(ctx context.Context, jobID, bidderID uuid.UUID) (*entity.Bid, error) {
	var row bidRow
	query := `SELECT ` + bidColumns + ` FROM bids WHERE job_id = $1 AND bidder_id = $2`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, jobID, bidderID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить отклик")
	}
	return row.toEntity(), nil
}

func (r *BidRepository) UpdateStatus(ctx context.Context, b *entity.Bid, expected valueobject.BidStatus) error {
	query := `UPDATE bids SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, b.ID, string(expected), string(b.Status), b.UpdatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить отклик")
	}
	return requireAffected(res, apperror.ErrStaleState)
}

func (r *BidRepository) RejectPendingExcept(ctx context.Context, jobID, keepBidID uuid.UUID) (int64, error) {
	query := `
		UPDATE bids SET status = $4, updated_at = NOW()
		WHERE job_id = $1 AND id <> $2 AND status = $3
	`
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		jobID, keepBidID, string(valueobject.BidStatusPending), string(valueobject.BidStatusRejected))
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось отклонить отклики")
	}
	return res.RowsAffected()
}
