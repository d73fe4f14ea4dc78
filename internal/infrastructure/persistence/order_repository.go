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

const orderColumns = `id, buyer_id, seller_id, listing_id, job_id, bid_id, title, amount, currency, status,
	escrow_status, metadata, checkout_session_id, created_at, updated_at`

type orderRow struct {
	ID                uuid.UUID      `db:"id"`
	BuyerID           uuid.UUID      `db:"buyer_id"`
	SellerID          uuid.UUID      `db:"seller_id"`
	ListingID         *uuid.UUID     `db:"listing_id"`
	JobID             *uuid.UUID     `db:"job_id"`
	BidID             *uuid.UUID     `db:"bid_id"`
	Title             string         `db:"title"`
	Amount            int64          `db:"amount"`
	Currency          string         `db:"currency"`
	Status            string         `db:"status"`
	EscrowStatus      string         `db:"escrow_status"`
	Metadata          types.JSONText `db:"metadata"`
	CheckoutSessionID *string        `db:"checkout_session_id"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r orderRow) toEntity() (*entity.Order, error) {
	o := &entity.Order{
		ID:                r.ID,
		BuyerID:           r.BuyerID,
		SellerID:          r.SellerID,
		ListingID:         r.ListingID,
		JobID:             r.JobID,
		BidID:             r.BidID,
		Title:             r.Title,
		Amount:            valueobject.Money{Amount: r.Amount, Currency: r.Currency},
		Status:            valueobject.OrderStatus(r.Status),
		EscrowStatus:      valueobject.EscrowStatus(r.EscrowStatus),
		CheckoutSessionID: r.CheckoutSessionID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if len(r.Metadata) > 0 {
		if err := r.Metadata.Unmarshal(&o.Metadata); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены метаданные заказа")
		}
	}
	return o, nil
}

func marshalOrderMetadata(m entity.OrderMetadata) (types.JSONText, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать метаданные заказа")
	}
	return types.JSONText(b), nil
}

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	meta, err := marshalOrderMetadata(o.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = executor(ctx, r.db).ExecContext(ctx, query,
		o.ID, o.BuyerID, o.SellerID, o.ListingID, o.JobID, o.BidID, o.Title,
		o.Amount.Amount, o.Amount.Currency, string(o.Status), string(o.EscrowStatus),
		meta, o.CheckoutSessionID, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrHirePending
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать заказ")
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var row orderRow
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}
	return row.toEntity()
}

// FindHireOrder последний заказ найма по паре (задание, отклик) в заданном статусе или nil.
func (r *OrderRepository) FindHireOrder(ctx context.Context, jobID, bidID uuid.UUID, status valueobject.OrderStatus) (*entity.Order, error) {
	var row orderRow
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE job_id = $1 AND bid_id = $2 AND status = $3
		ORDER BY created_at DESC LIMIT 1`
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, jobID, bidID, string(status))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ по заданию")
	}
	return row.toEntity()
}

func (r *OrderRepository) FindByParticipant(ctx context.Context, userID uuid.UUID, f repository.OrderFilter) ([]*entity.Order, int, error) {
	var c conditions
	switch f.Side {
	case "buyer":
		c.add("buyer_id = $%d", userID)
	case "seller":
		c.add("seller_id = $%d", userID)
	default:
		c.add("(buyer_id = $%[1]d OR seller_id = $%[1]d)", userID)
	}
	if f.Status != "" {
		c.add("status = $%d", f.Status)
	}

	q := executor(ctx, r.db)
	var total int
	if err := sqlx.GetContext(ctx, q, &total, `SELECT COUNT(*) FROM orders`+c.where(), c.args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать заказы")
	}

	tail, args := c.page(f.Limit, f.Offset)
	var rows []orderRow
	query := `SELECT ` + orderColumns + ` FROM orders` + c.where() + ` ORDER BY created_at DESC` + tail
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказы")
	}

	result := make([]*entity.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.toEntity()
		if err != nil {
			return nil, 0, err
		}
		result = append(result, o)
	}
	return result, total, nil
}

// UpdateState условный переход: WHERE status = expected.
func (r *OrderRepository) UpdateState(ctx context.Context, o *entity.Order, expected valueobject.OrderStatus) error {
	meta, err := marshalOrderMetadata(o.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE orders
		SET status = $3, escrow_status = $4, metadata = $5, updated_at = $6
		WHERE id = $1 AND status = $2
	`
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		o.ID, string(expected), string(o.Status), string(o.EscrowStatus), meta, o.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить заказ")
	}
	return requireAffected(res, apperror.ErrStaleState)
}

func (r *OrderRepository) SetCheckoutSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	res, err := executor(ctx, r.db).ExecContext(ctx,
		`UPDATE orders SET checkout_session_id = $2, updated_at = NOW() WHERE id = $1`, orderID, sessionID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить платёжную сессию")
	}
	return requireAffected(res, apperror.ErrOrderNotFound)
}

type deliveryRow struct {
	ID        uuid.UUID `db:"id"`
	OrderID   uuid.UUID `db:"order_id"`
	Content   string    `db:"content"`
	FileURL   *string   `db:"file_url"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *OrderRepository) AddDelivery(ctx context.Context, d *entity.Delivery) error {
	query := `INSERT INTO deliveries (id, order_id, content, file_url, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, d.ID, d.OrderID, d.Content, d.FileURL, d.CreatedAt); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить сдачу работы")
	}
	return nil
}

func (r *OrderRepository) FindDeliveries(ctx context.Context, orderID uuid.UUID) ([]entity.Delivery, error) {
	var rows []deliveryRow
	query := `SELECT id, order_id, content, file_url, created_at FROM deliveries WHERE order_id = $1 ORDER BY created_at`
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, orderID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сдачи работы")
	}

	result := make([]entity.Delivery, 0, len(rows))
	for _, row := range rows {
		result = append(result, entity.Delivery{
			ID:        row.ID,
			OrderID:   row.OrderID,
			Content:   row.Content,
			FileURL:   row.FileURL,
			CreatedAt: row.CreatedAt,
		})
	}
	return result, nil
}
