package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

type walletRow struct {
	UserID    uuid.UUID `db:"user_id"`
	Balance   int64     `db:"balance"`
	Frozen    int64     `db:"frozen"`
	Currency  string    `db:"currency"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r walletRow) toEntity() *entity.Wallet {
	return &entity.Wallet{
		UserID:    r.UserID,
		Balance:   r.Balance,
		Frozen:    r.Frozen,
		Currency:  r.Currency,
		UpdatedAt: r.UpdatedAt,
	}
}

type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetForUpdate должен вызываться внутри WithinTx: блокировка живёт до конца транзакции.
func (r *WalletRepository) GetForUpdate(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	q := executor(ctx, r.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO wallets (user_id, currency) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		userID, valueobject.DefaultCurrency)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать кошелёк")
	}

	var row walletRow
	query := `SELECT user_id, balance, frozen, currency, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE`
	if err := sqlx.GetContext(ctx, q, &row, query, userID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось заблокировать кошелёк")
	}
	return row.toEntity(), nil
}

// Get отсутствующий кошелёк возвращается пустым без записи в базу.
func (r *WalletRepository) Get(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	var row walletRow
	query := `SELECT user_id, balance, frozen, currency, updated_at FROM wallets WHERE user_id = $1`
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, userID); err != nil {
		if isNoRows(err) {
			return entity.NewWallet(userID), nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить кошелёк")
	}
	return row.toEntity(), nil
}

func (r *WalletRepository) Save(ctx context.Context, w *entity.Wallet) error {
	res, err := executor(ctx, r.db).ExecContext(ctx,
		`UPDATE wallets SET balance = $2, frozen = $3, updated_at = $4 WHERE user_id = $1`,
		w.UserID, w.Balance, w.Frozen, w.UpdatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить кошелёк")
	}
	return requireAffected(res, apperror.ErrWalletNotFound)
}

func (r *WalletRepository) AddTransaction(ctx context.Context, t *entity.Transaction) error {
	query := `
		INSERT INTO wallet_transactions (id, user_id, type, status, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		t.ID, t.UserID, string(t.Type), string(t.Status), t.Amount, t.CreatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось записать операцию")
	}
	return nil
}

func (r *WalletRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	var c conditions
	c.add("user_id = $%d", userID)
	tail, args := c.page(limit, offset)

	var rows []struct {
		ID        uuid.UUID `db:"id"`
		UserID    uuid.UUID `db:"user_id"`
		Type      string    `db:"type"`
		Status    string    `db:"status"`
		Amount    int64     `db:"amount"`
		CreatedAt time.Time `db:"created_at"`
	}
	query := `SELECT id, user_id, type, status, amount, created_at FROM wallet_transactions` +
		c.where() + ` ORDER BY created_at DESC` + tail
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить операции")
	}

	result := make([]*entity.Transaction, 0, len(rows))
	for _, row := range rows {
		result = append(result, &entity.Transaction{
			ID:        row.ID,
			UserID:    row.UserID,
			Type:      entity.TransactionType(row.Type),
			Status:    entity.TransactionStatus(row.Status),
			Amount:    row.Amount,
			CreatedAt: row.CreatedAt,
		})
	}
	return result, nil
}
