package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/entity"
)

type WalletRepository interface {
	// GetForUpdate блокирует строку кошелька до конца транзакции, создавая её при отсутствии.
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error)
	Get(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error)
	Save(ctx context.Context, wallet *entity.Wallet) error
	AddTransaction(ctx context.Context, tx *entity.Transaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Transaction, error)
}
