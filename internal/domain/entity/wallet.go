package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

type Wallet struct {
	UserID    uuid.UUID
	Balance   int64
	Frozen    int64
	Currency  string
	UpdatedAt time.Time
}

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionPending   TransactionStatus = "pending"
)

// Transaction строка журнала операций кошелька. Журнал только пополняется.
type Transaction struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      TransactionType
	Status    TransactionStatus
	Amount    int64
	CreatedAt time.Time
}

func NewWallet(userID uuid.UUID) *Wallet {
	return &Wallet{
		UserID:    userID,
		Currency:  valueobject.DefaultCurrency,
		UpdatedAt: time.Now(),
	}
}

func (w *Wallet) Available() int64 {
	return w.Balance - w.Frozen
}

func (w *Wallet) Deposit(amount int64) (*Transaction, error) {
	if _, err := valueobject.NewPositiveMoney(amount); err != nil {
		return nil, err
	}
	if w.Balance+amount > valueobject.MaxAmount {
		return nil, apperror.Validation("превышен лимит баланса")
	}
	w.Balance += amount
	w.UpdatedAt = time.Now()
	return w.newTransaction(TransactionDeposit, TransactionCompleted, amount), nil
}

// Withdraw замораживает сумму до ручной выплаты.
func (w *Wallet) Withdraw(amount int64) (*Transaction, error) {
	if _, err := valueobject.NewPositiveMoney(amount); err != nil {
		return nil, err
	}
	if amount > w.Available() {
		return nil, apperror.ErrInsufficientFund
	}
	w.Frozen += amount
	w.UpdatedAt = time.Now()
	return w.newTransaction(TransactionWithdrawal, TransactionPending, amount), nil
}

func (w *Wallet) newTransaction(kind TransactionType, status TransactionStatus, amount int64) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		UserID:    w.UserID,
		Type:      kind,
		Status:    status,
		Amount:    amount,
		CreatedAt: w.UpdatedAt,
	}
}
