package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
)

type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

type WalletResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	Frozen    int64     `json:"frozen"`
	Available int64     `json:"available"`
	Currency  string    `json:"currency"`
}

type TransactionResponse struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type WalletOperationResponse struct {
	Wallet      WalletResponse      `json:"wallet"`
	Transaction TransactionResponse `json:"transaction"`
}

type UploadResponse struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func ToWalletResponse(w *entity.Wallet) WalletResponse {
	return WalletResponse{
		UserID:    w.UserID,
		Balance:   w.Balance,
		Frozen:    w.Frozen,
		Available: w.Available(),
		Currency:  w.Currency,
	}
}

func ToTransactionResponse(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        t.ID,
		Type:      string(t.Type),
		Status:    string(t.Status),
		Amount:    t.Amount,
		CreatedAt: t.CreatedAt,
	}
}

func ToTransactionResponses(txs []*entity.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		responses = append(responses, ToTransactionResponse(t))
	}
	return responses
}
