package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	List(ctx context.Context, filter JobFilter) ([]*entity.Job, int, error)
	// UpdateState условное обновление статуса и полей исполнения.
	UpdateState(ctx context.Context, job *entity.Job, expected valueobject.JobStatus) error
}

type JobFilter struct {
	CreatorID *uuid.UUID
	WorkerID  *uuid.UUID
	Status    string
	Search    string
	BudgetMin *int64
	BudgetMax *int64
	Limit     int
	Offset    int
}

type BidRepository interface {
	Create(ctx context.Context, bid *entity.Bid) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error)
	FindByJobID(ctx context.Context, jobID uuid.UUID) ([]*entity.Bid, error)
	FindByBidderID(ctx context.Context, bidderID uuid.UUID) ([]*entity.Bid, error)
	FindByJobAndBidder(ctx context.Context, jobID, bidderID uuid.UUID) (*entity.Bid, error)
	UpdateStatus(ctx context.Context, bid *entity.Bid, expected valueobject.BidStatus) error
	// RejectPendingExcept отклоняет все ожидающие отклики задания, кроме указанного.
	RejectPendingExcept(ctx context.Context, jobID, keepBidID uuid.UUID) (int64, error)
}
