package job

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/metrics"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

type PlaceBidInput struct {
	JobID        uuid.UUID
	Amount       int64
	DeliveryTime string
	Proposal     string
}

type PlaceBidUseCase struct {
	jobRepo  repository.JobRepository
	bidRepo  repository.BidRepository
	notifier invalidation.Notifier
}

func NewPlaceBidUseCase(jobRepo repository.JobRepository, bidRepo repository.BidRepository, notifier invalidation.Notifier) *PlaceBidUseCase {
	return &PlaceBidUseCase{jobRepo: jobRepo, bidRepo: bidRepo, notifier: notifier}
}

func (uc *PlaceBidUseCase) Execute(ctx context.Context, actor entity.Actor, input PlaceBidInput) (*entity.Bid, error) {
	if err := actor.RequireRole(valueobject.RoleFreelancer); err != nil {
		return nil, err
	}

	job, err := uc.jobRepo.FindByID(ctx, input.JobID)
	if err != nil {
		return nil, err
	}
	if job.IsOwnedBy(actor.UserID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя откликнуться на собственное задание")
	}
	if job.Status != valueobject.JobStatusOpen {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "задание не принимает отклики")
	}

	existing, err := uc.bidRepo.FindByJobAndBidder(ctx, job.ID, actor.UserID)
	if err != nil {
		return nil, apperror.Database(err, "не удалось проверить отклики")
	}
	if existing != nil {
		return nil, apperror.ErrAlreadyBid
	}

	bid, err := entity.NewBid(job.ID, actor.UserID, input.Amount, input.DeliveryTime, input.Proposal)
	if err != nil {
		return nil, err
	}

	// уникальный индекс (job_id, bidder_id) ловит гонку двух запросов
	if err := uc.bidRepo.Create(ctx, bid); err != nil {
		return nil, apperror.Database(err, "не удалось создать отклик")
	}

	metrics.RecordBid(string(bid.Status))
	uc.notifier.Notify(ctx, bidSignal(job, bid, "create"))
	return bid, nil
}

type ListBidsUseCase struct {
	jobRepo repository.JobRepository
	bidRepo repository.BidRepository
}

func NewListBidsUseCase(jobRepo repository.JobRepository, bidRepo repository.BidRepository) *ListBidsUseCase {
	return &ListBidsUseCase{jobRepo: jobRepo, bidRepo: bidRepo}
}

// Execute автор задания видит все отклики, остальные только свой.
func (uc *ListBidsUseCase) Execute(ctx context.Context, actor entity.Actor, jobID uuid.UUID) ([]*entity.Bid, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	job, err := uc.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	bids, err := uc.bidRepo.FindByJobID(ctx, job.ID)
	if err != nil {
		return nil, apperror.Database(err, "не удалось получить отклики")
	}
	if job.IsOwnedBy(actor.UserID) || actor.IsAdmin {
		return bids, nil
	}

	own := make([]*entity.Bid, 0, 1)
	for _, b := range bids {
		if b.IsOwnedBy(actor.UserID) {
			own = append(own, b)
		}
	}
	return own, nil
}

type ListMyBidsUseCase struct {
	bidRepo repository.BidRepository
}

func NewListMyBidsUseCase(bidRepo repository.BidRepository) *ListMyBidsUseCase {
	return &ListMyBidsUseCase{bidRepo: bidRepo}
}

func (uc *ListMyBidsUseCase) Execute(ctx context.Context, actor entity.Actor) ([]*entity.Bid, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}
	return uc.bidRepo.FindByBidderID(ctx, actor.UserID)
}

type AcceptBidUseCase struct {
	tx       repository.Transactor
	jobRepo  repository.JobRepository
	bidRepo  repository.BidRepository
	notifier invalidation.Notifier
}

func NewAcceptBidUseCase(tx repository.Transactor, jobRepo repository.JobRepository, bidRepo repository.BidRepository, notifier invalidation.Notifier) *AcceptBidUseCase {
	return &AcceptBidUseCase{tx: tx, jobRepo: jobRepo, bidRepo: bidRepo, notifier: notifier}
}

// Execute назначает исполнителя по отклику. Остальные отклики остаются в ожидании.
// TODO: согласовать с наймом по оплате (payment.HandleWebhookUseCase), который отклоняет остальные отклики.
func (uc *AcceptBidUseCase) Execute(ctx context.Context, actor entity.Actor, jobID, bidID uuid.UUID) (*entity.Job, *entity.Bid, error) {
	if actor.IsAnonymous() {
		return nil, nil, apperror.ErrUnauthorized
	}

	var (
		job *entity.Job
		bid *entity.Bid
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if job, err = uc.jobRepo.FindByID(ctx, jobID); err != nil {
			return err
		}
		if bid, err = uc.bidRepo.FindByID(ctx, bidID); err != nil {
			return err
		}
		return Hire(ctx, uc.jobRepo, uc.bidRepo, job, bid, actor.UserID)
	})
	if err != nil {
		return nil, nil, err
	}

	Record(job, string(valueobject.JobActionHire))
	metrics.RecordBid(string(bid.Status))
	uc.notifier.Notify(ctx, bidSignal(job, bid, "accept"))
	return job, bid, nil
}

// Hire переводит задание в работу по отклику: оба обновления условные. Вызывать внутри транзакции.
func Hire(ctx context.Context, jobs repository.JobRepository, bids repository.BidRepository, job *entity.Job, bid *entity.Bid, creatorID uuid.UUID) error {
	expectedBid := bid.Status
	if err := ApplyLoaded(ctx, jobs, job, func(j *entity.Job) error {
		return j.AcceptBid(creatorID, bid)
	}); err != nil {
		return err
	}
	if err := bids.UpdateStatus(ctx, bid, expectedBid); err != nil {
		return apperror.Database(err, "не удалось обновить отклик")
	}
	return nil
}

func bidSignal(job *entity.Job, bid *entity.Bid, action string) invalidation.Signal {
	s := Signal(job, action)
	s.Entity = "bid"
	s.EntityID = bid.ID
	s.UserIDs = append(s.UserIDs, bid.BidderID)
	return s
}
