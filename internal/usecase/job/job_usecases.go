package job

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

type CreateJobInput struct {
	Title       string
	Description string
	Budget      int64
}

type CreateJobUseCase struct {
	jobRepo  repository.JobRepository
	notifier invalidation.Notifier
}

func NewCreateJobUseCase(jobRepo repository.JobRepository, notifier invalidation.Notifier) *CreateJobUseCase {
	return &CreateJobUseCase{jobRepo: jobRepo, notifier: notifier}
}

func (uc *CreateJobUseCase) Execute(ctx context.Context, actor entity.Actor, input CreateJobInput) (*entity.Job, error) {
	if err := actor.RequireRole(valueobject.RoleClient); err != nil {
		return nil, err
	}

	job, err := entity.NewJob(actor.UserID, input.Title, input.Description, input.Budget)
	if err != nil {
		return nil, err
	}

	if err := uc.jobRepo.Create(ctx, job); err != nil {
		return nil, apperror.Database(err, "не удалось создать задание")
	}

	Record(job, "create")
	uc.notifier.Notify(ctx, Signal(job, "create"))
	return job, nil
}

type GetJobUseCase struct {
	jobRepo repository.JobRepository
}

func NewGetJobUseCase(jobRepo repository.JobRepository) *GetJobUseCase {
	return &GetJobUseCase{jobRepo: jobRepo}
}

func (uc *GetJobUseCase) Execute(ctx context.Context, jobID uuid.UUID) (*entity.Job, error) {
	return uc.jobRepo.FindByID(ctx, jobID)
}

type ListJobsUseCase struct {
	jobRepo repository.JobRepository
}

func NewListJobsUseCase(jobRepo repository.JobRepository) *ListJobsUseCase {
	return &ListJobsUseCase{jobRepo: jobRepo}
}

// Execute публичный список, по умолчанию только открытые задания.
func (uc *ListJobsUseCase) Execute(ctx context.Context, filter repository.JobFilter) ([]*entity.Job, int, error) {
	if filter.Status == "" {
		filter.Status = string(valueobject.JobStatusOpen)
	}
	if _, err := valueobject.NewJobStatus(filter.Status); err != nil {
		return nil, 0, err
	}
	if filter.BudgetMin != nil && filter.BudgetMax != nil && *filter.BudgetMin > *filter.BudgetMax {
		return nil, 0, apperror.Validation("минимальный бюджет больше максимального")
	}
	return uc.jobRepo.List(ctx, filter)
}

type ListMyJobsUseCase struct {
	jobRepo repository.JobRepository
}

func NewListMyJobsUseCase(jobRepo repository.JobRepository) *ListMyJobsUseCase {
	return &ListMyJobsUseCase{jobRepo: jobRepo}
}

// Execute задания, созданные пользователем, или где он исполнитель (asWorker).
func (uc *ListMyJobsUseCase) Execute(ctx context.Context, actor entity.Actor, asWorker bool, limit, offset int) ([]*entity.Job, int, error) {
	if actor.IsAnonymous() {
		return nil, 0, apperror.ErrUnauthorized
	}
	filter := repository.JobFilter{Limit: limit, Offset: offset}
	if asWorker {
		filter.WorkerID = &actor.UserID
	} else {
		filter.CreatorID = &actor.UserID
	}
	return uc.jobRepo.List(ctx, filter)
}

type CancelJobUseCase struct {
	tx       repository.Transactor
	jobRepo  repository.JobRepository
	notifier invalidation.Notifier
}

func NewCancelJobUseCase(tx repository.Transactor, jobRepo repository.JobRepository, notifier invalidation.Notifier) *CancelJobUseCase {
	return &CancelJobUseCase{tx: tx, jobRepo: jobRepo, notifier: notifier}
}

func (uc *CancelJobUseCase) Execute(ctx context.Context, actor entity.Actor, jobID uuid.UUID) (*entity.Job, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	var job *entity.Job
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		job, err = uc.jobRepo.FindByID(ctx, jobID)
		if err != nil {
			return err
		}
		return ApplyLoaded(ctx, uc.jobRepo, job, func(j *entity.Job) error {
			return j.Cancel(actor.UserID)
		})
	})
	if err != nil {
		return nil, err
	}

	Record(job, string(valueobject.JobActionCancel))
	uc.notifier.Notify(ctx, Signal(job, string(valueobject.JobActionCancel)))
	return job, nil
}
