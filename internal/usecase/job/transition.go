package job

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/metrics"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

// ApplyLoaded применяет переход задания и пишет его условным обновлением. Вызывать внутри транзакции.
func ApplyLoaded(ctx context.Context, jobs repository.JobRepository, job *entity.Job, fn func(j *entity.Job) error) error {
	expected := job.Status
	if err := fn(job); err != nil {
		return err
	}
	if err := jobs.UpdateState(ctx, job, expected); err != nil {
		return apperror.Database(err, "не удалось обновить задание")
	}
	return nil
}

func Record(job *entity.Job, action string) {
	metrics.RecordJobTransition(action, string(job.Status))
}

// Signal сигнал инвалидации для страниц задания.
func Signal(job *entity.Job, action string) invalidation.Signal {
	users := []uuid.UUID{job.CreatorID}
	if job.WorkerID != nil {
		users = append(users, *job.WorkerID)
	}
	return invalidation.Signal{
		Entity:   "job",
		EntityID: job.ID,
		Action:   action,
		Paths:    []string{"/api/jobs", "/api/my/jobs", "/api/my/bids"},
		UserIDs:  users,
	}
}
