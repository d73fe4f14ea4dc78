package review

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

type SubmitReviewInput struct {
	ParentKind entity.ReviewParentKind
	ParentID   uuid.UUID
	Rating     int
	Comment    string
}

type SubmitReviewUseCase struct {
	reviewRepo repository.ReviewRepository
	orderRepo  repository.OrderRepository
	jobRepo    repository.JobRepository
	notifier   invalidation.Notifier
}

func NewSubmitReviewUseCase(reviewRepo repository.ReviewRepository, orderRepo repository.OrderRepository, jobRepo repository.JobRepository, notifier invalidation.Notifier) *SubmitReviewUseCase {
	return &SubmitReviewUseCase{reviewRepo: reviewRepo, orderRepo: orderRepo, jobRepo: jobRepo, notifier: notifier}
}

// Execute отзыв после завершения заказа или задания. Оценка проверяется до любых обращений к хранилищу.
func (uc *SubmitReviewUseCase) Execute(ctx context.Context, actor entity.Actor, input SubmitReviewInput) (*entity.Review, error) {
	if err := entity.ValidateRating(input.Rating); err != nil {
		return nil, err
	}
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	revieweeID, err := uc.resolveReviewee(ctx, actor.UserID, input.ParentKind, input.ParentID)
	if err != nil {
		return nil, err
	}

	exists, err := uc.reviewRepo.Exists(ctx, input.ParentKind, input.ParentID, actor.UserID)
	if err != nil {
		return nil, apperror.Database(err, "не удалось проверить отзывы")
	}
	if exists {
		return nil, apperror.ErrAlreadyReviewed
	}

	r, err := entity.NewReview(input.ParentKind, input.ParentID, actor.UserID, revieweeID, input.Rating, input.Comment)
	if err != nil {
		return nil, err
	}
	if err := uc.reviewRepo.Create(ctx, r); err != nil {
		return nil, apperror.Database(err, "не удалось сохранить отзыв")
	}

	uc.notifier.Notify(ctx, invalidation.Signal{
		Entity:   "review",
		EntityID: r.ID,
		Action:   "create",
		Paths:    []string{"/api/users/" + revieweeID.String()},
		UserIDs:  []uuid.UUID{revieweeID},
	})
	return r, nil
}

// resolveReviewee проверяет, что родитель завершён и автор его участник; возвращает вторую сторону.
func (uc *SubmitReviewUseCase) resolveReviewee(ctx context.Context, reviewerID uuid.UUID, kind entity.ReviewParentKind, parentID uuid.UUID) (uuid.UUID, error) {
	switch kind {
	case entity.ReviewParentOrder:
		o, err := uc.orderRepo.FindByID(ctx, parentID)
		if err != nil {
			return uuid.Nil, err
		}
		if !o.IsParticipant(reviewerID) {
			return uuid.Nil, apperror.New(apperror.ErrCodeForbidden, "вы не участник этого заказа")
		}
		if o.Status != valueobject.OrderStatusCompleted {
			return uuid.Nil, apperror.New(apperror.ErrCodeInvalidState, "отзыв можно оставить только после завершения заказа")
		}
		if o.IsBuyer(reviewerID) {
			return o.SellerID, nil
		}
		return o.BuyerID, nil

	case entity.ReviewParentJob:
		j, err := uc.jobRepo.FindByID(ctx, parentID)
		if err != nil {
			return uuid.Nil, err
		}
		if !j.IsParticipant(reviewerID) {
			return uuid.Nil, apperror.New(apperror.ErrCodeForbidden, "вы не участник этого задания")
		}
		if j.Status != valueobject.JobStatusCompleted {
			return uuid.Nil, apperror.New(apperror.ErrCodeInvalidState, "отзыв можно оставить только после завершения задания")
		}
		if j.IsOwnedBy(reviewerID) {
			return *j.WorkerID, nil
		}
		return j.CreatorID, nil
	}
	return uuid.Nil, apperror.Validation("отзыв можно оставить только к заданию или заказу")
}

type UserReviews struct {
	Reviews []*entity.Review
	Summary entity.RatingSummary
}

type ListUserReviewsUseCase struct {
	reviewRepo repository.ReviewRepository
}

func NewListUserReviewsUseCase(reviewRepo repository.ReviewRepository) *ListUserReviewsUseCase {
	return &ListUserReviewsUseCase{reviewRepo: reviewRepo}
}

func (uc *ListUserReviewsUseCase) Execute(ctx context.Context, userID uuid.UUID, limit, offset int) (*UserReviews, error) {
	reviews, err := uc.reviewRepo.FindByReviewee(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Database(err, "не удалось получить отзывы")
	}
	summary, err := uc.reviewRepo.RatingSummary(ctx, userID)
	if err != nil {
		return nil, apperror.Database(err, "не удалось посчитать рейтинг")
	}
	return &UserReviews{Reviews: reviews, Summary: summary}, nil
}
