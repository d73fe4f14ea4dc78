package review_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/testutil/memstore"
	"github.com/ignatzorin/market-backend/internal/usecase/review"
)

func completedOrder(t *testing.T, store *memstore.Store) *entity.Order {
	t.Helper()
	listing, err := entity.NewListing(uuid.New(), "Настройка рекламы", "Настрою рекламную кампанию под ключ", 20000, "marketing",
		entity.ListingMetadata{}, nil)
	require.NoError(t, err)
	o, err := entity.NewListingOrder(uuid.New(), listing, nil, "")
	require.NoError(t, err)
	require.NoError(t, o.Pay(o.BuyerID))
	_, err = o.SubmitDelivery(o.SellerID, "кампания запущена", nil)
	require.NoError(t, err)
	require.NoError(t, o.Approve(o.BuyerID))
	store.Orders[o.ID] = o
	return o
}

func newUseCase(store *memstore.Store) *review.SubmitReviewUseCase {
	return review.NewSubmitReviewUseCase(store.ReviewRepo(), store.OrderRepo(), store.JobRepo(), &memstore.Recorder{})
}

func TestSubmitReview_RatingOutOfRangeRejectedBeforeWrites(t *testing.T) {
	store := memstore.New()
	o := completedOrder(t, store)

	_, err := newUseCase(store).Execute(context.Background(), entity.Actor{UserID: o.BuyerID}, review.SubmitReviewInput{
		ParentKind: entity.ReviewParentOrder,
		ParentID:   o.ID,
		Rating:     6,
	})
	assert.True(t, apperror.IsValidation(err))
	assert.Zero(t, store.Calls)
	assert.Empty(t, store.Reviews)
}

func TestSubmitReview_DuplicateRejected(t *testing.T) {
	store := memstore.New()
	o := completedOrder(t, store)
	uc := newUseCase(store)
	input := review.SubmitReviewInput{ParentKind: entity.ReviewParentOrder, ParentID: o.ID, Rating: 5, Comment: "отлично"}

	r, err := uc.Execute(context.Background(), entity.Actor{UserID: o.BuyerID}, input)
	require.NoError(t, err)
	assert.Equal(t, o.SellerID, r.RevieweeID)

	_, err = uc.Execute(context.Background(), entity.Actor{UserID: o.BuyerID}, input)
	assert.ErrorIs(t, err, apperror.ErrAlreadyReviewed)
	assert.Contains(t, err.Error(), "already submitted")

	// продавец оставляет свой отзыв независимо
	r, err = uc.Execute(context.Background(), entity.Actor{UserID: o.SellerID}, input)
	require.NoError(t, err)
	assert.Equal(t, o.BuyerID, r.RevieweeID)
}

func TestSubmitReview_ParentMustBeCompleted(t *testing.T) {
	store := memstore.New()
	creator := uuid.New()
	j, err := entity.NewJob(creator, "Верстка письма", "Сверстать email рассылку", 7000)
	require.NoError(t, err)
	store.Jobs[j.ID] = j

	_, err = newUseCase(store).Execute(context.Background(), entity.Actor{UserID: creator}, review.SubmitReviewInput{
		ParentKind: entity.ReviewParentJob,
		ParentID:   j.ID,
		Rating:     4,
	})
	assert.True(t, apperror.IsInvalidState(err))

	_, err = newUseCase(store).Execute(context.Background(), entity.Actor{UserID: uuid.New()}, review.SubmitReviewInput{
		ParentKind: entity.ReviewParentJob,
		ParentID:   j.ID,
		Rating:     4,
	})
	assert.True(t, apperror.IsForbidden(err))
}

func TestSubmitReview_CompletedJob(t *testing.T) {
	store := memstore.New()
	creator := uuid.New()
	j, err := entity.NewJob(creator, "Верстка письма", "Сверстать email рассылку", 7000)
	require.NoError(t, err)
	worker := uuid.New()
	require.NoError(t, j.AssignFromOffer(creator, worker))
	require.NoError(t, j.SubmitDelivery(worker, "https://example.com/mail.html", ""))
	require.NoError(t, j.ApproveDelivery(creator))
	store.Jobs[j.ID] = j
	assert.Equal(t, valueobject.JobStatusCompleted, j.Status)

	r, err := newUseCase(store).Execute(context.Background(), entity.Actor{UserID: worker}, review.SubmitReviewInput{
		ParentKind: entity.ReviewParentJob,
		ParentID:   j.ID,
		Rating:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, creator, r.RevieweeID)

	summary, err := review.NewListUserReviewsUseCase(store.ReviewRepo()).Execute(context.Background(), creator, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Summary.Count)
	assert.InDelta(t, 5.0, summary.Summary.Average, 0.001)
}
