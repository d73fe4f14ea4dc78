package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

func newTestJob(t *testing.T) *Job {
	t.Helper()
	job, err := NewJob(uuid.New(), "Лендинг на Go", "Нужен простой лендинг с формой заявки", 30000)
	require.NoError(t, err)
	return job
}

func TestJob_AcceptBidAssignsWorker(t *testing.T) {
	job := newTestJob(t)
	bid, err := NewBid(job.ID, uuid.New(), 25000, "5 дней", "Сделаю быстро и аккуратно")
	require.NoError(t, err)

	assert.True(t, apperror.IsForbidden(job.AcceptBid(bid.BidderID, bid)))

	require.NoError(t, job.AcceptBid(job.CreatorID, bid))
	assert.Equal(t, valueobject.JobStatusInProgress, job.Status)
	assert.Equal(t, bid.ID, *job.AcceptedBidID)
	assert.True(t, job.IsWorker(bid.BidderID))
	assert.Equal(t, valueobject.BidStatusAccepted, bid.Status)
}

func TestJob_DeliveryReview(t *testing.T) {
	job := newTestJob(t)
	bid, _ := NewBid(job.ID, uuid.New(), 25000, "5 дней", "Сделаю быстро и аккуратно")
	require.NoError(t, job.AcceptBid(job.CreatorID, bid))

	require.NoError(t, job.SubmitDelivery(bid.BidderID, "https://example.com/site", ""))
	assert.Equal(t, valueobject.JobStatusUnderReview, job.Status)

	assert.True(t, apperror.IsValidation(job.RejectDelivery(job.CreatorID, "  ")))
	require.NoError(t, job.RejectDelivery(job.CreatorID, "нет формы"))
	assert.Equal(t, valueobject.JobStatusInProgress, job.Status)
	assert.Equal(t, "нет формы", *job.RejectionReason)

	require.NoError(t, job.SubmitDelivery(bid.BidderID, "https://example.com/site", "добавил форму"))
	require.NoError(t, job.ApproveDelivery(job.CreatorID))
	assert.Equal(t, valueobject.JobStatusCompleted, job.Status)
	assert.Nil(t, job.RejectionReason)
}

func TestJob_SubmitDeliveryRejectsBadLink(t *testing.T) {
	job := newTestJob(t)
	bid, _ := NewBid(job.ID, uuid.New(), 25000, "5 дней", "Сделаю быстро и аккуратно")
	require.NoError(t, job.AcceptBid(job.CreatorID, bid))

	for _, link := range []string{"javascript:alert(1)", "ftp://example.com/site.zip", "https://"} {
		err := job.SubmitDelivery(bid.BidderID, link, "готово")
		assert.True(t, apperror.IsValidation(err), link)
	}
	assert.Equal(t, valueobject.JobStatusInProgress, job.Status)
	assert.Nil(t, job.DeliveryURL)
}

func TestJob_CannotApproveFromOpen(t *testing.T) {
	job := newTestJob(t)

	err := job.ApproveDelivery(job.CreatorID)
	assert.True(t, apperror.IsInvalidState(err))
	assert.Equal(t, valueobject.JobStatusOpen, job.Status)
}

func TestJob_AssignFromOffer(t *testing.T) {
	job := newTestJob(t)
	acceptor := uuid.New()

	assert.True(t, apperror.IsForbidden(job.AssignFromOffer(uuid.New(), acceptor)))
	require.NoError(t, job.AssignFromOffer(job.CreatorID, acceptor))
	assert.True(t, job.IsWorker(acceptor))

	err := job.AssignFromOffer(job.CreatorID, uuid.New())
	assert.True(t, apperror.IsInvalidState(err))
}

func TestMessage_OfferResolution(t *testing.T) {
	sender := uuid.New()
	msg, err := NewMessage(uuid.New(), sender, "", &Offer{JobID: uuid.New(), Amount: 1000})
	require.NoError(t, err)
	assert.Equal(t, valueobject.OfferStatusPending, msg.Offer.Status)

	assert.True(t, apperror.IsForbidden(msg.AcceptOffer(sender)))
	require.NoError(t, msg.AcceptOffer(uuid.New()))
	assert.True(t, apperror.IsInvalidState(msg.RejectOffer(uuid.New())))
}

func TestNewReview_RatingRange(t *testing.T) {
	_, err := NewReview(ReviewParentOrder, uuid.New(), uuid.New(), uuid.New(), 6, "")
	assert.True(t, apperror.IsValidation(err))

	r, err := NewReview(ReviewParentJob, uuid.New(), uuid.New(), uuid.New(), 5, "  супер ")
	require.NoError(t, err)
	assert.NotNil(t, r.JobID)
	assert.Equal(t, "супер", *r.Comment)
}
