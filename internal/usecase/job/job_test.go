package job_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/testutil/memstore"
	"github.com/ignatzorin/market-backend/internal/usecase/job"
)

func client() entity.Actor {
	return entity.Actor{UserID: uuid.New(), Role: valueobject.RoleClient}
}

func freelancer() entity.Actor {
	return entity.Actor{UserID: uuid.New(), Role: valueobject.RoleFreelancer}
}

type fixture struct {
	store *memstore.Store
	rec   *memstore.Recorder
	owner entity.Actor
	job   *entity.Job
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	rec := &memstore.Recorder{}
	owner := client()

	created, err := job.NewCreateJobUseCase(store.JobRepo(), rec).Execute(context.Background(), owner, job.CreateJobInput{
		Title:       "Мобильное приложение",
		Description: "Нужно приложение для записи клиентов",
		Budget:      120000,
	})
	require.NoError(t, err)
	return &fixture{store: store, rec: rec, owner: owner, job: created}
}

func (f *fixture) placeBid(t *testing.T, bidder entity.Actor, amount int64) *entity.Bid {
	t.Helper()
	bid, err := job.NewPlaceBidUseCase(f.store.JobRepo(), f.store.BidRepo(), f.rec).Execute(context.Background(), bidder, job.PlaceBidInput{
		JobID:        f.job.ID,
		Amount:       amount,
		DeliveryTime: "2 недели",
		Proposal:     "Делал похожие приложения на Flutter",
	})
	require.NoError(t, err)
	return bid
}

func (f *fixture) accept(t *testing.T, bid *entity.Bid) {
	t.Helper()
	_, _, err := job.NewAcceptBidUseCase(f.store, f.store.JobRepo(), f.store.BidRepo(), f.rec).
		Execute(context.Background(), f.owner, f.job.ID, bid.ID)
	require.NoError(t, err)
}

func TestCreateJobUseCase_RequiresClientRole(t *testing.T) {
	store := memstore.New()
	uc := job.NewCreateJobUseCase(store.JobRepo(), &memstore.Recorder{})
	input := job.CreateJobInput{Title: "Логотип", Description: "Нужен логотип для кофейни", Budget: 10000}

	_, err := uc.Execute(context.Background(), freelancer(), input)
	assert.True(t, apperror.IsForbidden(err))

	_, err = uc.Execute(context.Background(), entity.Actor{UserID: uuid.New()}, input)
	assert.ErrorIs(t, err, apperror.ErrRoleRequired)

	created, err := uc.Execute(context.Background(), client(), input)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusOpen, created.Status)
}

func TestPlaceBidUseCase_DuplicateRejected(t *testing.T) {
	f := newFixture(t)
	bidder := freelancer()
	f.placeBid(t, bidder, 100000)

	_, err := job.NewPlaceBidUseCase(f.store.JobRepo(), f.store.BidRepo(), f.rec).Execute(context.Background(), bidder, job.PlaceBidInput{
		JobID:        f.job.ID,
		Amount:       90000,
		DeliveryTime: "10 дней",
		Proposal:     "Снизил цену, готов начать сразу",
	})
	assert.ErrorIs(t, err, apperror.ErrAlreadyBid)
	assert.Contains(t, err.Error(), "already bid")
	assert.Len(t, f.store.Bids, 1)
}

func TestPlaceBidUseCase_Guards(t *testing.T) {
	f := newFixture(t)
	uc := job.NewPlaceBidUseCase(f.store.JobRepo(), f.store.BidRepo(), f.rec)
	input := job.PlaceBidInput{JobID: f.job.ID, Amount: 1000, DeliveryTime: "день", Proposal: "Сделаю за один день"}

	_, err := uc.Execute(context.Background(), client(), input)
	assert.True(t, apperror.IsForbidden(err))

	owner := f.owner
	owner.Role = valueobject.RoleFreelancer
	_, err = uc.Execute(context.Background(), owner, input)
	assert.True(t, apperror.IsForbidden(err))

	input.Amount = 0
	_, err = uc.Execute(context.Background(), freelancer(), input)
	assert.True(t, apperror.IsValidation(err))
}

func TestAcceptBidUseCase_LeavesOtherBidsPending(t *testing.T) {
	f := newFixture(t)
	x := f.placeBid(t, freelancer(), 110000)
	y := f.placeBid(t, freelancer(), 100000)

	f.accept(t, x)

	stored := f.store.Jobs[f.job.ID]
	assert.Equal(t, valueobject.JobStatusInProgress, stored.Status)
	assert.Equal(t, x.ID, *stored.AcceptedBidID)
	assert.Equal(t, x.BidderID, *stored.WorkerID)
	assert.Equal(t, valueobject.BidStatusAccepted, f.store.Bids[x.ID].Status)
	assert.Equal(t, valueobject.BidStatusPending, f.store.Bids[y.ID].Status)

	// второй отклик уже не принять: задание не открыто
	_, _, err := job.NewAcceptBidUseCase(f.store, f.store.JobRepo(), f.store.BidRepo(), f.rec).
		Execute(context.Background(), f.owner, f.job.ID, y.ID)
	assert.True(t, apperror.IsInvalidState(err))
	assert.Equal(t, valueobject.BidStatusPending, f.store.Bids[y.ID].Status)
}

func TestAcceptBidUseCase_OnlyCreator(t *testing.T) {
	f := newFixture(t)
	bid := f.placeBid(t, freelancer(), 110000)

	_, _, err := job.NewAcceptBidUseCase(f.store, f.store.JobRepo(), f.store.BidRepo(), f.rec).
		Execute(context.Background(), client(), f.job.ID, bid.ID)
	assert.True(t, apperror.IsForbidden(err))
	assert.Equal(t, valueobject.JobStatusOpen, f.store.Jobs[f.job.ID].Status)
}

func TestJobDelivery_ReviewFlow(t *testing.T) {
	f := newFixture(t)
	worker := freelancer()
	f.accept(t, f.placeBid(t, worker, 110000))
	ctx := context.Background()

	submit := job.NewSubmitJobDeliveryUseCase(f.store, f.store.JobRepo(), f.store.OrderRepo(), f.rec)
	review := job.NewReviewJobDeliveryUseCase(f.store, f.store.JobRepo(), f.store.OrderRepo(), f.rec)

	_, err := submit.Execute(ctx, f.owner, f.job.ID, job.SubmitJobDeliveryInput{URL: "https://example.com/build"})
	assert.True(t, apperror.IsForbidden(err))

	submitted, err := submit.Execute(ctx, worker, f.job.ID, job.SubmitJobDeliveryInput{URL: "https://example.com/build"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusUnderReview, submitted.Status)

	_, err = review.Execute(ctx, f.owner, f.job.ID, job.ReviewJobDeliveryInput{Approve: false})
	assert.True(t, apperror.IsValidation(err))

	rejected, err := review.Execute(ctx, f.owner, f.job.ID, job.ReviewJobDeliveryInput{Reason: "не работает вход"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusInProgress, rejected.Status)
	assert.Equal(t, "не работает вход", *f.store.Jobs[f.job.ID].RejectionReason)

	_, err = submit.Execute(ctx, worker, f.job.ID, job.SubmitJobDeliveryInput{Note: "починил вход"})
	require.NoError(t, err)

	approved, err := review.Execute(ctx, f.owner, f.job.ID, job.ReviewJobDeliveryInput{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusCompleted, approved.Status)
	assert.Nil(t, f.store.Jobs[f.job.ID].RejectionReason)
}

func TestReviewJobDelivery_OpenJobCannotComplete(t *testing.T) {
	f := newFixture(t)

	_, err := job.NewReviewJobDeliveryUseCase(f.store, f.store.JobRepo(), f.store.OrderRepo(), f.rec).
		Execute(context.Background(), f.owner, f.job.ID, job.ReviewJobDeliveryInput{Approve: true})
	assert.True(t, apperror.IsInvalidState(err))
	assert.Equal(t, valueobject.JobStatusOpen, f.store.Jobs[f.job.ID].Status)
}

func TestJobDelivery_MovesLinkedHireOrder(t *testing.T) {
	f := newFixture(t)
	worker := freelancer()
	bid := f.placeBid(t, worker, 110000)

	hire, err := entity.NewHireOrder(f.owner.UserID, f.store.Jobs[f.job.ID], f.store.Bids[bid.ID])
	require.NoError(t, err)
	require.NoError(t, hire.Pay(f.owner.UserID))
	f.store.Orders[hire.ID] = hire
	f.accept(t, bid)

	ctx := context.Background()
	_, err = job.NewSubmitJobDeliveryUseCase(f.store, f.store.JobRepo(), f.store.OrderRepo(), f.rec).
		Execute(ctx, worker, f.job.ID, job.SubmitJobDeliveryInput{URL: "https://example.com/app.apk", Note: "готово"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusDelivered, f.store.Orders[hire.ID].Status)
	require.Len(t, f.store.Deliveries[hire.ID], 1)
	assert.Equal(t, "готово", f.store.Deliveries[hire.ID][0].Content)

	_, err = job.NewReviewJobDeliveryUseCase(f.store, f.store.JobRepo(), f.store.OrderRepo(), f.rec).
		Execute(ctx, f.owner, f.job.ID, job.ReviewJobDeliveryInput{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusCompleted, f.store.Orders[hire.ID].Status)
	assert.Equal(t, valueobject.EscrowReleased, f.store.Orders[hire.ID].EscrowStatus)
}

func TestJobDelivery_IgnoresPaidOrderOfAnotherBid(t *testing.T) {
	f := newFixture(t)
	x := f.placeBid(t, freelancer(), 110000)
	workerY := freelancer()
	y := f.placeBid(t, workerY, 100000)

	// оплата найма X пришла, но исполнителем уже выбран Y
	stray, err := entity.NewHireOrder(f.owner.UserID, f.store.Jobs[f.job.ID], f.store.Bids[x.ID])
	require.NoError(t, err)
	require.NoError(t, stray.Pay(f.owner.UserID))
	f.store.Orders[stray.ID] = stray
	f.accept(t, y)

	submitted, err := job.NewSubmitJobDeliveryUseCase(f.store, f.store.JobRepo(), f.store.OrderRepo(), f.rec).
		Execute(context.Background(), workerY, f.job.ID, job.SubmitJobDeliveryInput{URL: "https://example.com/app.apk"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusUnderReview, submitted.Status)
	assert.Equal(t, valueobject.OrderStatusPaid, f.store.Orders[stray.ID].Status)
	assert.Empty(t, f.store.Deliveries[stray.ID])
}

func TestJobDelivery_PicksPaidOrderAmongRetries(t *testing.T) {
	f := newFixture(t)
	worker := freelancer()
	bid := f.placeBid(t, worker, 110000)

	paid, err := entity.NewHireOrder(f.owner.UserID, f.store.Jobs[f.job.ID], f.store.Bids[bid.ID])
	require.NoError(t, err)
	require.NoError(t, paid.Pay(f.owner.UserID))
	f.store.Orders[paid.ID] = paid

	// более поздняя неоплаченная попытка не должна заслонять оплаченный заказ
	retry, err := entity.NewHireOrder(f.owner.UserID, f.store.Jobs[f.job.ID], f.store.Bids[bid.ID])
	require.NoError(t, err)
	retry.CreatedAt = paid.CreatedAt.Add(time.Minute)
	f.store.Orders[retry.ID] = retry
	f.accept(t, bid)

	ctx := context.Background()
	_, err = job.NewSubmitJobDeliveryUseCase(f.store, f.store.JobRepo(), f.store.OrderRepo(), f.rec).
		Execute(ctx, worker, f.job.ID, job.SubmitJobDeliveryInput{Note: "готово"})
	require.NoError(t, err)
	_, err = job.NewReviewJobDeliveryUseCase(f.store, f.store.JobRepo(), f.store.OrderRepo(), f.rec).
		Execute(ctx, f.owner, f.job.ID, job.ReviewJobDeliveryInput{Approve: true})
	require.NoError(t, err)

	assert.Equal(t, valueobject.OrderStatusCompleted, f.store.Orders[paid.ID].Status)
	assert.Equal(t, valueobject.EscrowReleased, f.store.Orders[paid.ID].EscrowStatus)
	assert.Equal(t, valueobject.OrderStatusPending, f.store.Orders[retry.ID].Status)
}

func TestListBidsUseCase_Visibility(t *testing.T) {
	f := newFixture(t)
	a, b := freelancer(), freelancer()
	f.placeBid(t, a, 100000)
	f.placeBid(t, b, 105000)
	uc := job.NewListBidsUseCase(f.store.JobRepo(), f.store.BidRepo())

	all, err := uc.Execute(context.Background(), f.owner, f.job.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := uc.Execute(context.Background(), a, f.job.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, a.UserID, own[0].BidderID)
}

func TestListJobsUseCase_DefaultsToOpen(t *testing.T) {
	f := newFixture(t)
	_, err := job.NewCancelJobUseCase(f.store, f.store.JobRepo(), f.rec).Execute(context.Background(), f.owner, f.job.ID)
	require.NoError(t, err)
	newFixtureJob, err := job.NewCreateJobUseCase(f.store.JobRepo(), f.rec).Execute(context.Background(), f.owner, job.CreateJobInput{
		Title: "Второе задание", Description: "Описание второго задания", Budget: 5000,
	})
	require.NoError(t, err)

	jobs, total, err := job.NewListJobsUseCase(f.store.JobRepo()).Execute(context.Background(), repository.JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, newFixtureJob.ID, jobs[0].ID)

	_, _, err = job.NewListJobsUseCase(f.store.JobRepo()).Execute(context.Background(), repository.JobFilter{Status: "archived"})
	assert.True(t, apperror.IsValidation(err))
}
