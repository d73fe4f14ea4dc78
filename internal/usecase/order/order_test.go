package order_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/testutil/memstore"
	"github.com/ignatzorin/market-backend/internal/usecase/order"
)

func actor(id uuid.UUID, role valueobject.Role) entity.Actor {
	return entity.Actor{UserID: id, Role: role}
}

func seedListing(t *testing.T, store *memstore.Store, price int64, addOns ...entity.AddOn) *entity.Listing {
	t.Helper()
	l, err := entity.NewListing(uuid.New(), "Иллюстрация для обложки", "Нарисую обложку в вашем стиле", price, "design",
		entity.ListingMetadata{DeliveryDays: 5, AddOns: addOns}, nil)
	require.NoError(t, err)
	store.Listings[l.ID] = l
	return l
}

func TestCreateOrderUseCase_ListingPriceHeldInEscrow(t *testing.T) {
	store := memstore.New()
	listing := seedListing(t, store, 500)
	rec := &memstore.Recorder{}
	uc := order.NewCreateOrderUseCase(store.ListingRepo(), store.OrderRepo(), rec)

	buyer := actor(uuid.New(), valueobject.RoleClient)
	result, err := uc.Execute(context.Background(), buyer, order.CreateOrderInput{ListingID: listing.ID})
	require.NoError(t, err)

	assert.Equal(t, int64(500), result.Amount.Amount)
	assert.Equal(t, valueobject.OrderStatusPending, result.Status)
	assert.Equal(t, valueobject.EscrowHeld, result.EscrowStatus)
	assert.Equal(t, listing.SellerID, result.SellerID)
	assert.Contains(t, store.Orders, result.ID)
	assert.Equal(t, []string{"create"}, rec.Actions())
}

func TestCreateOrderUseCase_Validation(t *testing.T) {
	store := memstore.New()
	listing := seedListing(t, store, 500, entity.AddOn{ID: "source", Title: "Исходники", Price: 300})
	uc := order.NewCreateOrderUseCase(store.ListingRepo(), store.OrderRepo(), &memstore.Recorder{})
	ctx := context.Background()

	_, err := uc.Execute(ctx, actor(uuid.New(), valueobject.RoleNone), order.CreateOrderInput{ListingID: listing.ID})
	assert.ErrorIs(t, err, apperror.ErrRoleRequired)

	_, err = uc.Execute(ctx, actor(uuid.New(), valueobject.RoleClient), order.CreateOrderInput{
		ListingID: listing.ID,
		AddOnIDs:  []string{"missing"},
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = uc.Execute(ctx, actor(listing.SellerID, valueobject.RoleFreelancer), order.CreateOrderInput{ListingID: listing.ID})
	assert.True(t, apperror.IsForbidden(err))

	_, err = uc.Execute(ctx, actor(uuid.New(), valueobject.RoleClient), order.CreateOrderInput{ListingID: uuid.New()})
	assert.True(t, apperror.IsNotFound(err))

	assert.Empty(t, store.Orders)
}

type lifecycle struct {
	store   *memstore.Store
	rec     *memstore.Recorder
	buyer   entity.Actor
	seller  entity.Actor
	orderID uuid.UUID
}

func newPaidOrder(t *testing.T) *lifecycle {
	t.Helper()
	store := memstore.New()
	listing := seedListing(t, store, 500)
	rec := &memstore.Recorder{}
	buyer := actor(uuid.New(), valueobject.RoleClient)

	created, err := order.NewCreateOrderUseCase(store.ListingRepo(), store.OrderRepo(), rec).
		Execute(context.Background(), buyer, order.CreateOrderInput{ListingID: listing.ID})
	require.NoError(t, err)

	// оплату подтверждает вебхук, здесь её имитируем напрямую
	require.NoError(t, store.Orders[created.ID].Pay(buyer.UserID))

	return &lifecycle{
		store:   store,
		rec:     rec,
		buyer:   buyer,
		seller:  actor(listing.SellerID, valueobject.RoleFreelancer),
		orderID: created.ID,
	}
}

func TestOrderLifecycle_RequestChangesThenApprove(t *testing.T) {
	lc := newPaidOrder(t)
	ctx := context.Background()
	submit := order.NewSubmitDeliveryUseCase(lc.store, lc.store.OrderRepo(), lc.rec)
	request := order.NewRequestChangesUseCase(lc.store, lc.store.OrderRepo(), lc.rec)

	delivered, err := submit.Execute(ctx, lc.seller, lc.orderID, order.SubmitDeliveryInput{Content: "первая версия"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusDelivered, delivered.Status)
	assert.Len(t, lc.store.Deliveries[lc.orderID], 1)

	reworked, err := request.Execute(ctx, lc.buyer, lc.orderID, "сделайте фон светлее")
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusPaid, reworked.Status)
	assert.Equal(t, valueobject.EscrowHeld, reworked.EscrowStatus)

	stored := lc.store.Orders[lc.orderID]
	assert.Equal(t, "сделайте фон светлее", stored.Metadata.Feedback)
	assert.Equal(t, 1, stored.Metadata.RevisionCount)

	_, err = submit.Execute(ctx, lc.seller, lc.orderID, order.SubmitDeliveryInput{Content: "вторая версия"})
	require.NoError(t, err)
	assert.Len(t, lc.store.Deliveries[lc.orderID], 2)

	approved, err := order.NewApproveOrderUseCase(lc.store, lc.store.OrderRepo(), lc.rec).Execute(ctx, lc.buyer, lc.orderID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusCompleted, approved.Status)
	assert.Equal(t, valueobject.EscrowReleased, approved.EscrowStatus)

	assert.Equal(t, []string{"create", "submit_delivery", "request_changes", "submit_delivery", "approve"}, lc.rec.Actions())
}

func TestApproveOrderUseCase_Guards(t *testing.T) {
	lc := newPaidOrder(t)
	ctx := context.Background()
	approve := order.NewApproveOrderUseCase(lc.store, lc.store.OrderRepo(), lc.rec)

	_, err := approve.Execute(ctx, lc.buyer, lc.orderID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
	var transitionErr *valueobject.TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "paid", transitionErr.From)

	_, err = order.NewSubmitDeliveryUseCase(lc.store, lc.store.OrderRepo(), lc.rec).
		Execute(ctx, lc.seller, lc.orderID, order.SubmitDeliveryInput{Content: "готово"})
	require.NoError(t, err)

	_, err = approve.Execute(ctx, lc.seller, lc.orderID)
	assert.True(t, apperror.IsForbidden(err))
	assert.Equal(t, valueobject.OrderStatusDelivered, lc.store.Orders[lc.orderID].Status)
}

func TestCancelOrderUseCase_PaidBySellerOnly(t *testing.T) {
	lc := newPaidOrder(t)
	ctx := context.Background()
	cancel := order.NewCancelOrderUseCase(lc.store, lc.store.OrderRepo(), lc.rec)

	_, err := cancel.Execute(ctx, lc.buyer, lc.orderID, "передумал")
	assert.True(t, apperror.IsForbidden(err))

	cancelled, err := cancel.Execute(ctx, lc.seller, lc.orderID, "не успеваю")
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, valueobject.EscrowRefunded, cancelled.EscrowStatus)
	assert.Equal(t, "не успеваю", lc.store.Orders[lc.orderID].Metadata.CancelReason)
}

func TestHireOrder_ManagedByJob(t *testing.T) {
	store := memstore.New()
	job, err := entity.NewJob(uuid.New(), "Парсер каталога", "Нужен парсер каталога магазина", 40000)
	require.NoError(t, err)
	bid, err := entity.NewBid(job.ID, uuid.New(), 35000, "неделя", "Есть опыт с такими задачами")
	require.NoError(t, err)
	hire, err := entity.NewHireOrder(job.CreatorID, job, bid)
	require.NoError(t, err)
	require.NoError(t, hire.Pay(job.CreatorID))
	store.Orders[hire.ID] = hire

	_, err = order.NewSubmitDeliveryUseCase(store, store.OrderRepo(), invalidation.Nop{}).
		Execute(context.Background(), actor(bid.BidderID, valueobject.RoleFreelancer), hire.ID, order.SubmitDeliveryInput{Content: "готово"})
	assert.True(t, apperror.IsValidation(err))

	_, err = order.NewCancelOrderUseCase(store, store.OrderRepo(), &memstore.Recorder{}).
		Execute(context.Background(), actor(uuid.New(), valueobject.RoleClient), hire.ID, "")
	assert.True(t, apperror.IsForbidden(err))
}

func TestGetOrderUseCase_ReadModel(t *testing.T) {
	lc := newPaidOrder(t)
	ctx := context.Background()
	get := order.NewGetOrderUseCase(lc.store.OrderRepo(), lc.store.ListingRepo(), lc.store.JobRepo())

	full, err := get.Execute(ctx, lc.seller, lc.orderID)
	require.NoError(t, err)
	require.NotNil(t, full.Listing)
	assert.Empty(t, full.Deliveries)

	_, err = get.Execute(ctx, actor(uuid.New(), valueobject.RoleClient), lc.orderID)
	assert.True(t, apperror.IsForbidden(err))

	admin := entity.Actor{UserID: uuid.New(), IsAdmin: true}
	_, err = get.Execute(ctx, admin, lc.orderID)
	assert.NoError(t, err)

	// объявление удалено: отдаём заказ без связанных данных
	delete(lc.store.Listings, *full.ListingID)
	base, err := get.Execute(ctx, lc.buyer, lc.orderID)
	require.NoError(t, err)
	assert.Nil(t, base.Listing)
	assert.Equal(t, lc.orderID, base.ID)
}

func TestListMyOrdersUseCase_Side(t *testing.T) {
	lc := newPaidOrder(t)
	list := order.NewListMyOrdersUseCase(lc.store.OrderRepo())

	orders, total, err := list.Execute(context.Background(), lc.seller, repository.OrderFilter{Side: "seller"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, orders, 1)

	orders, _, err = list.Execute(context.Background(), lc.seller, repository.OrderFilter{Side: "buyer"})
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, _, err = list.Execute(context.Background(), lc.seller, repository.OrderFilter{Side: "admin"})
	assert.True(t, apperror.IsValidation(err))
}
