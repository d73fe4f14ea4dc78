package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/db"
	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

// Тесты работают с настоящим PostgreSQL: TEST_DATABASE_URL=postgres://... go test ./...
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}

	ctx := context.Background()
	conn, err := db.NewPostgres(ctx, dsn, db.PoolConfig{MaxOpenConns: 5, MaxIdleConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.RunMigrations(ctx, conn, filepath.Join("..", "..", "..", "migrations")))
	return conn
}

func createUser(t *testing.T, conn *sqlx.DB, role valueobject.Role) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	u := &entity.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewUserRepository(conn).Create(ctx, u))

	p := entity.NewProfile(u.ID, "user")
	require.NoError(t, NewProfileRepository(conn).Create(ctx, p))
	if role != valueobject.RoleNone {
		require.NoError(t, p.ChooseRole(role))
		require.NoError(t, NewProfileRepository(conn).SetRole(ctx, p))
	}
	return u.ID
}

func TestPostgres_BidUniquenessAndConditionalHire(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	jobs, bids := NewJobRepository(conn), NewBidRepository(conn)

	client := createUser(t, conn, valueobject.RoleClient)
	worker := createUser(t, conn, valueobject.RoleFreelancer)

	job, err := entity.NewJob(client, "Интеграция платежей", "Подключить оплату картой к магазину", 80000)
	require.NoError(t, err)
	require.NoError(t, jobs.Create(ctx, job))

	bid, err := entity.NewBid(job.ID, worker, 75000, "7 дней", "Делал такие интеграции много раз")
	require.NoError(t, err)
	require.NoError(t, bids.Create(ctx, bid))

	dup, _ := entity.NewBid(job.ID, worker, 70000, "5 дней", "Могу дешевле и быстрее, чем раньше")
	assert.ErrorIs(t, bids.Create(ctx, dup), apperror.ErrAlreadyBid)

	tx := NewTransactor(conn)
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, job.AcceptBid(client, bid))
		if err := jobs.UpdateState(ctx, job, valueobject.JobStatusOpen); err != nil {
			return err
		}
		return bids.UpdateStatus(ctx, bid, valueobject.BidStatusPending)
	})
	require.NoError(t, err)

	// второй переход из open уже не проходит
	assert.ErrorIs(t, jobs.UpdateState(ctx, job, valueobject.JobStatusOpen), apperror.ErrStaleState)

	stored, err := jobs.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusInProgress, stored.Status)
	assert.Equal(t, worker, *stored.WorkerID)
}

func TestPostgres_ListingDeleteReferenced(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	listings, orders := NewListingRepository(conn), NewOrderRepository(conn)

	seller := createUser(t, conn, valueobject.RoleFreelancer)
	buyer := createUser(t, conn, valueobject.RoleClient)

	l, err := entity.NewListing(seller, "Логотип за день", "Нарисую логотип в трёх вариантах", 500, "design",
		entity.ListingMetadata{DeliveryDays: 1, AddOns: []entity.AddOn{{ID: "src", Title: "Исходники", Price: 200}}}, nil)
	require.NoError(t, err)
	require.NoError(t, listings.Create(ctx, l))

	o, err := entity.NewListingOrder(buyer, l, []string{"src"}, "минимализм")
	require.NoError(t, err)
	require.NoError(t, orders.Create(ctx, o))

	assert.ErrorIs(t, listings.Delete(ctx, l.ID), repository.ErrReferenced)

	loaded, err := orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(700), loaded.Amount.Amount)
	assert.Equal(t, "src", loaded.Metadata.AddOns[0].ID)
}

func TestPostgres_ReviewUniqueAndWalletLock(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	a := createUser(t, conn, valueobject.RoleClient)
	b := createUser(t, conn, valueobject.RoleFreelancer)
	job, _ := entity.NewJob(a, "Перевод сайта", "Перевести сайт на английский язык", 20000)
	require.NoError(t, NewJobRepository(conn).Create(ctx, job))

	reviews := NewReviewRepository(conn)
	rv, err := entity.NewReview(entity.ReviewParentJob, job.ID, a, b, 5, "")
	require.NoError(t, err)
	require.NoError(t, reviews.Create(ctx, rv))
	again, _ := entity.NewReview(entity.ReviewParentJob, job.ID, a, b, 4, "")
	assert.ErrorIs(t, reviews.Create(ctx, again), apperror.ErrAlreadyReviewed)

	wallets := NewWalletRepository(conn)
	err = NewTransactor(conn).WithinTx(ctx, func(ctx context.Context) error {
		w, err := wallets.GetForUpdate(ctx, a)
		if err != nil {
			return err
		}
		txn, err := w.Deposit(1500)
		if err != nil {
			return err
		}
		if err := wallets.Save(ctx, w); err != nil {
			return err
		}
		return wallets.AddTransaction(ctx, txn)
	})
	require.NoError(t, err)

	w, err := wallets.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), w.Balance)
}
