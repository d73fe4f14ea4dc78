package listing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/testutil/memstore"
	"github.com/ignatzorin/market-backend/internal/usecase/listing"
)

var input = listing.ListingInput{
	Title:       "Дизайн лендинга",
	Description: "Сделаю дизайн лендинга в Figma за три дня",
	Price:       25000,
	Category:    "design",
	Metadata: entity.ListingMetadata{
		DeliveryDays: 3,
		AddOns:       []entity.AddOn{{ID: "mobile", Title: "Мобильная версия", Price: 5000}},
	},
}

func seller() entity.Actor {
	return entity.Actor{UserID: uuid.New(), Role: valueobject.RoleFreelancer}
}

func create(t *testing.T, store *memstore.Store, actor entity.Actor) *entity.Listing {
	t.Helper()
	l, err := listing.NewCreateListingUseCase(store.ListingRepo(), &memstore.Recorder{}).Execute(context.Background(), actor, input)
	require.NoError(t, err)
	return l
}

func TestCreateListing_RequiresFreelancer(t *testing.T) {
	store := memstore.New()
	uc := listing.NewCreateListingUseCase(store.ListingRepo(), &memstore.Recorder{})

	_, err := uc.Execute(context.Background(), entity.Actor{UserID: uuid.New(), Role: valueobject.RoleClient}, input)
	assert.True(t, apperror.IsForbidden(err))

	l, err := uc.Execute(context.Background(), seller(), input)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ListingStatusActive, l.Status)
	assert.Equal(t, int64(25000), l.Price.Amount)
}

func TestUpdateListing_OwnerOnlyAndBannedLocked(t *testing.T) {
	store := memstore.New()
	owner := seller()
	l := create(t, store, owner)
	uc := listing.NewUpdateListingUseCase(store.ListingRepo(), &memstore.Recorder{})

	changed := input
	changed.Price = 30000
	_, err := uc.Execute(context.Background(), seller(), l.ID, changed)
	assert.True(t, apperror.IsForbidden(err))

	updated, err := uc.Execute(context.Background(), owner, l.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), updated.Price.Amount)

	store.Listings[l.ID].Status = valueobject.ListingStatusBanned
	_, err = uc.Execute(context.Background(), owner, l.ID, changed)
	assert.True(t, apperror.IsForbidden(err))
}

func TestGetListing_HiddenForStrangers(t *testing.T) {
	store := memstore.New()
	owner := seller()
	l := create(t, store, owner)
	store.Listings[l.ID].Status = valueobject.ListingStatusArchived
	uc := listing.NewGetListingUseCase(store.ListingRepo())

	_, err := uc.Execute(context.Background(), entity.Actor{}, l.ID)
	assert.True(t, apperror.IsNotFound(err))

	got, err := uc.Execute(context.Background(), owner, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)

	_, err = uc.Execute(context.Background(), entity.Actor{UserID: uuid.New(), IsAdmin: true}, l.ID)
	assert.NoError(t, err)
}

func TestListListings_OnlyActive(t *testing.T) {
	store := memstore.New()
	owner := seller()
	active := create(t, store, owner)
	hidden := create(t, store, owner)
	store.Listings[hidden.ID].Status = valueobject.ListingStatusBanned

	items, total, err := listing.NewListListingsUseCase(store.ListingRepo()).
		Execute(context.Background(), repository.ListingFilter{Status: "banned"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, active.ID, items[0].ID)

	mine, total, err := listing.NewListMyListingsUseCase(store.ListingRepo()).
		Execute(context.Background(), owner, repository.ListingFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, mine, 2)
}

func TestModerateListing_AdminOnly(t *testing.T) {
	store := memstore.New()
	l := create(t, store, seller())
	rec := &memstore.Recorder{}
	uc := listing.NewModerateListingUseCase(store.ListingRepo(), rec)

	_, err := uc.Execute(context.Background(), seller(), l.ID, "banned")
	assert.True(t, apperror.IsForbidden(err))

	admin := entity.Actor{UserID: uuid.New(), IsAdmin: true}
	_, err = uc.Execute(context.Background(), admin, l.ID, "deleted")
	assert.True(t, apperror.IsValidation(err))

	moderated, err := uc.Execute(context.Background(), admin, l.ID, "banned")
	require.NoError(t, err)
	assert.Equal(t, valueobject.ListingStatusBanned, moderated.Status)
	assert.Equal(t, []string{"moderate"}, rec.Actions())
}

func TestDeleteListing_ArchivesWhenReferenced(t *testing.T) {
	store := memstore.New()
	owner := seller()
	free := create(t, store, owner)
	used := create(t, store, owner)
	store.Referenced[used.ID] = true
	uc := listing.NewDeleteListingUseCase(store.ListingRepo(), &memstore.Recorder{})

	_, err := uc.Execute(context.Background(), seller(), free.ID)
	assert.True(t, apperror.IsForbidden(err))

	archived, err := uc.Execute(context.Background(), owner, free.ID)
	require.NoError(t, err)
	assert.False(t, archived)
	assert.NotContains(t, store.Listings, free.ID)

	archived, err = uc.Execute(context.Background(), owner, used.ID)
	require.NoError(t, err)
	assert.True(t, archived)
	assert.Equal(t, valueobject.ListingStatusArchived, store.Listings[used.ID].Status)
}
