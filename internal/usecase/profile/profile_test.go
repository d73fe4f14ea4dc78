package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/testutil/memstore"
	"github.com/ignatzorin/market-backend/internal/usecase/profile"
)

func seedUser(store *memstore.Store, email string) uuid.UUID {
	id := uuid.New()
	store.Users[id] = &entity.User{ID: id, Email: email, IsActive: true, CreatedAt: time.Now()}
	return id
}

func TestGetMe_CreatesDefaultProfile(t *testing.T) {
	store := memstore.New()
	id := seedUser(store, "anna.k@example.com")
	uc := profile.NewGetMeUseCase(store.ProfileRepo(), store.UserRepo())

	p, err := uc.Execute(context.Background(), entity.Actor{UserID: id})
	require.NoError(t, err)
	assert.Equal(t, "anna.k", p.DisplayName)
	assert.Equal(t, valueobject.RoleNone, p.Role)
	assert.Contains(t, store.Profiles, id)

	_, err = uc.Execute(context.Background(), entity.Actor{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestDefaultDisplayName(t *testing.T) {
	assert.Equal(t, "ivan", profile.DefaultDisplayName("ivan@example.com"))
	assert.Equal(t, "user", profile.DefaultDisplayName("a@example.com"))
}

func TestChooseRole_OnlyOnce(t *testing.T) {
	store := memstore.New()
	id := seedUser(store, "oleg@example.com")
	store.Profiles[id] = entity.NewProfile(id, "oleg")
	rec := &memstore.Recorder{}
	uc := profile.NewChooseRoleUseCase(store.ProfileRepo(), rec)
	actor := entity.Actor{UserID: id}

	_, err := uc.Execute(context.Background(), actor, "admin")
	assert.True(t, apperror.IsValidation(err))

	p, err := uc.Execute(context.Background(), actor, "freelancer")
	require.NoError(t, err)
	assert.Equal(t, valueobject.RoleFreelancer, p.Role)

	_, err = uc.Execute(context.Background(), actor, "client")
	assert.ErrorIs(t, err, apperror.ErrRoleAlreadySet)
	assert.Equal(t, valueobject.RoleFreelancer, store.Profiles[id].Role)
	assert.Equal(t, []string{"choose_role"}, rec.Actions())
}

func TestUpdateMe_ValidatesAndSaves(t *testing.T) {
	store := memstore.New()
	id := uuid.New()
	store.Profiles[id] = entity.NewProfile(id, "maria")
	uc := profile.NewUpdateMeUseCase(store.ProfileRepo(), &memstore.Recorder{})
	actor := entity.Actor{UserID: id}

	_, err := uc.Execute(context.Background(), actor, profile.UpdateProfileInput{DisplayName: "m"})
	assert.True(t, apperror.IsValidation(err))

	p, err := uc.Execute(context.Background(), actor, profile.UpdateProfileInput{
		DisplayName: "Мария",
		Bio:         "Иллюстратор",
		Skills:      []string{"Figma", "Procreate"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Мария", store.Profiles[id].DisplayName)
	assert.Len(t, p.Skills, 2)
}

func TestGetPublicProfile_WithRating(t *testing.T) {
	store := memstore.New()
	id := uuid.New()
	store.Profiles[id] = entity.NewProfile(id, "sergey")
	orderID := uuid.New()
	store.Reviews = append(store.Reviews, &entity.Review{ID: uuid.New(), OrderID: &orderID, ReviewerID: uuid.New(), RevieweeID: id, Rating: 4})

	pub, err := profile.NewGetPublicProfileUseCase(store.ProfileRepo(), store.ReviewRepo()).Execute(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, pub.Rating.Count)
	assert.InDelta(t, 4.0, pub.Rating.Average, 0.001)

	_, err = profile.NewGetPublicProfileUseCase(store.ProfileRepo(), store.ReviewRepo()).Execute(context.Background(), uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}
