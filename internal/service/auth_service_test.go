package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/testutil/memstore"
)

func newAuthService(store *memstore.Store) (*AuthService, *TokenManager) {
	tokenManager := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewAuthService(store.UserRepo(), store.SessionRepo(), store.ProfileRepo(), tokenManager), tokenManager
}

func TestAuthService_SignUpAndSignIn(t *testing.T) {
	store := memstore.New()
	service, tokenManager := newAuthService(store)
	ctx := context.Background()

	res, err := service.SignUp(ctx, Credentials{Email: " Test@Example.com ", Password: "Password123"}, map[string]string{"ip": "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", res.User.Email)
	require.NotNil(t, res.Profile)
	assert.Equal(t, valueobject.RoleNone, res.Profile.Role)
	assert.Len(t, store.Sessions, 1)

	userID, err := tokenManager.ParseAccess(res.TokenPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)

	loginRes, err := service.SignIn(ctx, Credentials{Email: "test@example.com", Password: "Password123"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, loginRes.TokenPair.AccessToken)
	assert.Equal(t, res.Profile.ID, loginRes.Profile.ID)

	_, err = service.SignIn(ctx, Credentials{Email: "test@example.com", Password: "wrong"}, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = service.SignIn(ctx, Credentials{Email: "nobody@example.com", Password: "Password123"}, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_SignUpValidation(t *testing.T) {
	store := memstore.New()
	service, _ := newAuthService(store)
	ctx := context.Background()

	_, err := service.SignUp(ctx, Credentials{Email: "not-an-email", Password: "Password123"}, nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = service.SignUp(ctx, Credentials{Email: "a@example.com", Password: "short"}, nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = service.SignUp(ctx, Credentials{Email: "a@example.com", Password: "Password123"}, nil)
	require.NoError(t, err)
	_, err = service.SignUp(ctx, Credentials{Email: "A@example.com", Password: "Password123"}, nil)
	assert.ErrorIs(t, err, apperror.ErrEmailTaken)
}

func TestAuthService_RefreshRotatesSession(t *testing.T) {
	store := memstore.New()
	service, _ := newAuthService(store)
	ctx := context.Background()

	res, err := service.SignUp(ctx, Credentials{Email: "user@example.com", Password: "Password123"}, nil)
	require.NoError(t, err)
	old := res.TokenPair.RefreshToken

	pair, err := service.Refresh(ctx, old, nil)
	require.NoError(t, err)
	assert.NotEqual(t, old, pair.RefreshToken)
	assert.NotContains(t, store.Sessions, old)
	assert.Contains(t, store.Sessions, pair.RefreshToken)

	// старый токен повторно не принимается
	_, err = service.Refresh(ctx, old, nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = service.Refresh(ctx, "garbage", nil)
	assert.Equal(t, apperror.ErrCodeUnauthorized, apperror.CodeOf(err))
}

func TestAuthService_SignOut(t *testing.T) {
	store := memstore.New()
	service, _ := newAuthService(store)
	ctx := context.Background()

	res, err := service.SignUp(ctx, Credentials{Email: "bye@example.com", Password: "Password123"}, nil)
	require.NoError(t, err)

	require.NoError(t, service.SignOut(ctx, res.TokenPair.RefreshToken))
	assert.Empty(t, store.Sessions)
	_, err = service.Refresh(ctx, res.TokenPair.RefreshToken, nil)
	assert.Error(t, err)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	issuer := NewTokenManager("a", "b", time.Minute, time.Hour)
	other := NewTokenManager("c", "d", time.Minute, time.Hour)
	userID := uuid.New()

	pair, accessExp, refreshExp, err := issuer.GeneratePair(userID)
	require.NoError(t, err)
	assert.True(t, accessExp.Before(refreshExp))

	_, err = other.ParseAccess(pair.AccessToken)
	assert.Error(t, err)

	// refresh токен не подходит как access
	_, err = issuer.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)

	id, err := issuer.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, id)
}
