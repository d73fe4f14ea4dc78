package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/service"
	"github.com/ignatzorin/market-backend/internal/testutil/memstore"
)

type stubTokens map[string]uuid.UUID

func (s stubTokens) ParseAccess(token string) (uuid.UUID, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return uuid.Nil, errors.New("bad token")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func actorEcho(c *gin.Context) {
	actor := ActorFrom(c)
	c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "role": actor.Role, "admin": actor.IsAdmin})
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newResolver(t *testing.T) (*ActorResolver, uuid.UUID, uuid.UUID) {
	t.Helper()
	store := memstore.New()
	user, admin := uuid.New(), uuid.New()

	p := entity.NewProfile(user, "seller")
	require.NoError(t, p.ChooseRole(valueobject.RoleFreelancer))
	require.NoError(t, store.ProfileRepo().Create(context.Background(), p))

	tokens := stubTokens{"user": user, "admin": admin}
	return NewActorResolver(tokens, store.ProfileRepo(), admin), user, admin
}

func TestRequireAuth(t *testing.T) {
	resolver, user, _ := newResolver(t)
	r := gin.New()
	r.GET("/me", RequireAuth(resolver), actorEcho)

	w := serve(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w = serve(r, http.MethodGet, "/me", "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", "user")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.String())
	assert.Contains(t, w.Body.String(), `"role":"freelancer"`)
	assert.Contains(t, w.Body.String(), `"admin":false`)
}

func TestRequireAuth_AdminWithoutProfile(t *testing.T) {
	resolver, _, _ := newResolver(t)
	r := gin.New()
	r.GET("/admin", RequireAuth(resolver), RequireAdmin(), actorEcho)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", "user").Code)

	w := serve(r, http.MethodGet, "/admin", "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin":true`)
	assert.Contains(t, w.Body.String(), `"role":""`)
}

func TestOptionalAuth_InvalidTokenIsAnonymous(t *testing.T) {
	resolver, _, _ := newResolver(t)
	r := gin.New()
	r.GET("/listings", OptionalAuth(resolver), actorEcho)

	w := serve(r, http.MethodGet, "/listings", "expired")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), uuid.Nil.String())
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://market.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://market.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://market.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/auth/sign-in", RateLimitMiddleware(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/auth/sign-in", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/auth/sign-in", "").Code)

	w := serve(r, http.MethodPost, "/auth/sign-in", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestUUIDValidator(t *testing.T) {
	r := gin.New()
	r.GET("/jobs/:id/bids/:bidId", UUIDValidator("id", "bidId"), func(c *gin.Context) { c.Status(http.StatusOK) })

	ok := "/jobs/" + uuid.NewString() + "/bids/" + uuid.NewString()
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, ok, "").Code)

	w := serve(r, http.MethodGet, "/jobs/"+uuid.NewString()+"/bids/42", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bidId")
}

func TestErrorHandler_WritesEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("sql: connection reset")) })

	w := serve(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, w.Body.String(), "sql:")
}

func TestViewCache_HitAndInvalidate(t *testing.T) {
	cache := service.NewCacheService(time.Minute)
	defer cache.Close()

	calls := 0
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/api/jobs", ViewCache(cache, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	first := serve(r, http.MethodGet, "/api/jobs?status=open", "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(r, http.MethodGet, "/api/jobs?status=open", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	// авторизованные запросы мимо кэша
	serve(r, http.MethodGet, "/api/jobs?status=open", "user")
	assert.Equal(t, 2, calls)

	cache.InvalidateByPrefix("view:/api/jobs")
	third := serve(r, http.MethodGet, "/api/jobs?status=open", "")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}
