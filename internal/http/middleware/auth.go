package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

// ContextActorKey ключ entity.Actor в gin.Context.
const ContextActorKey = "actor"

// TokenParser разбирает access токен в ID пользователя.
type TokenParser interface {
	ParseAccess(token string) (uuid.UUID, error)
}

// ActorResolver превращает токен в Actor. Роль читается из профиля на каждый запрос,
// поэтому выбор роли при онбординге действует без перевыпуска токена.
type ActorResolver struct {
	tokens   TokenParser
	profiles repository.ProfileRepository
	adminID  uuid.UUID
}

func NewActorResolver(tokens TokenParser, profiles repository.ProfileRepository, adminID uuid.UUID) *ActorResolver {
	return &ActorResolver{tokens: tokens, profiles: profiles, adminID: adminID}
}

func (r *ActorResolver) Resolve(ctx context.Context, rawToken string) (entity.Actor, error) {
	userID, err := r.tokens.ParseAccess(rawToken)
	if err != nil || userID == uuid.Nil {
		return entity.Actor{}, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "токен невалиден")
	}

	actor := entity.Actor{
		UserID:  userID,
		Role:    valueobject.RoleNone,
		IsAdmin: r.adminID != uuid.Nil && userID == r.adminID,
	}

	p, err := r.profiles.FindByID(ctx, userID)
	switch {
	case err == nil:
		actor.Role = p.Role
	case apperror.IsNotFound(err):
		// профиль создаётся при первом входе, до этого роли нет
	default:
		return entity.Actor{}, err
	}
	return actor, nil
}

// RequireAuth пропускает только запросы с валидным access токеном.
func RequireAuth(resolver *ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "требуется авторизация")
			return
		}

		actor, err := resolver.Resolve(c.Request.Context(), raw)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// OptionalAuth для публичных маршрутов: без токена или с невалидным токеном запрос анонимный.
func OptionalAuth(resolver *ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if actor, err := resolver.Resolve(c.Request.Context(), raw); err == nil {
				c.Set(ContextActorKey, actor)
			}
		}
		c.Next()
	}
}

// RequireAdmin ставится после RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ActorFrom(c).IsAdmin {
			response.Forbidden(c, "доступно только администратору")
			return
		}
		c.Next()
	}
}

// ActorFrom возвращает анонимного Actor, если авторизации не было.
func ActorFrom(c *gin.Context) entity.Actor {
	if v, ok := c.Get(ContextActorKey); ok {
		if actor, ok := v.(entity.Actor); ok {
			return actor
		}
	}
	return entity.Actor{}
}

func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}
