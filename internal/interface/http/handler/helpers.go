package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/http/middleware"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// requireActor достаёт авторизованного пользователя или отвечает 401.
func requireActor(c *gin.Context) (entity.Actor, bool) {
	actor := middleware.ActorFrom(c)
	if actor.IsAnonymous() {
		response.Unauthorized(c, "требуется авторизация")
		return actor, false
	}
	return actor, true
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "некорректный параметр "+name)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func parseInt64Query(c *gin.Context, key string) *int64 {
	valueStr := c.Query(key)
	if valueStr == "" {
		return nil
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return nil
	}

	return &value
}

// pageParams limit в пределах 1..100, offset не отрицательный.
func pageParams(c *gin.Context) (int, int) {
	limit := parseIntQuery(c, "limit", defaultPageLimit)
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := parseIntQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func requestMeta(c *gin.Context) map[string]string {
	return map[string]string{
		"user_agent": c.GetHeader("User-Agent"),
		"ip":         c.ClientIP(),
	}
}
