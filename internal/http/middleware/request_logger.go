package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-backend/internal/logger"
	"github.com/ignatzorin/market-backend/internal/metrics"
)

// RequestLogger пишет строку лога на каждый запрос и обновляет HTTP метрики.
// Метка route берётся из шаблона маршрута, чтобы не раздувать число серий.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"route":      route,
			"status":     status,
			"latency_ms": elapsed.Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if actor := ActorFrom(c); !actor.IsAnonymous() {
			fields["user_id"] = actor.UserID
		}

		entry := logger.Log.WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("http: запрос завершился ошибкой")
		case status >= 400:
			entry.Warn("http: запрос отклонён")
		default:
			entry.Debug("http: запрос обработан")
		}
	}
}
