package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-backend/internal/interface/http/response"
)

// ErrorHandler отвечает конвертом на ошибки, добавленные через c.Error, если ответ ещё не записан.
// Внутренние ошибки маскируются и логируются в response.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}
