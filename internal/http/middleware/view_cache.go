package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-backend/internal/invalidation"
)

// ViewStore хранилище закэшированных ответов.
type ViewStore interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
}

type cachedView struct {
	contentType string
	body        []byte
}

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ViewCache кэширует успешные анонимные GET ответы по ключу invalidation.ViewKey.
// Записи сбрасываются сигналами инвалидации после изменений.
func ViewCache(store ViewStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || c.GetHeader("Authorization") != "" || ttl <= 0 {
			c.Next()
			return
		}

		key := invalidation.ViewKey(c.Request.URL.Path, c.Request.URL.RawQuery)
		if v, ok := store.Get(key); ok {
			if view, ok := v.(cachedView); ok {
				c.Header("X-Cache", "HIT")
				c.Data(http.StatusOK, view.contentType, view.body)
				c.Abort()
				return
			}
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rec
		c.Header("X-Cache", "MISS")
		c.Next()

		if rec.Status() == http.StatusOK && rec.body.Len() > 0 {
			store.Set(key, cachedView{
				contentType: rec.Header().Get("Content-Type"),
				body:        rec.body.Bytes(),
			}, ttl)
		}
	}
}
