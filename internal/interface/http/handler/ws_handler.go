package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-backend/internal/http/middleware"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/logger"
	"github.com/ignatzorin/market-backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений.
type WSHandler struct {
	hub      *ws.Hub
	resolver *middleware.ActorResolver
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub, resolver *middleware.ActorResolver, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &WSHandler{
		hub:      hub,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handle обслуживает GET /api/ws?token=...
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Unauthorized(c, "access токен обязателен")
		return
	}

	actor, err := h.resolver.Resolve(c.Request.Context(), rawToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade сам ответил клиенту
		logger.Log.WithFields(logrus.Fields{"user_id": actor.UserID, "error": err.Error()}).Warn("ws: не удалось установить соединение")
		return
	}

	client := ws.NewClient(conn, h.hub, actor.UserID)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}
