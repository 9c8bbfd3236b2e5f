package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "convochat/internal/infrastructure/websocket"
	"convochat/pkg/logger"
	"convochat/pkg/response"
)

type WebSocketHandler struct {
	wsManager *ws.Manager
	upgrader  gorillaws.Upgrader
}

// NewWebSocketHandler accepts handshakes from allowedOrigins, or from any
// origin when the list is empty.
func NewWebSocketHandler(wsManager *ws.Manager, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &WebSocketHandler{
		wsManager: wsManager,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already answered the handshake.
		logger.Warn("WebSocket upgrade failed for %s: %v", userID, err)
		return nil
	}

	h.wsManager.Serve(userID, conn)
	return nil
}
