package router

import (
	"github.com/labstack/echo/v4"

	"convochat/internal/adapter/api/handler"
	"convochat/internal/adapter/api/middleware"
)

// SetupWebSocketRouter mounts the live socket. The ID token may come as a
// query parameter because browsers cannot set headers on the handshake.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/ws", wsHandler.HandleWebSocket, authMiddleware.AuthenticateQuery)
}
