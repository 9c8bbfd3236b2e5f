package router

import (
	"github.com/labstack/echo/v4"

	"convochat/internal/adapter/api/handler"
	"convochat/internal/adapter/api/middleware"
)

type Handlers struct {
	Chat      *handler.ChatHandler
	Group     *handler.GroupHandler
	User      *handler.UserHandler
	WebSocket *handler.WebSocketHandler
	Health    *handler.HealthHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, ipLimiter *middleware.IPRateLimiter) {
	SetupHealthRouter(e, h.Health)

	v1 := e.Group("/v1")
	v1.Use(ipLimiter.Middleware())
	v1.Use(authMiddleware.Authenticate)

	SetupUserRouter(v1, h.User)
	SetupChatRouter(v1, h.Chat)
	SetupGroupRouter(v1, h.Group)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)
}
