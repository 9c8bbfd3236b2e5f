package router

import (
	"github.com/labstack/echo/v4"

	"convochat/internal/adapter/api/handler"
)

func SetupChatRouter(v1 *echo.Group, chatHandler *handler.ChatHandler) {
	conversations := v1.Group("/conversations")

	conversations.GET("", chatHandler.ListConversations)
	conversations.GET("/unread", chatHandler.Unread)
	conversations.PUT("/:id/read", chatHandler.MarkRead)

	// Direct conversations are addressed by the other participant.
	conversations.POST("/direct", chatHandler.OpenDirect)
	conversations.POST("/direct/messages", chatHandler.SendDirect)
}
