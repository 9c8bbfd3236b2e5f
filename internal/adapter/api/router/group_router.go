package router

import (
	"github.com/labstack/echo/v4"

	"convochat/internal/adapter/api/handler"
)

func SetupGroupRouter(v1 *echo.Group, groupHandler *handler.GroupHandler) {
	groups := v1.Group("/groups")

	groups.GET("", groupHandler.ListGroups)
	groups.POST("", groupHandler.CreateGroup)
	groups.POST("/:id/messages", groupHandler.SendMessage)
	groups.PUT("/:id/read", groupHandler.MarkRead)
}
