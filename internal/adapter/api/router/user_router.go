package router

import (
	"github.com/labstack/echo/v4"

	"convochat/internal/adapter/api/handler"
)

func SetupUserRouter(v1 *echo.Group, userHandler *handler.UserHandler) {
	users := v1.Group("/users")

	users.GET("", userHandler.ListUsers)
	users.POST("/me", userHandler.UpsertMe)
	users.PUT("/me/online", userHandler.SetOnline)
	users.GET("/:id", userHandler.GetUser)
}
