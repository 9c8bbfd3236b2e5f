package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

var timeNow = time.Now

// ConnectionCounter reports live socket connections.
type ConnectionCounter interface {
	ClientCount() int
}

type HealthHandler struct {
	sockets ConnectionCounter
}

func NewHealthHandler(sockets ConnectionCounter) *HealthHandler {
	return &HealthHandler{
		sockets: sockets,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status": "Server is running",
		"time":   timeNow().Format(time.RFC3339),
	}
	if h.sockets != nil {
		body["websocket_clients"] = h.sockets.ClientCount()
	}
	return c.JSON(http.StatusOK, body)
}
