package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
)

// SetupWebSocketRouter exposes the realtime endpoint. Auth happens inside the
// handler because the token arrives as a query parameter, not a header.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.Connect)
}
