package router

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func SetupHealthRouter(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
}
