package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

func SetupReviewRouter(e *echo.Echo, reviewHandler *handler.ReviewHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/v1/reviews", reviewHandler.List)

	protected := e.Group("/v1/reviews")
	protected.Use(authMiddleware.Authenticate)

	protected.POST("", reviewHandler.Create)
	protected.POST("/:id/report", reviewHandler.Report)
}
