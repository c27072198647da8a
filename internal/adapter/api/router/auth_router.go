package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

// SetupAuthRouter initializes auth and profile routes
func SetupAuthRouter(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware *middleware.AuthMiddleware) {
	// Public routes
	e.POST("/v1/auth/register", authHandler.Register)
	e.POST("/v1/auth/login", authHandler.Login)
	e.GET("/v1/users/:id", authHandler.GetUser)

	// Protected routes
	protected := e.Group("/v1/auth")
	protected.Use(authMiddleware.Authenticate)

	protected.GET("/me", authHandler.Me)
	protected.PATCH("/me", authHandler.UpdateProfile)
	protected.POST("/change-password", authHandler.ChangePassword)
}
