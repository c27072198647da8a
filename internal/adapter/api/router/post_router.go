package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

func SetupPostRouter(e *echo.Echo, postHandler *handler.PostHandler, authMiddleware *middleware.AuthMiddleware) {
	// Reading the board is public.
	e.GET("/v1/posts", postHandler.List)
	e.GET("/v1/posts/:id", postHandler.GetByID)
	e.GET("/v1/posts/:id/comments", postHandler.ListComments)

	protected := e.Group("/v1/posts")
	protected.Use(authMiddleware.Authenticate)

	protected.POST("", postHandler.Create)
	protected.DELETE("/:id", postHandler.Delete)
	protected.POST("/:id/comments", postHandler.CreateComment)
	protected.PUT("/:id/vote", postHandler.Vote)
	protected.DELETE("/:id/vote", postHandler.Unvote)
}
