package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

func SetupListingRouter(e *echo.Echo, listingHandler *handler.ListingHandler, authMiddleware *middleware.AuthMiddleware) {
	// Browsing is public; a valid token just enables viewer-aware behavior
	// like view counting.
	public := e.Group("/v1/listings")
	public.Use(authMiddleware.OptionalAuthenticate)
	public.GET("", listingHandler.List)
	public.GET("/:id", listingHandler.GetByID)

	protected := e.Group("/v1/listings")
	protected.Use(authMiddleware.Authenticate)

	protected.POST("", listingHandler.Create)
	protected.PATCH("/:id", listingHandler.Update)
	protected.DELETE("/:id", listingHandler.Delete)
	protected.POST("/:id/sold", listingHandler.MarkSold)
	protected.POST("/images", listingHandler.UploadImage)
}
