package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

func SetupWishlistRouter(e *echo.Echo, wishlistHandler *handler.WishlistHandler, authMiddleware *middleware.AuthMiddleware) {
	wishlist := e.Group("/v1/wishlist")
	wishlist.Use(authMiddleware.Authenticate)

	wishlist.GET("", wishlistHandler.List)
	wishlist.GET("/count", wishlistHandler.Count)
	wishlist.POST("/:listingId", wishlistHandler.Add)
	wishlist.DELETE("/:listingId", wishlistHandler.Remove)
	wishlist.GET("/:listingId", wishlistHandler.Contains)
}
