package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

// Handlers bundles everything Setup needs so main stays readable.
type Handlers struct {
	Auth         *handler.AuthHandler
	Listing      *handler.ListingHandler
	Chat         *handler.ChatHandler
	Post         *handler.PostHandler
	Review       *handler.ReviewHandler
	Wishlist     *handler.WishlistHandler
	Notification *handler.NotificationHandler
	Admin        *handler.AdminHandler
	WebSocket    *handler.WebSocketHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	SetupAuthRouter(e, h.Auth, authMiddleware)
	SetupListingRouter(e, h.Listing, authMiddleware)
	SetupChatRouter(e, h.Chat, authMiddleware)
	SetupPostRouter(e, h.Post, authMiddleware)
	SetupReviewRouter(e, h.Review, authMiddleware)
	SetupWishlistRouter(e, h.Wishlist, authMiddleware)
	SetupNotificationRouter(e, h.Notification, authMiddleware)
	SetupAdminRouter(e, h.Admin, authMiddleware, adminMiddleware)
	SetupWebSocketRouter(e, h.WebSocket)
	SetupHealthRouter(e)
}
