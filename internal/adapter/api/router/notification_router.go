package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/v1/announcements", notificationHandler.ListAnnouncements)

	notifications := e.Group("/v1/notifications")
	notifications.Use(authMiddleware.Authenticate)

	notifications.GET("", notificationHandler.List)
	notifications.GET("/unread-count", notificationHandler.UnreadCount)
	notifications.PUT("/read", notificationHandler.MarkAllRead)
	notifications.PUT("/:id/read", notificationHandler.MarkRead)
	notifications.DELETE("/:id", notificationHandler.Delete)
}
