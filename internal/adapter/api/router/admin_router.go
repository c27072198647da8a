package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

func SetupAdminRouter(e *echo.Echo, adminHandler *handler.AdminHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	// Admin routes - require authentication and admin role
	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	// Moderation
	admin.PATCH("/users/:id/status", adminHandler.SetUserStatus)
	admin.PATCH("/listings/:id/status", adminHandler.SetListingStatus)
	admin.PATCH("/posts/:id/status", adminHandler.SetPostStatus)
	admin.DELETE("/posts/:id/comments/:commentId", adminHandler.RemoveComment)

	// Review reports
	admin.GET("/review-reports", adminHandler.ListReportedReviews)
	admin.PATCH("/review-reports/:id", adminHandler.ResolveReport)
	admin.PATCH("/reviews/:id/status", adminHandler.UpdateReviewStatus)

	// Announcements
	admin.POST("/announcements", adminHandler.PublishAnnouncement)
}
