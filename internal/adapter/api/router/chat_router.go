package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate) // All chat endpoints require authentication

	// Conversation management
	chatGroup.POST("", chatHandler.StartConversation)    // POST /v1/chats - start or reuse a conversation
	chatGroup.GET("", chatHandler.GetConversations)      // GET /v1/chats - user's conversations with joins
	chatGroup.GET("/summaries", chatHandler.GetSummaries) // GET /v1/chats/summaries - sidebar rows
	chatGroup.PUT("/:id/read", chatHandler.MarkRead)     // PUT /v1/chats/:id/read - zero own unread count

	// Message management
	chatGroup.POST("/:id/messages", chatHandler.SendMessage) // POST /v1/chats/:id/messages
	chatGroup.GET("/:id/messages", chatHandler.GetMessages)  // GET /v1/chats/:id/messages
}
