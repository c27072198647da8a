package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/middleware"
	"campusmarket/internal/chatsync"
	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/internal/infrastructure/realtime"
	"campusmarket/internal/usecase"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub              *realtime.Hub
	authMiddleware   *middleware.AuthMiddleware
	conversationRepo repository.ConversationRepository
	chatUseCase      *usecase.ChatUseCase
	changeFeed       chatsync.ChangeFeed
	reloadDebounce   time.Duration
	feedCapacity     int
}

func NewWebSocketHandler(
	hub *realtime.Hub,
	authMiddleware *middleware.AuthMiddleware,
	conversationRepo repository.ConversationRepository,
	chatUseCase *usecase.ChatUseCase,
	changeFeed chatsync.ChangeFeed,
	reloadDebounce time.Duration,
	feedCapacity int,
) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:              hub,
		authMiddleware:   authMiddleware,
		conversationRepo: conversationRepo,
		chatUseCase:      chatUseCase,
		changeFeed:       changeFeed,
		reloadDebounce:   reloadDebounce,
		feedCapacity:     feedCapacity,
	}
	hub.Authorize = h.authorizeChannel
	return h
}

// Connect upgrades the request to a WebSocket connection. Browsers cannot set
// an Authorization header on the upgrade request, so the token rides in the
// query string instead.
func (h *WebSocketHandler) Connect(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token is required")
	}

	uid, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("websocket upgrade failed for %s: %v", uid, err)
		return err
	}

	client := realtime.NewClient(uid, conn)
	session := h.newSession(uid, client)
	client.Session = session
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump(h.hub)
	go func() {
		if err := session.Start(context.Background()); err != nil {
			log.Printf("session start failed for %s: %v", uid, err)
		}
	}()

	return nil
}

// newSession wires one viewer's sync session: summaries and history come
// from the chat usecase (which enforces participant access), live updates
// from the hub, and missed-broadcast recovery from the Firestore change feed.
func (h *WebSocketHandler) newSession(uid string, client *realtime.Client) *chatsync.ClientSession {
	return chatsync.NewClientSession(chatsync.ClientSessionConfig{
		ViewerID:    uid,
		Broadcaster: h.hub,
		Feed:        h.changeFeed,
		LoadSummaries: func(ctx context.Context) ([]chatsync.ConversationSummary, error) {
			return h.chatUseCase.ConversationSummaries(ctx, uid)
		},
		LoadHistory: func(ctx context.Context, conversationID string) ([]*entity.Message, error) {
			responses, _, err := h.chatUseCase.GetMessages(ctx, uid, conversationID, 0, 0)
			if err != nil {
				return nil, err
			}
			messages := make([]*entity.Message, 0, len(responses))
			for _, r := range responses {
				messages = append(messages, r.Message)
			}
			return messages, nil
		},
		ReloadDebounce: h.reloadDebounce,
		FeedCapacity:   h.feedCapacity,
		Push: func(event string, payload interface{}) {
			raw, err := json.Marshal(payload)
			if err != nil {
				return
			}
			client.Enqueue(chatsync.UserChannel(uid), event, raw)
		},
	})
}

// authorizeChannel decides whether a user may subscribe to a channel. Room
// channels are restricted to the conversation's participants; everything else
// a client asks for is limited to its own personal channel and the shared
// broadcast channels it already holds.
func (h *WebSocketHandler) authorizeChannel(ctx context.Context, userID, channel string) bool {
	switch {
	case strings.HasPrefix(channel, "room-"):
		conversationID := strings.TrimPrefix(channel, "room-")
		conversation, err := h.conversationRepo.GetByID(ctx, conversationID)
		if err != nil {
			return false
		}
		for _, participant := range conversation.Participants {
			if participant == userID {
				return true
			}
		}
		return false
	case channel == chatsync.UserChannel(userID):
		return true
	case channel == chatsync.GlobalChannel, channel == chatsync.ConversationUpdatesChannel:
		return true
	default:
		return false
	}
}
