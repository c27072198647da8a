package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmarket/internal/adapter/api"
	"campusmarket/internal/chatsync"
	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
)

// The stubs embed the repository interfaces so only the methods a request
// actually exercises need bodies.

type stubConversationRepo struct {
	repository.ConversationRepository
	existing *entity.Conversation
	created  int
}

func (r *stubConversationRepo) GetByParticipants(ctx context.Context, initiatorID, ownerID string) (*entity.Conversation, error) {
	if r.existing != nil {
		return r.existing, nil
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *stubConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.created++
	conversation.ID = "conv1"
	r.existing = conversation
	return nil
}

type stubUserRepo struct {
	repository.UserRepository
}

func (r stubUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return &entity.User{ID: id, DisplayName: id, Status: "active"}, nil
}

type stubListingRepo struct {
	repository.ListingRepository
}

func (r stubListingRepo) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	return &entity.Listing{ID: id, Title: "Campus bike", SellerID: "bob", Status: "active"}, nil
}

type silentBroadcaster struct{}

type silentSubscription struct{}

func (silentSubscription) Unsubscribe() {}

func (silentBroadcaster) Subscribe(channel, event string, handler func(payload []byte)) (chatsync.Subscription, error) {
	return silentSubscription{}, nil
}

func (silentBroadcaster) Publish(channel, event string, payload []byte) error {
	return nil
}

type silentFeed struct{}

func (silentFeed) Subscribe(conversationID string, handler func()) (chatsync.Subscription, error) {
	return silentSubscription{}, nil
}

func newChatHandlerFixture() (*echo.Echo, *ChatHandler, *stubConversationRepo) {
	conversationRepo := &stubConversationRepo{}
	uc := usecase.NewChatUseCase(
		conversationRepo,
		stubUserRepo{},
		stubListingRepo{},
		struct{ repository.NotificationRepository }{},
		silentBroadcaster{},
		silentFeed{},
	)

	e := echo.New()
	e.Validator = api.NewValidator()
	return e, NewChatHandler(uc), conversationRepo
}

func postStartConversation(e *echo.Echo, h *ChatHandler, uid, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/chats", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("uid", uid)
	_ = h.StartConversation(c)
	return rec
}

func TestStartConversationAnswersCreatedThenOK(t *testing.T) {
	e, h, conversationRepo := newChatHandlerFixture()
	body := `{"listing_id":"bike1"}`

	first := postStartConversation(e, h, "alice", body)
	require.Equal(t, http.StatusCreated, first.Code)

	var created struct {
		Success bool `json:"success"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &created))
	require.True(t, created.Success)
	require.Equal(t, "conv1", created.Data.ID)

	// The same pair again is success-equivalent: 200 with the existing
	// conversation, not a surfaced conflict and not a second row.
	second := postStartConversation(e, h, "alice", body)
	require.Equal(t, http.StatusOK, second.Code)

	var reused struct {
		Success bool `json:"success"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &reused))
	assert.True(t, reused.Success)
	assert.Equal(t, "conv1", reused.Data.ID)
	assert.Equal(t, 1, conversationRepo.created)
}
