package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmarket/internal/chatsync"
	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

// effectRecorder collects named side effects across the fakes so a test can
// assert the order they happened in.
type effectRecorder struct {
	mu      sync.Mutex
	effects []string
}

func (r *effectRecorder) record(effect string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, effect)
}

func (r *effectRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.effects...)
}

type memoryConversationRepo struct {
	recorder      *effectRecorder
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	nextID        int
}

func newMemoryConversationRepo(recorder *effectRecorder) *memoryConversationRepo {
	return &memoryConversationRepo{
		recorder:      recorder,
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
	}
}

func (r *memoryConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.nextID++
	conversation.ID = fmt.Sprintf("conv%d", r.nextID)
	conversation.CreatedAt = time.Now()
	r.conversations[conversation.ID] = conversation
	r.recorder.record("create-conversation:" + conversation.ID)
	return nil
}

func (r *memoryConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	conversation, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return conversation, nil
}

func (r *memoryConversationRepo) GetByParticipants(ctx context.Context, initiatorID, ownerID string) (*entity.Conversation, error) {
	for _, conversation := range r.conversations {
		if containsParticipant(conversation.Participants, initiatorID) && containsParticipant(conversation.Participants, ownerID) {
			return conversation, nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *memoryConversationRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	var result []*entity.Conversation
	for _, conversation := range r.conversations {
		if containsParticipant(conversation.Participants, userID) {
			result = append(result, conversation)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memoryConversationRepo) Update(ctx context.Context, conversation *entity.Conversation) error {
	r.conversations[conversation.ID] = conversation
	r.recorder.record("update-conversation:" + conversation.ID)
	return nil
}

func (r *memoryConversationRepo) Delete(ctx context.Context, id string) error {
	delete(r.conversations, id)
	return nil
}

func (r *memoryConversationRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.nextID++
	message.ID = fmt.Sprintf("msg%d", r.nextID)
	message.CreatedAt = time.Now()
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], message)
	r.recorder.record("persist-message:" + message.ID)
	return nil
}

func (r *memoryConversationRepo) GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	messages := r.messages[conversationID]
	return messages, int64(len(messages)), nil
}

type memoryUserRepo struct {
	users map[string]*entity.User
}

func (r *memoryUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *memoryUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) Delete(ctx context.Context, id string) error {
	delete(r.users, id)
	return nil
}

type memoryListingRepo struct {
	listings map[string]*entity.Listing
}

func (r *memoryListingRepo) Create(ctx context.Context, listing *entity.Listing) error {
	r.listings[listing.ID] = listing
	return nil
}

func (r *memoryListingRepo) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	return listing, nil
}

func (r *memoryListingRepo) List(ctx context.Context, filter repository.ListingFilter, limit, offset int) ([]*entity.Listing, int64, error) {
	return nil, 0, nil
}

func (r *memoryListingRepo) Update(ctx context.Context, listing *entity.Listing) error {
	r.listings[listing.ID] = listing
	return nil
}

func (r *memoryListingRepo) Delete(ctx context.Context, id string) error {
	delete(r.listings, id)
	return nil
}

func (r *memoryListingRepo) IncrementViews(ctx context.Context, id string) error {
	return nil
}

type memoryNotificationRepo struct {
	recorder      *effectRecorder
	notifications []*entity.Notification
}

func (r *memoryNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	r.notifications = append(r.notifications, notification)
	r.recorder.record("store-notification:" + notification.UserID)
	return nil
}

func (r *memoryNotificationRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	var result []*entity.Notification
	for _, notification := range r.notifications {
		if notification.UserID == userID {
			result = append(result, notification)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memoryNotificationRepo) MarkRead(ctx context.Context, userID, notificationID string) error {
	return nil
}

func (r *memoryNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	return nil
}

func (r *memoryNotificationRepo) Delete(ctx context.Context, userID, notificationID string) error {
	return nil
}

func (r *memoryNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (r *memoryNotificationRepo) CreateAnnouncement(ctx context.Context, announcement *entity.Announcement) error {
	return nil
}

func (r *memoryNotificationRepo) ListAnnouncements(ctx context.Context, limit, offset int) ([]*entity.Announcement, int64, error) {
	return nil, 0, nil
}

type recordingBroadcaster struct {
	recorder *effectRecorder
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type noopFeed struct{}

func (noopFeed) Subscribe(conversationID string, handler func()) (chatsync.Subscription, error) {
	return noopSubscription{}, nil
}

func (b *recordingBroadcaster) Subscribe(channel, event string, handler func(payload []byte)) (chatsync.Subscription, error) {
	return noopSubscription{}, nil
}

func (b *recordingBroadcaster) Publish(channel, event string, payload []byte) error {
	b.recorder.record("publish:" + channel + "/" + event)
	return nil
}

func newChatFixture() (*ChatUseCase, *memoryConversationRepo, *memoryUserRepo, *memoryListingRepo, *memoryNotificationRepo, *effectRecorder) {
	recorder := &effectRecorder{}
	conversationRepo := newMemoryConversationRepo(recorder)
	userRepo := &memoryUserRepo{users: map[string]*entity.User{
		"alice": {ID: "alice", DisplayName: "Alice", Email: "alice@campus.edu", Role: "student", Status: "active"},
		"bob":   {ID: "bob", DisplayName: "Bob", Email: "bob@campus.edu", Role: "student", Status: "active"},
	}}
	listingRepo := &memoryListingRepo{listings: map[string]*entity.Listing{
		"bike1": {ID: "bike1", Title: "Campus bike", SellerID: "bob", Status: "active", Price: 60},
	}}
	notificationRepo := &memoryNotificationRepo{recorder: recorder}
	broadcaster := &recordingBroadcaster{recorder: recorder}

	uc := NewChatUseCase(conversationRepo, userRepo, listingRepo, notificationRepo, broadcaster, noopFeed{})
	return uc, conversationRepo, userRepo, listingRepo, notificationRepo, recorder
}

func TestStartConversationReusesExisting(t *testing.T) {
	uc, conversationRepo, _, _, _, _ := newChatFixture()
	ctx := context.Background()

	first, err := uc.StartConversation(ctx, "alice", StartConversationInput{ListingID: "bike1"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, "bob", first.OwnerID)
	assert.Equal(t, []string{"alice", "bob"}, first.Participants)

	second, err := uc.StartConversation(ctx, "alice", StartConversationInput{ListingID: "bike1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"), "reuse must be distinguishable from creation")
	require.NotNil(t, second, "the existing conversation rides along with the conflict")
	assert.Equal(t, first.ID, second.ID, "starting an existing conversation must reuse it")
	assert.Len(t, conversationRepo.conversations, 1)
}

func TestStartConversationRejectsSelf(t *testing.T) {
	uc, _, _, _, _, _ := newChatFixture()

	_, err := uc.StartConversation(context.Background(), "bob", StartConversationInput{ListingID: "bike1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestSendMessagePersistsBeforeBroadcast(t *testing.T) {
	uc, _, _, _, _, recorder := newChatFixture()
	ctx := context.Background()

	conversation, err := uc.StartConversation(ctx, "alice", StartConversationInput{ListingID: "bike1"})
	require.NoError(t, err)

	response, err := uc.SendMessage(ctx, "alice", SendMessageInput{
		ConversationID: conversation.ID,
		Content:        "is the bike still available?",
	})
	require.NoError(t, err)
	assert.True(t, response.IsOwn)
	assert.NotEmpty(t, response.Message.ID)

	effects := recorder.list()
	persistIdx := indexOf(effects, "persist-message:"+response.Message.ID)
	broadcastIdx := indexOf(effects, "publish:"+chatsync.RoomChannel(conversation.ID)+"/"+chatsync.EventNewMessage)
	notifyIdx := indexOf(effects, "publish:"+chatsync.UserChannel("bob")+"/"+chatsync.EventNotification)
	storeIdx := indexOf(effects, "store-notification:bob")

	require.GreaterOrEqual(t, persistIdx, 0, "message must be persisted")
	require.GreaterOrEqual(t, broadcastIdx, 0, "message must be broadcast")
	assert.Less(t, persistIdx, broadcastIdx, "broadcast must never precede the durable write")
	assert.GreaterOrEqual(t, storeIdx, 0, "recipient must get a durable notification")
	assert.GreaterOrEqual(t, notifyIdx, 0, "recipient must get a realtime push")
}

func TestSendMessageUpdatesUnreadCounts(t *testing.T) {
	uc, conversationRepo, _, _, _, _ := newChatFixture()
	ctx := context.Background()

	conversation, err := uc.StartConversation(ctx, "alice", StartConversationInput{ListingID: "bike1"})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "alice", SendMessageInput{ConversationID: conversation.ID, Content: "hello"})
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, "alice", SendMessageInput{ConversationID: conversation.ID, Content: "anyone there?"})
	require.NoError(t, err)

	stored := conversationRepo.conversations[conversation.ID]
	assert.Equal(t, 2, stored.UnreadCount["bob"], "recipient unread count accumulates")
	assert.Equal(t, 0, stored.UnreadCount["alice"], "sender's own count never moves")
	assert.Equal(t, "anyone there?", stored.LastMessage)

	require.NoError(t, uc.MarkConversationRead(ctx, "bob", conversation.ID))
	assert.Equal(t, 0, conversationRepo.conversations[conversation.ID].UnreadCount["bob"])
}

func TestSendMessageValidation(t *testing.T) {
	uc, _, _, _, _, recorder := newChatFixture()
	ctx := context.Background()

	conversation, err := uc.StartConversation(ctx, "alice", StartConversationInput{ListingID: "bike1"})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "alice", SendMessageInput{ConversationID: conversation.ID, Content: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = uc.SendMessage(ctx, "mallory", SendMessageInput{ConversationID: conversation.ID, Content: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	for _, effect := range recorder.list() {
		assert.False(t, strings.HasPrefix(effect, "persist-message:"), "rejected sends must not persist anything")
	}
}

func TestConversationSummariesUseListingTitle(t *testing.T) {
	uc, _, _, _, _, _ := newChatFixture()
	ctx := context.Background()

	conversation, err := uc.StartConversation(ctx, "alice", StartConversationInput{ListingID: "bike1", InitialMessage: "still for sale?"})
	require.NoError(t, err)

	summaries, err := uc.ConversationSummaries(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	assert.Equal(t, conversation.ID, summaries[0].ID)
	assert.Equal(t, "Campus bike", summaries[0].DisplayName)
	assert.Equal(t, "bob", summaries[0].CounterpartID)
	assert.Equal(t, "still for sale?", summaries[0].LastMessage)
	assert.Equal(t, 0, summaries[0].UnreadCount)

	summaries, err = uc.ConversationSummaries(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].UnreadCount)
	assert.Equal(t, "alice", summaries[0].CounterpartID)
}

func TestGetMessagesMarksOwnership(t *testing.T) {
	uc, _, _, _, _, _ := newChatFixture()
	ctx := context.Background()

	conversation, err := uc.StartConversation(ctx, "alice", StartConversationInput{ListingID: "bike1", InitialMessage: "hi bob"})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "bob", SendMessageInput{ConversationID: conversation.ID, Content: "hi alice"})
	require.NoError(t, err)

	messages, total, err := uc.GetMessages(ctx, "alice", conversation.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.True(t, messages[0].IsOwn)
	assert.False(t, messages[1].IsOwn)

	_, _, err = uc.GetMessages(ctx, "mallory", conversation.ID, 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestTruncatePreviewKeepsRunesIntact(t *testing.T) {
	short := "masih ada?"
	assert.Equal(t, short, truncatePreview(short))

	long := strings.Repeat("harga bisa nego? 😀", 20)
	preview := truncatePreview(long)
	assert.True(t, utf8.ValidString(preview), "preview must never split a rune")
	assert.Equal(t, 121, utf8.RuneCountInString(preview), "120 runes plus the ellipsis")
	assert.True(t, strings.HasSuffix(preview, "…"))

	exact := strings.Repeat("é", 120)
	assert.Equal(t, exact, truncatePreview(exact), "content at the limit passes through untouched")
}

func indexOf(items []string, target string) int {
	for i, item := range items {
		if item == target {
			return i
		}
	}
	return -1
}
