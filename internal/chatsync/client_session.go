package chatsync

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"campusmarket/internal/domain/entity"
	"campusmarket/pkg/logger"
)

// HistoryLoader fetches a conversation's stored messages as the viewer is
// allowed to see them.
type HistoryLoader func(ctx context.Context, conversationID string) ([]*entity.Message, error)

// ClientSessionConfig carries everything one viewer's session needs.
type ClientSessionConfig struct {
	ViewerID    string
	Broadcaster Broadcaster
	Feed        ChangeFeed

	LoadSummaries SummaryLoader
	LoadHistory   HistoryLoader

	// ReloadDebounce and FeedCapacity are tunables; zero values fall back
	// to the component defaults.
	ReloadDebounce time.Duration
	FeedCapacity   int

	// Push delivers a derived event to the viewer's transport. Best-effort.
	Push func(event string, payload interface{})
}

// ClientSession is one connected viewer's sync state: the open conversation's
// message store and channel subscriptions, the debounced conversation list,
// and the deduplicated notification feed. The transport layer creates one per
// connection and forwards conversation open/close commands to it.
type ClientSession struct {
	cfg     ClientSessionConfig
	manager *ChannelManager
	list    *ListSynchronizer
	feed    *NotificationFeed

	mu     sync.Mutex
	store  *MessageStore
	subs   []Subscription
	closed bool
}

func NewClientSession(cfg ClientSessionConfig) *ClientSession {
	s := &ClientSession{
		cfg:     cfg,
		manager: NewChannelManager(cfg.Broadcaster, cfg.Feed),
		feed:    NewNotificationFeed(cfg.FeedCapacity),
	}
	s.list = NewListSynchronizer(cfg.ViewerID, cfg.LoadSummaries, cfg.ReloadDebounce,
		s.manager.ConversationID,
		func(conversationID string) {
			s.push("conversation-selected", map[string]string{"conversation_id": conversationID})
		})
	s.list.OnReload(func(summaries []ConversationSummary) {
		s.push("conversation-list", summaries)
	})
	return s
}

// Start subscribes the session to the shared channels and performs the
// initial conversation-list load.
func (s *ClientSession) Start(ctx context.Context) error {
	touchSub, err := s.cfg.Broadcaster.Subscribe(ConversationUpdatesChannel, EventConversationTouch, s.onConversationTouch)
	if err != nil {
		return err
	}
	userSub, err := s.cfg.Broadcaster.Subscribe(UserChannel(s.cfg.ViewerID), EventNotification, s.onNotification)
	if err != nil {
		touchSub.Unsubscribe()
		return err
	}
	globalSub, err := s.cfg.Broadcaster.Subscribe(GlobalChannel, EventNotification, s.onNotification)
	if err != nil {
		touchSub.Unsubscribe()
		userSub.Unsubscribe()
		return err
	}

	s.mu.Lock()
	s.subs = append(s.subs, touchSub, userSub, globalSub)
	s.mu.Unlock()

	if err := s.list.Reload(ctx); err != nil {
		logger.Warn("ClientSession: initial list load failed for %s: %v", s.cfg.ViewerID, err)
	}
	return nil
}

// OpenConversation seeds a fresh message store from history and opens the
// live room plus backup change-feed subscriptions. Opening a second
// conversation tears the first one down.
func (s *ClientSession) OpenConversation(conversationID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	history, err := s.cfg.LoadHistory(ctx, conversationID)
	if err != nil {
		logger.Warn("ClientSession: cannot open conversation %s for %s: %v", conversationID, s.cfg.ViewerID, err)
		return
	}

	store := NewMessageStore(s.cfg.ViewerID)
	store.Seed(history)

	s.mu.Lock()
	s.store = store
	s.mu.Unlock()

	err = s.manager.Open(conversationID, s.cfg.ViewerID,
		func(message entity.Message) {
			store.InsertFromBroadcast(message)
			s.push("messages", store.Messages())
		},
		func() {
			s.replay(conversationID, store)
		})
	if err != nil {
		logger.Warn("ClientSession: subscribe failed for conversation %s: %v", conversationID, err)
		return
	}

	s.list.SetPendingTarget(conversationID)
	s.push("messages", store.Messages())
}

// CloseConversation tears down the open conversation's subscriptions.
func (s *ClientSession) CloseConversation() {
	s.manager.Close()
	s.mu.Lock()
	s.store = nil
	s.mu.Unlock()
}

// Close releases everything. Idempotent; late broadcast callbacks are
// dropped by the channel manager's generation check.
func (s *ClientSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.store = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	s.manager.Close()
}

// Summaries exposes the current conversation list rows.
func (s *ClientSession) Summaries() []ConversationSummary {
	return s.list.Summaries()
}

// UnreadNotifications exposes the derived unread badge value.
func (s *ClientSession) UnreadNotifications() int {
	return s.feed.UnreadCount()
}

// replay re-fetches the durable rows after a change-feed signal and merges
// them into the store. Rows already delivered by broadcast deduplicate away.
func (s *ClientSession) replay(conversationID string, store *MessageStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	history, err := s.cfg.LoadHistory(ctx, conversationID)
	if err != nil {
		logger.Warn("ClientSession: change-feed replay failed for %s: %v", conversationID, err)
		return
	}
	before := store.Len()
	store.Seed(history)
	if store.Len() != before {
		s.push("messages", store.Messages())
	}
}

func (s *ClientSession) onConversationTouch(payload []byte) {
	var signal struct {
		ConversationID string   `json:"conversation_id"`
		Participants   []string `json:"participants"`
	}
	if err := json.Unmarshal(payload, &signal); err != nil {
		logger.Warn("ClientSession: dropping malformed conversation touch: %v", err)
		return
	}
	s.list.OnChangeSignal(ChangeSignal{
		ConversationID: signal.ConversationID,
		Participants:   signal.Participants,
	})
}

func (s *ClientSession) onNotification(payload []byte) {
	var wire struct {
		Type           string `json:"type"`
		Title          string `json:"title"`
		Body           string `json:"body"`
		ConversationID string `json:"conversation_id"`
		CommentID      string `json:"comment_id"`
		AnnouncementID string `json:"announcement_id"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		logger.Warn("ClientSession: dropping malformed notification: %v", err)
		return
	}

	event := FeedEvent{
		Type:      wire.Type,
		Title:     wire.Title,
		Body:      wire.Body,
		CreatedAt: time.Now(),
		Payload:   map[string]interface{}{},
	}
	if wire.ConversationID != "" {
		event.Payload["conversation_id"] = wire.ConversationID
	}
	if wire.CommentID != "" {
		event.Payload["comment_id"] = wire.CommentID
	}
	if wire.AnnouncementID != "" {
		event.Payload["announcement_id"] = wire.AnnouncementID
	}

	if s.feed.Add(event) {
		s.push("unread-count", map[string]int{"unread": s.feed.UnreadCount()})
	}
}

func (s *ClientSession) push(event string, payload interface{}) {
	s.mu.Lock()
	closed := s.closed
	push := s.cfg.Push
	s.mu.Unlock()
	if closed || push == nil {
		return
	}
	push(event, payload)
}
