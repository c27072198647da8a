package chatsync

import (
	"encoding/json"
	"sync"
	"time"

	"campusmarket/internal/domain/entity"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/logger"
)

// Channel naming convention shared with the browser clients.
const (
	EventNewMessage        = "new-message"
	EventNotification      = "notification"
	EventConversationTouch = "conversation-touch"

	GlobalChannel              = "notify:all"
	ConversationUpdatesChannel = "conversation-updates"
)

func RoomChannel(conversationID string) string { return "room-" + conversationID }
func UserChannel(userID string) string         { return "notify:" + userID }

// Subscription is an active registration on the realtime transport.
type Subscription interface {
	Unsubscribe()
}

// Broadcaster is the ephemeral push transport. Delivery is best-effort and
// non-durable.
type Broadcaster interface {
	Subscribe(channel, event string, handler func(payload []byte)) (Subscription, error)
	Publish(channel, event string, payload []byte) error
}

// ChangeFeed delivers durable-store change signals for one conversation's
// messages. It is the backup path for broadcasts lost while a peer was
// disconnected, never the primary delivery path.
type ChangeFeed interface {
	Subscribe(conversationID string, handler func()) (Subscription, error)
}

// messagePayload is the wire shape of a chat message on the room channel.
type messagePayload struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	SenderName     string `json:"sender_name"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

// ChannelManager owns the subscription lifecycle for one conversation's live
// updates: an ephemeral room subscription plus a backup change-feed
// subscription. At most one conversation is open at a time; opening another
// tears the previous one down first. Callbacks that arrive after Close are
// dropped.
type ChannelManager struct {
	broadcaster Broadcaster
	feed        ChangeFeed

	mu             sync.Mutex
	conversationID string
	generation     uint64
	roomSub        Subscription
	feedSub        Subscription
}

func NewChannelManager(broadcaster Broadcaster, feed ChangeFeed) *ChannelManager {
	return &ChannelManager{
		broadcaster: broadcaster,
		feed:        feed,
	}
}

// Open subscribes to the conversation's room channel and backup change feed,
// closing any previously open conversation first. onBroadcast receives live
// messages; onBackupSignal fires when the durable store reports a change for
// this conversation.
func (m *ChannelManager) Open(conversationID, viewerID string, onBroadcast func(entity.Message), onBackupSignal func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked()

	m.generation++
	gen := m.generation
	m.conversationID = conversationID

	roomSub, err := m.broadcaster.Subscribe(RoomChannel(conversationID), EventNewMessage, func(payload []byte) {
		var wire messagePayload
		if err := json.Unmarshal(payload, &wire); err != nil {
			logger.Warn("ChannelManager: dropping malformed broadcast on %s: %v", RoomChannel(conversationID), err)
			return
		}
		msg := entity.Message{
			ID:             wire.ID,
			ConversationID: wire.ConversationID,
			SenderID:       wire.SenderID,
			SenderName:     wire.SenderName,
			Content:        wire.Content,
			CreatedAt:      ParseTimestamp(wire.CreatedAt),
		}
		if m.stale(gen) {
			return
		}
		onBroadcast(msg)
	})
	if err != nil {
		m.conversationID = ""
		return errors.Internal("Failed to subscribe to conversation channel", err)
	}
	m.roomSub = roomSub

	feedSub, err := m.feed.Subscribe(conversationID, func() {
		if m.stale(gen) {
			return
		}
		onBackupSignal()
	})
	if err != nil {
		roomSub.Unsubscribe()
		m.roomSub = nil
		m.conversationID = ""
		return errors.Internal("Failed to subscribe to conversation change feed", err)
	}
	m.feedSub = feedSub

	logger.Debug("ChannelManager: opened conversation %s for viewer %s", conversationID, viewerID)
	return nil
}

// SendBroadcast publishes a persisted message to the room channel.
// Best-effort: a publish failure is logged and swallowed, since the backup
// change-feed path reconciles any peer that missed it. It must never be
// called for a message that is not durably stored yet.
func (m *ChannelManager) SendBroadcast(message entity.Message) {
	payload, err := json.Marshal(messagePayload{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		SenderName:     message.SenderName,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		logger.Error("ChannelManager: failed to marshal broadcast for message %s: %v", message.ID, err)
		return
	}

	if err := m.broadcaster.Publish(RoomChannel(message.ConversationID), EventNewMessage, payload); err != nil {
		logger.Warn("ChannelManager: broadcast of message %s failed (peers will reconcile via change feed): %v", message.ID, err)
	}
}

// Close releases both subscriptions. Idempotent.
func (m *ChannelManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
	m.generation++
}

// ConversationID returns the currently open conversation, or "".
func (m *ChannelManager) ConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversationID
}

func (m *ChannelManager) closeLocked() {
	if m.roomSub != nil {
		m.roomSub.Unsubscribe()
		m.roomSub = nil
	}
	if m.feedSub != nil {
		m.feedSub.Unsubscribe()
		m.feedSub = nil
	}
	m.conversationID = ""
}

// stale reports whether a callback belongs to a subscription that has been
// closed or replaced since it was registered.
func (m *ChannelManager) stale(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation != gen
}
