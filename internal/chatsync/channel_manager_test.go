package chatsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmarket/internal/domain/entity"
)

// fakeBroadcaster is an in-process Broadcaster: Publish delivers synchronously
// to every matching subscriber and records the payload.
type fakeBroadcaster struct {
	mu   sync.Mutex
	subs map[string][]*fakeSubscription
	sent map[string][][]byte
}

type fakeSubscription struct {
	owner   *fakeBroadcaster
	key     string
	handler func(payload []byte)
	closed  bool
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		subs: make(map[string][]*fakeSubscription),
		sent: make(map[string][][]byte),
	}
}

func subKey(channel, event string) string { return channel + "/" + event }

func (b *fakeBroadcaster) Subscribe(channel, event string, handler func(payload []byte)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &fakeSubscription{owner: b, key: subKey(channel, event), handler: handler}
	b.subs[sub.key] = append(b.subs[sub.key], sub)
	return sub, nil
}

func (b *fakeBroadcaster) Publish(channel, event string, payload []byte) error {
	b.mu.Lock()
	key := subKey(channel, event)
	b.sent[key] = append(b.sent[key], payload)
	var handlers []func([]byte)
	for _, sub := range b.subs[key] {
		if !sub.closed {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.Unlock()

	for _, handler := range handlers {
		handler(payload)
	}
	return nil
}

func (b *fakeBroadcaster) published(channel, event string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent[subKey(channel, event)]
}

func (b *fakeBroadcaster) activeSubs(channel, event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, sub := range b.subs[subKey(channel, event)] {
		if !sub.closed {
			n++
		}
	}
	return n
}

func (s *fakeSubscription) Unsubscribe() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.closed = true
}

// fakeChangeFeed lets tests trigger backup change signals by hand.
type fakeChangeFeed struct {
	mu       sync.Mutex
	handlers map[string][]*feedSubscription
}

type feedSubscription struct {
	owner   *fakeChangeFeed
	id      string
	handler func()
	closed  bool
}

func newFakeChangeFeed() *fakeChangeFeed {
	return &fakeChangeFeed{handlers: make(map[string][]*feedSubscription)}
}

func (f *fakeChangeFeed) Subscribe(conversationID string, handler func()) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &feedSubscription{owner: f, id: conversationID, handler: handler}
	f.handlers[conversationID] = append(f.handlers[conversationID], sub)
	return sub, nil
}

func (f *fakeChangeFeed) fire(conversationID string) {
	f.mu.Lock()
	var handlers []func()
	for _, sub := range f.handlers[conversationID] {
		if !sub.closed {
			handlers = append(handlers, sub.handler)
		}
	}
	f.mu.Unlock()
	for _, handler := range handlers {
		handler()
	}
}

func (f *fakeChangeFeed) activeSubs(conversationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, sub := range f.handlers[conversationID] {
		if !sub.closed {
			n++
		}
	}
	return n
}

func (s *feedSubscription) Unsubscribe() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.closed = true
}

func TestChannelManagerAtMostOneConversation(t *testing.T) {
	broadcaster := newFakeBroadcaster()
	feed := newFakeChangeFeed()
	manager := NewChannelManager(broadcaster, feed)

	require.NoError(t, manager.Open("c1", "alice", func(entity.Message) {}, func() {}))
	assert.Equal(t, "c1", manager.ConversationID())
	assert.Equal(t, 1, broadcaster.activeSubs(RoomChannel("c1"), EventNewMessage))

	// Opening a second conversation tears the first one down.
	require.NoError(t, manager.Open("c2", "alice", func(entity.Message) {}, func() {}))
	assert.Equal(t, "c2", manager.ConversationID())
	assert.Equal(t, 0, broadcaster.activeSubs(RoomChannel("c1"), EventNewMessage))
	assert.Equal(t, 1, broadcaster.activeSubs(RoomChannel("c2"), EventNewMessage))
	assert.Equal(t, 0, feed.activeSubs("c1"))

	manager.Close()
	manager.Close() // idempotent
	assert.Equal(t, "", manager.ConversationID())
	assert.Equal(t, 0, broadcaster.activeSubs(RoomChannel("c2"), EventNewMessage))
	assert.Equal(t, 0, feed.activeSubs("c2"))
}

func TestChannelManagerDropsCallbacksAfterClose(t *testing.T) {
	broadcaster := newFakeBroadcaster()
	feed := newFakeChangeFeed()
	manager := NewChannelManager(broadcaster, feed)

	var received []entity.Message
	signals := 0
	require.NoError(t, manager.Open("c1", "alice",
		func(m entity.Message) { received = append(received, m) },
		func() { signals++ },
	))

	// Capture the registered handlers so we can replay them after Close,
	// simulating a transport callback that was already in flight.
	broadcaster.mu.Lock()
	roomHandler := broadcaster.subs[subKey(RoomChannel("c1"), EventNewMessage)][0].handler
	broadcaster.mu.Unlock()
	feed.mu.Lock()
	feedHandler := feed.handlers["c1"][0].handler
	feed.mu.Unlock()

	manager.Close()

	roomHandler([]byte(`{"id":"m1","conversation_id":"c1","sender_id":"bob","content":"late"}`))
	feedHandler()

	assert.Empty(t, received)
	assert.Equal(t, 0, signals)
}

func TestChannelManagerMalformedBroadcastIgnored(t *testing.T) {
	broadcaster := newFakeBroadcaster()
	manager := NewChannelManager(broadcaster, newFakeChangeFeed())

	var received []entity.Message
	require.NoError(t, manager.Open("c1", "alice",
		func(m entity.Message) { received = append(received, m) },
		func() {},
	))

	require.NoError(t, broadcaster.Publish(RoomChannel("c1"), EventNewMessage, []byte("not json")))
	assert.Empty(t, received)
}

// Two viewers of the same conversation: A sends, B receives the broadcast and
// merges exactly one copy even when the backup change feed replays the same
// durable change afterwards.
func TestTwoViewerDeliveryWithChangeFeedReplay(t *testing.T) {
	broadcaster := newFakeBroadcaster()
	feed := newFakeChangeFeed()

	var store []entity.Message
	persister := &recordingPersister{stored: &store}

	// Viewer A: sends through the pipeline.
	managerA := NewChannelManager(broadcaster, feed)
	storeA := NewMessageStore("alice")
	require.NoError(t, managerA.Open("c1", "alice",
		func(m entity.Message) { storeA.InsertFromBroadcast(m) },
		func() {},
	))
	pipeline := NewSendPipeline(persister, managerA)

	// Viewer B: listens on the same room, reconciling via fetch on backup signals.
	managerB := NewChannelManager(broadcaster, feed)
	storeB := NewMessageStore("bob")
	require.NoError(t, managerB.Open("c1", "bob",
		func(m entity.Message) { storeB.InsertFromBroadcast(m) },
		func() {
			for _, m := range store {
				storeB.InsertFromBroadcast(m)
			}
		},
	))

	_, err := pipeline.Send(context.Background(), SendInput{
		ConversationID: "c1",
		ViewerID:       "alice",
		ViewerName:     "Alice",
		Content:        "hello",
	},
		func(m entity.Message) { storeA.InsertOptimistic(m) },
		nil,
	)
	require.NoError(t, err)

	// The change feed replays the durable change B already saw live.
	feed.fire("c1")

	messagesB := storeB.Messages()
	require.Len(t, messagesB, 1)
	assert.Equal(t, "m1", messagesB[0].ID)
	assert.False(t, messagesB[0].IsOwn)
	assert.Equal(t, "hello", messagesB[0].Content)

	messagesA := storeA.Messages()
	require.Len(t, messagesA, 1)
	assert.True(t, messagesA[0].IsOwn)
}

type recordingPersister struct {
	stored *[]entity.Message
}

func (p *recordingPersister) PersistMessage(ctx context.Context, message *entity.Message) error {
	message.ID = "m1"
	message.CreatedAt = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	*p.stored = append(*p.stored, *message)
	return nil
}
