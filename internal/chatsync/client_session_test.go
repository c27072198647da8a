package chatsync

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmarket/internal/domain/entity"
)

// pushRecorder captures the derived events a session pushes to its transport.
type pushRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *pushRecorder) push(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *pushRecorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func newSessionFixture(t *testing.T, viewerID string, history map[string][]*entity.Message, summaries []ConversationSummary) (*ClientSession, *fakeBroadcaster, *fakeChangeFeed, *pushRecorder) {
	t.Helper()

	broadcaster := newFakeBroadcaster()
	feed := newFakeChangeFeed()
	recorder := &pushRecorder{}

	session := NewClientSession(ClientSessionConfig{
		ViewerID:    viewerID,
		Broadcaster: broadcaster,
		Feed:        feed,
		LoadSummaries: func(ctx context.Context) ([]ConversationSummary, error) {
			return summaries, nil
		},
		LoadHistory: func(ctx context.Context, conversationID string) ([]*entity.Message, error) {
			return history[conversationID], nil
		},
		ReloadDebounce: 10 * time.Millisecond,
		FeedCapacity:   10,
		Push:           recorder.push,
	})
	require.NoError(t, session.Start(context.Background()))
	return session, broadcaster, feed, recorder
}

func TestClientSessionInitialLoadAndTouchReload(t *testing.T) {
	summaries := []ConversationSummary{{ID: "c1", DisplayName: "Campus bike"}}
	session, broadcaster, _, recorder := newSessionFixture(t, "alice", nil, summaries)
	defer session.Close()

	require.Len(t, session.Summaries(), 1)
	assert.Equal(t, 1, recorder.count("conversation-list"))

	// A touch for a conversation the viewer is part of schedules one
	// debounced reload; a stranger's touch is dropped.
	mine, _ := json.Marshal(map[string]interface{}{
		"conversation_id": "c2",
		"participants":    []string{"alice", "bob"},
	})
	theirs, _ := json.Marshal(map[string]interface{}{
		"conversation_id": "c3",
		"participants":    []string{"carol", "dave"},
	})
	require.NoError(t, broadcaster.Publish(ConversationUpdatesChannel, EventConversationTouch, theirs))
	for i := 0; i < 5; i++ {
		require.NoError(t, broadcaster.Publish(ConversationUpdatesChannel, EventConversationTouch, mine))
	}

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 2, recorder.count("conversation-list"), "five touches coalesce into one reload")
}

func TestClientSessionOpenMergesBroadcastAndReplay(t *testing.T) {
	durable := []*entity.Message{
		{ID: "m1", ConversationID: "c1", SenderID: "bob", Content: "hi", CreatedAt: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)},
	}
	history := map[string][]*entity.Message{"c1": durable}
	session, broadcaster, feed, recorder := newSessionFixture(t, "alice", history, nil)
	defer session.Close()

	session.OpenConversation("c1")
	require.Equal(t, 1, recorder.count("messages"))

	// A live broadcast lands...
	m2 := []*entity.Message{durable[0], {ID: "m2", ConversationID: "c1", SenderID: "bob", Content: "there?", CreatedAt: time.Date(2025, 9, 1, 10, 1, 0, 0, time.UTC)}}
	history["c1"] = m2
	payload, _ := json.Marshal(map[string]string{
		"id": "m2", "conversation_id": "c1", "sender_id": "bob",
		"sender_name": "Bob", "content": "there?",
		"created_at": m2[1].CreatedAt.Format(time.RFC3339Nano),
	})
	require.NoError(t, broadcaster.Publish(RoomChannel("c1"), EventNewMessage, payload))

	// ...and the change feed replays the same durable rows: no duplicate,
	// no extra push.
	pushesBefore := recorder.count("messages")
	feed.fire("c1")
	assert.Equal(t, pushesBefore, recorder.count("messages"), "replay of already-merged rows must not push again")

	session.CloseConversation()
}

func TestClientSessionReplayRecoversMissedBroadcast(t *testing.T) {
	history := map[string][]*entity.Message{"c1": nil}
	session, _, feed, recorder := newSessionFixture(t, "alice", history, nil)
	defer session.Close()

	session.OpenConversation("c1")

	// The broadcast never arrives, only the durable row plus the backup
	// signal.
	history["c1"] = []*entity.Message{
		{ID: "m9", ConversationID: "c1", SenderID: "bob", Content: "missed you", CreatedAt: time.Now()},
	}
	before := recorder.count("messages")
	feed.fire("c1")
	assert.Equal(t, before+1, recorder.count("messages"), "replay must deliver the missed row")
}

func TestClientSessionNotificationDedupAcrossChannels(t *testing.T) {
	session, broadcaster, _, recorder := newSessionFixture(t, "alice", nil, nil)
	defer session.Close()

	chat, _ := json.Marshal(map[string]string{
		"type": "chat", "title": "New message", "body": "hey", "conversation_id": "c1",
	})
	require.NoError(t, broadcaster.Publish(UserChannel("alice"), EventNotification, chat))
	require.NoError(t, broadcaster.Publish(UserChannel("alice"), EventNotification, chat))
	assert.Equal(t, 1, session.UnreadNotifications(), "re-delivery of the same chat event collapses")
	assert.Equal(t, 1, recorder.count("unread-count"))

	announcement, _ := json.Marshal(map[string]string{
		"type": "announcement", "title": "Library hours", "body": "open late", "announcement_id": "a1",
	})
	require.NoError(t, broadcaster.Publish(GlobalChannel, EventNotification, announcement))
	assert.Equal(t, 2, session.UnreadNotifications())
}

func TestClientSessionCloseStopsPushes(t *testing.T) {
	session, broadcaster, _, recorder := newSessionFixture(t, "alice", nil, nil)
	session.Close()
	session.Close() // idempotent

	chat, _ := json.Marshal(map[string]string{"type": "chat", "conversation_id": "c1"})
	require.NoError(t, broadcaster.Publish(UserChannel("alice"), EventNotification, chat))
	assert.Equal(t, 0, recorder.count("unread-count"))
	assert.Equal(t, 0, broadcaster.activeSubs(UserChannel("alice"), EventNotification))
}
