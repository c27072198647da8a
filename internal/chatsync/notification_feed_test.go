package chatsync

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatEvent(conversationID string) FeedEvent {
	return FeedEvent{
		Type:    "chat",
		Title:   "New message",
		Payload: map[string]interface{}{"conversation_id": conversationID},
	}
}

func TestNotificationFeedDeduplicatesByConversation(t *testing.T) {
	feed := NewNotificationFeed(50)

	// Same logical event delivered by both the per-user and the global
	// channel: one entry.
	assert.True(t, feed.Add(chatEvent("c1")))
	assert.False(t, feed.Add(chatEvent("c1")))

	assert.Equal(t, 1, len(feed.Entries()))
	assert.Equal(t, 1, feed.UnreadCount())
}

func TestNotificationFeedDeduplicatesByComment(t *testing.T) {
	feed := NewNotificationFeed(50)
	event := FeedEvent{
		Type:    "comment",
		Payload: map[string]interface{}{"comment_id": "k1", "post_id": "p1"},
	}

	assert.True(t, feed.Add(event))
	assert.False(t, feed.Add(event))
	assert.Equal(t, 1, len(feed.Entries()))
}

func TestNotificationFeedUncorrelatedEventsNeverCollapse(t *testing.T) {
	feed := NewNotificationFeed(50)
	announcement := FeedEvent{Type: "announcement", Title: "Maintenance tonight"}

	assert.True(t, feed.Add(announcement))
	assert.True(t, feed.Add(announcement), "payload-less events get a random key each time")
	assert.Equal(t, 2, len(feed.Entries()))
}

func TestNotificationFeedDifferentTypesSameIDKeptApart(t *testing.T) {
	feed := NewNotificationFeed(50)
	payload := map[string]interface{}{"conversation_id": "c1"}

	assert.True(t, feed.Add(FeedEvent{Type: "chat", Payload: payload}))
	assert.True(t, feed.Add(FeedEvent{Type: "announcement", Payload: payload}))
	assert.Equal(t, 2, len(feed.Entries()))
}

func TestNotificationFeedCapEvictsOldest(t *testing.T) {
	feed := NewNotificationFeed(3)
	for i := 0; i < 5; i++ {
		feed.Add(chatEvent(fmt.Sprintf("c%d", i)))
	}

	entries := feed.Entries()
	require.Len(t, entries, 3)
	// Most recent first; the two oldest were trimmed.
	assert.Equal(t, "chat:c4", entries[0].Key)
	assert.Equal(t, "chat:c2", entries[2].Key)
}

func TestNotificationFeedUnreadCountDerived(t *testing.T) {
	feed := NewNotificationFeed(50)
	feed.Add(chatEvent("c1"))
	feed.Add(chatEvent("c2"))
	feed.Add(chatEvent("c3"))
	assert.Equal(t, 3, feed.UnreadCount())

	feed.MarkRead("chat:c2")
	assert.Equal(t, 2, feed.UnreadCount())

	// Deleting an unread entry lowers the count; it is never tracked apart
	// from the feed contents.
	feed.Delete("chat:c1")
	assert.Equal(t, 1, feed.UnreadCount())

	feed.MarkAllRead()
	assert.Equal(t, 0, feed.UnreadCount())
}

func TestNotificationFeedUnreadCountCeiling(t *testing.T) {
	feed := NewNotificationFeed(200)
	for i := 0; i < 150; i++ {
		feed.Add(chatEvent(fmt.Sprintf("c%d", i)))
	}
	assert.Equal(t, UnreadDisplayCeiling, feed.UnreadCount())
}

func TestNotificationFeedCollapseIdempotent(t *testing.T) {
	feed := NewNotificationFeed(50)
	feed.Add(chatEvent("c1"))
	feed.Add(chatEvent("c2"))

	feed.Collapse()
	feed.Collapse()
	assert.Equal(t, 2, len(feed.Entries()))
}
