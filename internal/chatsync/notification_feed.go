package chatsync

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// UnreadDisplayCeiling caps the unread badge value.
const UnreadDisplayCeiling = 99

// FeedEvent is one push notification as delivered by either the per-user
// channel or the global announcement channel.
type FeedEvent struct {
	Type      string
	Title     string
	Body      string
	CreatedAt time.Time
	Payload   map[string]interface{}
}

// FeedEntry is a deduplicated entry in the notification feed.
type FeedEntry struct {
	Key       string                 `json:"key"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// DeduplicationKey derives the key that identifies re-deliveries of the same
// logical event: type plus the conversation identifier when present, else
// type plus the comment identifier (comments are globally unique), else a
// random value so uncorrelated events never collapse into each other.
func DeduplicationKey(eventType string, payload map[string]interface{}) string {
	if id, ok := payload["conversation_id"].(string); ok && id != "" {
		return eventType + ":" + id
	}
	if id, ok := payload["comment_id"].(string); ok && id != "" {
		return eventType + ":" + id
	}
	return eventType + ":" + uuid.New().String()
}

// NotificationFeed merges notifications from two independent broadcast
// sources into a bounded, order-preserving, duplicate-free list. The unread
// count is always derived from the feed contents, never tracked separately,
// so it cannot drift.
type NotificationFeed struct {
	mu      sync.Mutex
	cap     int
	entries []FeedEntry // most recent first
}

func NewNotificationFeed(capacity int) *NotificationFeed {
	if capacity <= 0 {
		capacity = 50
	}
	return &NotificationFeed{cap: capacity}
}

// Add merges one incoming event. A duplicate key is a no-op; otherwise the
// event is prepended unread and the feed trimmed to its cap. Returns whether
// the event produced a new entry.
func (f *NotificationFeed) Add(event FeedEvent) bool {
	key := DeduplicationKey(event.Type, event.Payload)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, entry := range f.entries {
		if entry.Key == key {
			return false
		}
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	f.entries = append([]FeedEntry{{
		Key:       key,
		Type:      event.Type,
		Title:     event.Title,
		Body:      event.Body,
		Read:      false,
		CreatedAt: createdAt,
		Payload:   event.Payload,
	}}, f.entries...)

	if len(f.entries) > f.cap {
		f.entries = f.entries[:f.cap]
	}
	return true
}

// Collapse removes strictly-equal-key duplicates, keeping the first
// occurrence. Idempotent; a safety net for keys computed on two code paths.
func (f *NotificationFeed) Collapse() {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[string]struct{}, len(f.entries))
	kept := f.entries[:0]
	for _, entry := range f.entries {
		if _, dup := seen[entry.Key]; dup {
			continue
		}
		seen[entry.Key] = struct{}{}
		kept = append(kept, entry)
	}
	f.entries = kept
}

// UnreadCount derives the unread badge value from the current feed, capped
// at the display ceiling.
func (f *NotificationFeed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, entry := range f.entries {
		if !entry.Read {
			count++
		}
	}
	if count > UnreadDisplayCeiling {
		return UnreadDisplayCeiling
	}
	return count
}

// MarkRead flags one entry as read.
func (f *NotificationFeed) MarkRead(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].Key == key {
			f.entries[i].Read = true
			return
		}
	}
}

// MarkAllRead flags every entry as read.
func (f *NotificationFeed) MarkAllRead() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		f.entries[i].Read = true
	}
}

// Delete removes one entry.
func (f *NotificationFeed) Delete(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].Key == key {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return
		}
	}
}

// Entries returns the feed in most-recent-first order.
func (f *NotificationFeed) Entries() []FeedEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FeedEntry, len(f.entries))
	copy(out, f.entries)
	return out
}
