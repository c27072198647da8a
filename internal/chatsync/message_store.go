package chatsync

import (
	"sort"
	"sync"
	"time"

	"campusmarket/internal/domain/entity"
)

// StoredMessage is one entry in a MessageStore, annotated with whether the
// viewer sent it.
type StoredMessage struct {
	entity.Message
	IsOwn bool `json:"is_own"`
}

// MessageStore holds the ordered messages of one open conversation. Entries
// arrive from three sources (history fetch, the viewer's own send, remote
// broadcast) in arbitrary order; the store deduplicates by message ID and
// keeps entries sorted ascending by creation time, so arrival order never
// determines display order. A zero creation time sorts earliest; a message is
// never dropped for a bad timestamp.
type MessageStore struct {
	mu       sync.RWMutex
	viewerID string
	entries  []storedEntry
	byID     map[string]struct{}
	nextSeq  uint64
}

type storedEntry struct {
	msg StoredMessage
	seq uint64 // arrival order, tiebreak for equal timestamps
}

func NewMessageStore(viewerID string) *MessageStore {
	return &MessageStore{
		viewerID: viewerID,
		byID:     make(map[string]struct{}),
	}
}

// Seed merges a batch of fetched history into the store. Safe to call
// repeatedly: already-present identifiers are skipped.
func (s *MessageStore) Seed(messages []*entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range messages {
		if m == nil {
			continue
		}
		s.insertLocked(*m)
	}
	s.sortLocked()
}

// InsertOptimistic appends the viewer's own message right after durable
// persistence confirmed it (the identifier and timestamp are already
// server-assigned).
func (s *MessageStore) InsertOptimistic(message entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertLocked(message) {
		s.sortLocked()
	}
}

// InsertFromBroadcast merges a message delivered by the realtime transport.
// A duplicate identifier is a no-op, so the backup change-feed replaying the
// same row after the live broadcast cannot produce a second entry.
func (s *MessageStore) InsertFromBroadcast(message entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertLocked(message) {
		s.sortLocked()
	}
}

// RecomputeOwnership re-evaluates the is-own flag for every entry. Needed
// when the viewer identity resolves after the store was already populated.
func (s *MessageStore) RecomputeOwnership(viewerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewerID = viewerID
	for i := range s.entries {
		s.entries[i].msg.IsOwn = s.entries[i].msg.SenderID == viewerID
	}
}

// Messages returns the current entries in display order.
func (s *MessageStore) Messages() []StoredMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StoredMessage, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.msg
	}
	return out
}

// Len returns the number of stored messages.
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MessageStore) insertLocked(m entity.Message) bool {
	if _, exists := s.byID[m.ID]; exists {
		return false
	}
	s.byID[m.ID] = struct{}{}
	s.entries = append(s.entries, storedEntry{
		msg: StoredMessage{
			Message: m,
			IsOwn:   m.SenderID == s.viewerID,
		},
		seq: s.nextSeq,
	})
	s.nextSeq++
	return true
}

func (s *MessageStore) sortLocked() {
	// Zero timestamps (unparseable wire values, see ParseTimestamp) sort
	// earliest; equal timestamps keep arrival order.
	sort.SliceStable(s.entries, func(i, j int) bool {
		ti := s.entries[i].msg.CreatedAt
		tj := s.entries[j].msg.CreatedAt
		if ti.Equal(tj) {
			return s.entries[i].seq < s.entries[j].seq
		}
		return ti.Before(tj)
	})
}

// ParseTimestamp decodes an RFC3339 wire timestamp. A malformed value falls
// back to the zero time so the message still lands in the store (ordered
// first) instead of being dropped.
func ParseTimestamp(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
	}
	if err != nil {
		return time.Time{}
	}
	return t
}
