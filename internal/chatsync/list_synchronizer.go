package chatsync

import (
	"context"
	"sort"
	"sync"
	"time"

	"campusmarket/pkg/logger"
)

// ConversationSummary is one row of the conversation list as the viewer sees
// it. DisplayName is the linked listing's title when present, else the
// counterpart participant's name.
type ConversationSummary struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	ListingID     string    `json:"listing_id,omitempty"`
	CounterpartID string    `json:"counterpart_id"`
	LastMessage   string    `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}

// ChangeSignal is an external hint that some conversation row changed.
// Participants may be empty when the transport did not include the changed
// record.
type ChangeSignal struct {
	ConversationID string
	Participants   []string
}

// SummaryLoader fetches the viewer's full conversation list.
type SummaryLoader func(ctx context.Context) ([]ConversationSummary, error)

// ListSynchronizer keeps the conversation list consistent with server state
// without reload storms: change signals are filtered, debounced, and
// coalesced so at most one reload is in flight at a time. It also reconciles
// the selected-conversation pointer across reloads.
type ListSynchronizer struct {
	load     SummaryLoader
	viewerID string
	debounce time.Duration

	// openConversation reports the conversation currently open in the chat
	// view; signals for it are ignored because the live message path already
	// covers it.
	openConversation func() string

	// onSelect fires when the resolved selection identifier actually
	// changes, never on a reload that keeps it.
	onSelect func(conversationID string)

	// onReload fires with the fresh list after every successful reload.
	onReload func(summaries []ConversationSummary)

	mu            sync.Mutex
	summaries     []ConversationSummary
	selectedID    string
	pendingTarget string
	timer         *time.Timer
	reloading     bool
	reloadQueued  bool
}

func NewListSynchronizer(viewerID string, load SummaryLoader, debounce time.Duration, openConversation func() string, onSelect func(string)) *ListSynchronizer {
	if debounce <= 0 {
		debounce = 150 * time.Millisecond
	}
	return &ListSynchronizer{
		load:             load,
		viewerID:         viewerID,
		debounce:         debounce,
		openConversation: openConversation,
		onSelect:         onSelect,
	}
}

// OnReload registers a hook invoked with the refreshed list after every
// successful reload, debounced ones included.
func (s *ListSynchronizer) OnReload(hook func(summaries []ConversationSummary)) {
	s.mu.Lock()
	s.onReload = hook
	s.mu.Unlock()
}

// OnChangeSignal filters and debounces an external change notification.
// Signals for conversations the viewer is not part of, and for the currently
// open conversation, are dropped. Everything else schedules one coalesced
// reload.
func (s *ListSynchronizer) OnChangeSignal(signal ChangeSignal) {
	if len(signal.Participants) > 0 && !containsString(signal.Participants, s.viewerID) {
		return
	}
	if s.openConversation != nil && signal.ConversationID != "" && signal.ConversationID == s.openConversation() {
		return
	}
	s.scheduleReload()
}

// SetPendingTarget pins a conversation navigated to from elsewhere. The
// marker survives reloads that do not find it yet (race with creation) and is
// cleared only once a reload resolves it.
func (s *ListSynchronizer) SetPendingTarget(conversationID string) {
	s.mu.Lock()
	s.pendingTarget = conversationID
	s.mu.Unlock()
}

// Selected returns the currently selected conversation identifier, or "".
func (s *ListSynchronizer) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// Summaries returns the current list in display order.
func (s *ListSynchronizer) Summaries() []ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConversationSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// Reload fetches the conversation list immediately and reconciles the
// selection pointer. Used for the initial load; change signals go through
// OnChangeSignal instead.
func (s *ListSynchronizer) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.reloading {
		s.reloadQueued = true
		s.mu.Unlock()
		return nil
	}
	s.reloading = true
	s.mu.Unlock()

	err := s.runReload(ctx)

	s.mu.Lock()
	s.reloading = false
	queued := s.reloadQueued
	s.reloadQueued = false
	s.mu.Unlock()

	if queued {
		s.scheduleReload()
	}
	return err
}

func (s *ListSynchronizer) scheduleReload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reloading {
		// Coalesce: only the fact that a reload is needed survives.
		s.reloadQueued = true
		return
	}
	if s.timer != nil {
		s.timer.Reset(s.debounce)
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		s.timer = nil
		s.mu.Unlock()
		if err := s.Reload(context.Background()); err != nil {
			logger.Warn("ListSynchronizer: reload failed: %v", err)
		}
	})
}

func (s *ListSynchronizer) runReload(ctx context.Context) error {
	summaries, err := s.load(ctx)
	if err != nil {
		return err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
	})

	s.mu.Lock()
	s.summaries = summaries

	previous := s.selectedID
	resolved := s.resolveSelectionLocked()
	s.selectedID = resolved
	reloadHook := s.onReload
	s.mu.Unlock()

	if resolved != previous && s.onSelect != nil {
		s.onSelect(resolved)
	}
	if reloadHook != nil {
		fresh := make([]ConversationSummary, len(summaries))
		copy(fresh, summaries)
		reloadHook(fresh)
	}
	return nil
}

// resolveSelectionLocked picks the selected conversation: pending target if
// present in the list, else the current selection if still present, else the
// first conversation, else none.
func (s *ListSynchronizer) resolveSelectionLocked() string {
	if s.pendingTarget != "" {
		if s.containsLocked(s.pendingTarget) {
			id := s.pendingTarget
			s.pendingTarget = ""
			return id
		}
		// Not in the list yet; keep the marker for the next reload.
	}
	if s.selectedID != "" && s.containsLocked(s.selectedID) {
		return s.selectedID
	}
	if len(s.summaries) > 0 {
		return s.summaries[0].ID
	}
	return ""
}

func (s *ListSynchronizer) containsLocked(conversationID string) bool {
	for _, summary := range s.summaries {
		if summary.ID == conversationID {
			return true
		}
	}
	return false
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
