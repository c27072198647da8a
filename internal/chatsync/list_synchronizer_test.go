package chatsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLoader serves a swappable conversation list and counts fetches.
type countingLoader struct {
	mu        sync.Mutex
	summaries []ConversationSummary
	calls     int
}

func (l *countingLoader) set(summaries []ConversationSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.summaries = summaries
}

func (l *countingLoader) load(ctx context.Context) ([]ConversationSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	out := make([]ConversationSummary, len(l.summaries))
	copy(out, l.summaries)
	return out, nil
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func summary(id string, at time.Time) ConversationSummary {
	return ConversationSummary{ID: id, DisplayName: id, LastMessageAt: at}
}

func TestListSynchronizerDebouncesRapidSignals(t *testing.T) {
	loader := &countingLoader{}
	loader.set([]ConversationSummary{summary("c1", time.Now())})
	syncer := NewListSynchronizer("alice", loader.load, 20*time.Millisecond, nil, nil)

	for i := 0; i < 10; i++ {
		syncer.OnChangeSignal(ChangeSignal{ConversationID: "c9"})
	}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, loader.count(), "rapid signals must coalesce into one reload")
	assert.Equal(t, "c1", syncer.Selected())
}

func TestListSynchronizerFiltersSignals(t *testing.T) {
	loader := &countingLoader{}
	open := "c-open"
	syncer := NewListSynchronizer("alice", loader.load, 5*time.Millisecond,
		func() string { return open }, nil)

	// Not a participant: dropped.
	syncer.OnChangeSignal(ChangeSignal{ConversationID: "c1", Participants: []string{"bob", "carol"}})
	// Currently open conversation: the live message path already covers it.
	syncer.OnChangeSignal(ChangeSignal{ConversationID: "c-open", Participants: []string{"alice", "bob"}})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, loader.count())

	// A signal the viewer participates in, for another conversation, reloads.
	syncer.OnChangeSignal(ChangeSignal{ConversationID: "c1", Participants: []string{"alice", "bob"}})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, loader.count())
}

func TestListSynchronizerSignalDuringReloadQueuesOne(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	load := func(ctx context.Context) ([]ConversationSummary, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return nil, nil
	}

	syncer := NewListSynchronizer("alice", load, 5*time.Millisecond, nil, nil)

	done := make(chan struct{})
	go func() {
		_ = syncer.Reload(context.Background())
		close(done)
	}()
	<-started

	// Several signals while a reload is in flight collapse into one follow-up.
	for i := 0; i < 5; i++ {
		syncer.OnChangeSignal(ChangeSignal{ConversationID: "c1"})
	}
	close(release)
	<-done

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestListSynchronizerOrdersByLastMessageDesc(t *testing.T) {
	base := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	loader := &countingLoader{}
	loader.set([]ConversationSummary{
		summary("old", base),
		summary("new", base.Add(time.Hour)),
		summary("mid", base.Add(time.Minute)),
	})
	syncer := NewListSynchronizer("alice", loader.load, 0, nil, nil)

	require.NoError(t, syncer.Reload(context.Background()))

	summaries := syncer.Summaries()
	require.Len(t, summaries, 3)
	assert.Equal(t, "new", summaries[0].ID)
	assert.Equal(t, "mid", summaries[1].ID)
	assert.Equal(t, "old", summaries[2].ID)
	assert.Equal(t, "new", syncer.Selected(), "defaults to the most recent conversation")
}

func TestListSynchronizerSelectionSurvivesReload(t *testing.T) {
	base := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	loader := &countingLoader{}
	loader.set([]ConversationSummary{summary("c1", base.Add(time.Hour)), summary("c2", base)})

	var selections []string
	syncer := NewListSynchronizer("alice", loader.load, 0, nil,
		func(id string) { selections = append(selections, id) })

	require.NoError(t, syncer.Reload(context.Background()))
	assert.Equal(t, []string{"c1"}, selections)

	// c1 is still present after the next reload: no selection change event.
	loader.set([]ConversationSummary{summary("c1", base.Add(2 * time.Hour)), summary("c2", base)})
	require.NoError(t, syncer.Reload(context.Background()))
	assert.Equal(t, []string{"c1"}, selections)

	// c1 disappears: selection falls back to the first conversation.
	loader.set([]ConversationSummary{summary("c2", base)})
	require.NoError(t, syncer.Reload(context.Background()))
	assert.Equal(t, []string{"c1", "c2"}, selections)
}

func TestListSynchronizerPendingTargetSurvivesMissingReload(t *testing.T) {
	base := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	loader := &countingLoader{}
	loader.set([]ConversationSummary{summary("c1", base)})
	syncer := NewListSynchronizer("alice", loader.load, 0, nil, nil)

	// Target a conversation that was just created and is not listed yet.
	syncer.SetPendingTarget("c-new")
	require.NoError(t, syncer.Reload(context.Background()))
	assert.Equal(t, "c1", syncer.Selected())

	// The marker survives and resolves once the row shows up.
	loader.set([]ConversationSummary{summary("c-new", base.Add(time.Minute)), summary("c1", base)})
	require.NoError(t, syncer.Reload(context.Background()))
	assert.Equal(t, "c-new", syncer.Selected())

	// Resolution is one-shot: a reload without the row does not re-pin it.
	loader.set([]ConversationSummary{summary("c1", base)})
	require.NoError(t, syncer.Reload(context.Background()))
	assert.Equal(t, "c1", syncer.Selected())
}
