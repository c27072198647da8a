package chatsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmarket/internal/domain/entity"
	"campusmarket/pkg/errors"
)

type fakePersister struct {
	fail  bool
	calls int
}

func (p *fakePersister) PersistMessage(ctx context.Context, message *entity.Message) error {
	p.calls++
	if p.fail {
		return errors.Internal("Failed to create message", nil)
	}
	message.ID = "m1"
	message.CreatedAt = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	return nil
}

func newTestPipeline(persister *fakePersister) (*SendPipeline, *fakeBroadcaster) {
	broadcaster := newFakeBroadcaster()
	manager := NewChannelManager(broadcaster, newFakeChangeFeed())
	return NewSendPipeline(persister, manager), broadcaster
}

func TestSendPipelineOrder(t *testing.T) {
	persister := &fakePersister{}
	pipeline, broadcaster := newTestPipeline(persister)

	var effects []string
	message, err := pipeline.Send(context.Background(), SendInput{
		ConversationID: "c1",
		ViewerID:       "alice",
		ViewerName:     "Alice",
		Content:        "hello",
	},
		func(m entity.Message) { effects = append(effects, "apply:"+m.ID) },
		func(m entity.Message) { effects = append(effects, "persisted:"+m.ID) },
	)

	require.NoError(t, err)
	assert.Equal(t, "m1", message.ID)
	assert.Equal(t, []string{"apply:m1", "persisted:m1"}, effects)

	// Broadcast goes out last, on the conversation's room channel.
	published := broadcaster.published(RoomChannel("c1"), EventNewMessage)
	require.Len(t, published, 1)
	assert.Contains(t, string(published[0]), `"id":"m1"`)
}

func TestSendPipelinePersistFailureStopsEverything(t *testing.T) {
	persister := &fakePersister{fail: true}
	pipeline, broadcaster := newTestPipeline(persister)

	applied := false
	_, err := pipeline.Send(context.Background(), SendInput{
		ConversationID: "c1",
		ViewerID:       "alice",
		Content:        "hello",
	},
		func(entity.Message) { applied = true },
		func(entity.Message) { applied = true },
	)

	assert.Error(t, err)
	assert.False(t, applied, "no callback may run when persistence fails")
	assert.Empty(t, broadcaster.published(RoomChannel("c1"), EventNewMessage))
}

func TestSendPipelineLocalValidation(t *testing.T) {
	persister := &fakePersister{}
	pipeline, _ := newTestPipeline(persister)

	cases := []struct {
		name  string
		input SendInput
		code  string
	}{
		{"empty content", SendInput{ConversationID: "c1", ViewerID: "alice", Content: "   "}, "BAD_REQUEST"},
		{"no conversation", SendInput{ViewerID: "alice", Content: "hi"}, "BAD_REQUEST"},
		{"no viewer", SendInput{ConversationID: "c1", Content: "hi"}, "UNAUTHORIZED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pipeline.Send(context.Background(), tc.input, nil, nil)
			assert.True(t, errors.Is(err, tc.code))
		})
	}

	// Validation failures must not reach the durable store.
	assert.Equal(t, 0, persister.calls)
}
