package chatsync

import (
	"context"
	"strings"

	"campusmarket/internal/domain/entity"
	"campusmarket/pkg/errors"
)

// MessagePersister writes a message to durable storage, assigning its
// identifier and timestamp.
type MessagePersister interface {
	PersistMessage(ctx context.Context, message *entity.Message) error
}

// SendInput carries everything needed to send one chat message.
type SendInput struct {
	ConversationID string
	ViewerID       string
	ViewerName     string
	Content        string
}

// SendPipeline fixes the order of side effects for an outgoing message:
// persist, then local apply, then broadcast. Peers must never receive a
// broadcast for a message that does not durably exist, otherwise a peer
// insert could reference an identifier a concurrent fetch cannot find.
type SendPipeline struct {
	persister MessagePersister
	manager   *ChannelManager
}

func NewSendPipeline(persister MessagePersister, manager *ChannelManager) *SendPipeline {
	return &SendPipeline{
		persister: persister,
		manager:   manager,
	}
}

// Send validates locally, persists, invokes onApply (message-store insert)
// and onPersisted (conversation summary refresh) with the confirmed message,
// and only then broadcasts best-effort. If persistence fails neither callback
// runs and nothing is broadcast.
func (p *SendPipeline) Send(ctx context.Context, input SendInput, onApply, onPersisted func(entity.Message)) (*entity.Message, error) {
	// Local validation, no network round-trip.
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.BadRequest("Message content cannot be empty", nil)
	}
	if input.ConversationID == "" {
		return nil, errors.BadRequest("No conversation selected", nil)
	}
	if input.ViewerID == "" {
		return nil, errors.Unauthorized("Sign in to send messages", nil)
	}

	message := &entity.Message{
		ConversationID: input.ConversationID,
		SenderID:       input.ViewerID,
		SenderName:     input.ViewerName,
		Content:        input.Content,
	}

	if err := p.persister.PersistMessage(ctx, message); err != nil {
		return nil, err
	}

	if onApply != nil {
		onApply(*message)
	}
	if onPersisted != nil {
		onPersisted(*message)
	}

	p.manager.SendBroadcast(*message)

	return message, nil
}
