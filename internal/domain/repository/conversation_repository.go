package repository

import (
	"context"

	"campusmarket/internal/domain/entity"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	GetByParticipants(ctx context.Context, initiatorID, ownerID string) (*entity.Conversation, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)
	Update(ctx context.Context, conversation *entity.Conversation) error
	Delete(ctx context.Context, id string) error

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)
}
