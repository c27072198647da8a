package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}

	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int)
	}

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Internal("Failed to create conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

// GetByParticipants finds the existing conversation between an initiator and
// an owner, regardless of which side started it.
func (r *firestoreConversationRepository) GetByParticipants(ctx context.Context, initiatorID, ownerID string) (*entity.Conversation, error) {
	iter := r.client.Collection("conversations").
		Where("participants", "array-contains", initiatorID).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to query conversations", err)
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return nil, errors.Internal("Failed to parse conversation data", err)
		}
		for _, participant := range conversation.Participants {
			if participant == ownerID {
				return &conversation, nil
			}
		}
	}

	return nil, errors.NotFound("Conversation", nil)
}

func (r *firestoreConversationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.client.Collection("conversations").
		Where("participants", "array-contains", userID).
		OrderBy("lastMessageAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count conversations", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var conversations []*entity.Conversation

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate conversations", err)
		}
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return nil, 0, errors.Internal("Failed to parse conversation data", err)
		}
		conversations = append(conversations, &conversation)
	}

	return conversations, total, nil
}

func (r *firestoreConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	conversation.UpdatedAt = time.Now()

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Internal("Failed to update conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("conversations").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	message.CreatedAt = time.Now()

	_, err := r.client.Collection("conversations").
		Doc(message.ConversationID).
		Collection("messages").
		Doc(message.ID).
		Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("conversations").
		Doc(conversationID).
		Collection("messages").
		OrderBy("createdAt", firestore.Asc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count messages", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, total, nil
}
