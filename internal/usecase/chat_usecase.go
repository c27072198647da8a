package usecase

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"unicode/utf8"

	"campusmarket/internal/chatsync"
	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/internal/infrastructure/ratelimit"
	"campusmarket/pkg/errors"
)

type ChatUseCase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	listingRepo      repository.ListingRepository
	notificationRepo repository.NotificationRepository
	broadcaster      chatsync.Broadcaster
	pipeline         *chatsync.SendPipeline
	rateLimiter      *ratelimit.RateLimiter
}

// conversationMessagePersister adapts the conversation repository to the
// send pipeline's persistence port.
type conversationMessagePersister struct {
	repo repository.ConversationRepository
}

func (p conversationMessagePersister) PersistMessage(ctx context.Context, message *entity.Message) error {
	return p.repo.CreateMessage(ctx, message)
}

func NewChatUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	notificationRepo repository.NotificationRepository,
	broadcaster chatsync.Broadcaster,
	feed chatsync.ChangeFeed,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	// The manager here is never Opened; the usecase only uses its broadcast
	// side. Viewer-side subscriptions live in per-connection sessions.
	manager := chatsync.NewChannelManager(broadcaster, feed)

	return &ChatUseCase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		listingRepo:      listingRepo,
		notificationRepo: notificationRepo,
		broadcaster:      broadcaster,
		pipeline:         chatsync.NewSendPipeline(conversationMessagePersister{conversationRepo}, manager),
		rateLimiter:      rateLimiter,
	}
}

type StartConversationInput struct {
	RecipientID    string
	ListingID      string
	InitialMessage string
}

type ConversationResponse struct {
	*entity.Conversation
	Listing   *entity.Listing `json:"listing,omitempty"`
	OtherUser *entity.User    `json:"other_user,omitempty"`
}

type MessageResponse struct {
	*entity.Message
	IsOwn bool `json:"is_own"`
}

// StartConversation opens the conversation between the caller and a
// recipient. When the pair already has one, the existing conversation is
// returned together with a CONFLICT error so the caller can tell reuse from
// creation and treat it as success-equivalent.
func (uc *ChatUseCase) StartConversation(ctx context.Context, userID string, input StartConversationInput) (*ConversationResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "start_conversation")
	if !allowed {
		log.Printf("StartConversation rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Too many new conversations", waitTime)
	}

	recipientID := input.RecipientID
	var listing *entity.Listing

	if input.ListingID != "" {
		var err error
		listing, err = uc.listingRepo.GetByID(ctx, input.ListingID)
		if err != nil {
			return nil, errors.NotFound("Listing", err)
		}
		recipientID = listing.SellerID
	}

	if recipientID == "" {
		return nil, errors.BadRequest("Recipient or listing is required", nil)
	}
	if recipientID == userID {
		return nil, errors.BadRequest("You cannot start a conversation with yourself", nil)
	}

	recipient, err := uc.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return nil, errors.NotFound("Recipient", err)
	}

	existing, err := uc.conversationRepo.GetByParticipants(ctx, userID, recipientID)
	if err == nil && existing != nil {
		log.Printf("StartConversation: reusing conversation %s between %s and %s", existing.ID, userID, recipientID)
		response := &ConversationResponse{Conversation: existing, OtherUser: recipient, Listing: listing}
		if input.InitialMessage != "" {
			if _, err := uc.SendMessage(ctx, userID, SendMessageInput{
				ConversationID: existing.ID,
				Content:        input.InitialMessage,
			}); err != nil {
				return nil, err
			}
		}
		return response, errors.Conflict("Conversation already exists", nil)
	}
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	conversation := &entity.Conversation{
		Participants: []string{userID, recipientID},
		InitiatorID:  userID,
		OwnerID:      recipientID,
		ListingID:    input.ListingID,
		UnreadCount:  map[string]int{userID: 0, recipientID: 0},
	}

	if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
		return nil, err
	}

	uc.publishConversationTouch(conversation)

	if input.InitialMessage != "" {
		if _, err := uc.SendMessage(ctx, userID, SendMessageInput{
			ConversationID: conversation.ID,
			Content:        input.InitialMessage,
		}); err != nil {
			return nil, err
		}
	}

	return &ConversationResponse{
		Conversation: conversation,
		OtherUser:    recipient,
		Listing:      listing,
	}, nil
}

type SendMessageInput struct {
	ConversationID string
	Content        string
}

// SendMessage drives the send pipeline: validate, persist the message,
// update the conversation row, and only then broadcast. A peer must never
// see a broadcast for a message the durable store does not hold.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID string, input SendMessageInput) (*MessageResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "send_message")
	if !allowed {
		return nil, errors.TooManyRequests("Too many messages", waitTime)
	}

	conversation, err := uc.conversationRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if !containsParticipant(conversation.Participants, userID) {
		return nil, errors.Forbidden("You are not part of this conversation", nil)
	}

	sender, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("Sender", err)
	}

	message, err := uc.pipeline.Send(ctx, chatsync.SendInput{
		ConversationID: conversation.ID,
		ViewerID:       userID,
		ViewerName:     sender.DisplayName,
		Content:        input.Content,
	}, nil, func(persisted entity.Message) {
		// Runs after the durable write and before the broadcast. The
		// conversation row carries the list preview and per-participant
		// unread counts; the sender's own count never moves.
		conversation.LastMessage = truncatePreview(persisted.Content)
		conversation.LastMessageAt = persisted.CreatedAt
		if conversation.UnreadCount == nil {
			conversation.UnreadCount = make(map[string]int)
		}
		for _, participant := range conversation.Participants {
			if participant != userID {
				conversation.UnreadCount[participant]++
			}
		}
		if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
			log.Printf("SendMessage: failed to update conversation %s: %v", conversation.ID, err)
		}
	})
	if err != nil {
		return nil, err
	}

	uc.publishConversationTouch(conversation)
	uc.notifyRecipients(ctx, conversation, sender, message)

	return &MessageResponse{Message: message, IsOwn: true}, nil
}

// publishConversationTouch tells list views that a conversation row changed.
// Participants ride along so listeners can filter signals that are not theirs.
func (uc *ChatUseCase) publishConversationTouch(conversation *entity.Conversation) {
	payload, err := json.Marshal(map[string]interface{}{
		"conversation_id": conversation.ID,
		"participants":    conversation.Participants,
	})
	if err != nil {
		return
	}
	if err := uc.broadcaster.Publish(chatsync.ConversationUpdatesChannel, chatsync.EventConversationTouch, payload); err != nil {
		log.Printf("publishConversationTouch: publish failed for %s: %v", conversation.ID, err)
	}
}

func (uc *ChatUseCase) notifyRecipients(ctx context.Context, conversation *entity.Conversation, sender *entity.User, message *entity.Message) {
	for _, participant := range conversation.Participants {
		if participant == sender.ID {
			continue
		}

		notification := &entity.Notification{
			UserID: participant,
			Type:   "chat",
			Title:  "New message from " + sender.DisplayName,
			Body:   truncatePreview(message.Content),
			Payload: map[string]interface{}{
				"conversation_id": conversation.ID,
			},
		}
		if err := uc.notificationRepo.Create(ctx, notification); err != nil {
			log.Printf("notifyRecipients: failed to store notification for %s: %v", participant, err)
		}

		payload, err := json.Marshal(map[string]interface{}{
			"type":            "chat",
			"title":           notification.Title,
			"body":            notification.Body,
			"conversation_id": conversation.ID,
		})
		if err != nil {
			continue
		}
		if err := uc.broadcaster.Publish(chatsync.UserChannel(participant), chatsync.EventNotification, payload); err != nil {
			log.Printf("notifyRecipients: push failed for %s: %v", participant, err)
		}
	}
}

func (uc *ChatUseCase) GetConversations(ctx context.Context, userID string, limit, offset int) ([]*ConversationResponse, int64, error) {
	conversations, total, err := uc.conversationRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		response := &ConversationResponse{Conversation: conversation}

		for _, participant := range conversation.Participants {
			if participant == userID {
				continue
			}
			if other, err := uc.userRepo.GetByID(ctx, participant); err == nil {
				response.OtherUser = other
			}
		}
		if conversation.ListingID != "" {
			if listing, err := uc.listingRepo.GetByID(ctx, conversation.ListingID); err == nil {
				response.Listing = listing
			}
		}

		responses = append(responses, response)
	}

	return responses, total, nil
}

// ConversationSummaries shapes the caller's conversation list for the
// list-synchronizer: one row per conversation with the viewer's own unread
// count and a display name resolved from the listing or the counterpart.
func (uc *ChatUseCase) ConversationSummaries(ctx context.Context, userID string) ([]chatsync.ConversationSummary, error) {
	responses, _, err := uc.GetConversations(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}

	summaries := make([]chatsync.ConversationSummary, 0, len(responses))
	for _, response := range responses {
		summary := chatsync.ConversationSummary{
			ID:            response.ID,
			ListingID:     response.ListingID,
			LastMessage:   response.LastMessage,
			LastMessageAt: response.LastMessageAt,
			UnreadCount:   response.UnreadCount[userID],
		}
		if response.Listing != nil {
			summary.DisplayName = response.Listing.Title
		}
		if response.OtherUser != nil {
			summary.CounterpartID = response.OtherUser.ID
			if summary.DisplayName == "" {
				summary.DisplayName = response.OtherUser.DisplayName
			}
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (uc *ChatUseCase) GetMessages(ctx context.Context, userID, conversationID string, limit, offset int) ([]*MessageResponse, int64, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if !containsParticipant(conversation.Participants, userID) {
		return nil, 0, errors.Forbidden("You are not part of this conversation", nil)
	}

	messages, total, err := uc.conversationRepo.GetMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, &MessageResponse{
			Message: message,
			IsOwn:   message.SenderID == userID,
		})
	}

	return responses, total, nil
}

// MarkConversationRead zeroes the caller's unread count; the other side's
// count is untouched.
func (uc *ChatUseCase) MarkConversationRead(ctx context.Context, userID, conversationID string) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !containsParticipant(conversation.Participants, userID) {
		return errors.Forbidden("You are not part of this conversation", nil)
	}

	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int)
	}
	if conversation.UnreadCount[userID] == 0 {
		return nil
	}
	conversation.UnreadCount[userID] = 0

	return uc.conversationRepo.Update(ctx, conversation)
}

func containsParticipant(participants []string, userID string) bool {
	for _, participant := range participants {
		if participant == userID {
			return true
		}
	}
	return false
}

// truncatePreview shortens a message for the conversation-list preview,
// cutting on a rune boundary so multi-byte text stays valid UTF-8.
func truncatePreview(content string) string {
	const maxPreview = 120
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= maxPreview {
		return content
	}
	runes := []rune(content)
	return string(runes[:maxPreview]) + "…"
}
