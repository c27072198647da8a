package entity

import "time"

// Conversation pairs a contact initiator with a listing owner (or post
// author). Unread counts are per participant: the two sides may see
// different values for the same conversation.
type Conversation struct {
	ID            string         `json:"id" firestore:"id"`
	Participants  []string       `json:"participants" firestore:"participants"`
	InitiatorID   string         `json:"initiator_id" firestore:"initiatorId"`
	OwnerID       string         `json:"owner_id" firestore:"ownerId"`
	ListingID     string         `json:"listing_id,omitempty" firestore:"listingId,omitempty"`
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
	LastMessageAt time.Time      `json:"last_message_at" firestore:"lastMessageAt"`
	LastMessage   string         `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"`
}
