package entity

import "time"

type Notification struct {
	ID        string                 `json:"id" firestore:"id"`
	UserID    string                 `json:"user_id" firestore:"userId"`
	Type      string                 `json:"type" firestore:"type"` // "chat", "comment", "announcement"
	Title     string                 `json:"title" firestore:"title"`
	Body      string                 `json:"body" firestore:"body"`
	Read      bool                   `json:"read" firestore:"read"`
	Payload   map[string]interface{} `json:"payload,omitempty" firestore:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at" firestore:"createdAt"`
}

// Announcement is a campus-wide notice published by an admin and fanned out
// on the shared broadcast channel.
type Announcement struct {
	ID        string    `json:"id" firestore:"id"`
	AuthorID  string    `json:"author_id" firestore:"authorId"`
	Title     string    `json:"title" firestore:"title"`
	Body      string    `json:"body" firestore:"body"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
