package entity

import (
	"time"
)

type User struct {
	ID          string `json:"id" firestore:"id"`
	Email       string `json:"email" firestore:"email"`
	DisplayName string `json:"display_name" firestore:"displayName"`
	Campus      string `json:"campus,omitempty" firestore:"campus,omitempty"`
	Bio         string `json:"bio,omitempty" firestore:"bio,omitempty"`
	Role        string `json:"role" firestore:"role"`     // "student", "admin"
	Status      string `json:"status" firestore:"status"` // "active", "suspended"

	AvatarURL string `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`

	// Trust score is the rolling average of review ratings received.
	TrustScore  float64 `json:"trust_score,omitempty" firestore:"trustScore,omitempty"`
	ReviewCount int     `json:"review_count,omitempty" firestore:"reviewCount,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
