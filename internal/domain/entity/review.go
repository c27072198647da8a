package entity

import (
	"time"
)

// Review is left by a buyer about a seller after a completed deal. One review
// per (reviewer, listing) pair.
type Review struct {
	ID          string    `json:"id" firestore:"id"`
	ListingID   string    `json:"listing_id" firestore:"listingId"`
	ReviewerID  string    `json:"reviewer_id" firestore:"reviewerId"`
	TargetID    string    `json:"target_id" firestore:"targetId"`
	Rating      int       `json:"rating" firestore:"rating"` // 1-5
	Content     string    `json:"content" firestore:"content"`
	Status      string    `json:"status" firestore:"status"` // "active", "hidden", "reported", "deleted"
	ReportCount int       `json:"report_count" firestore:"reportCount"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}

type ReviewReport struct {
	ID          string     `json:"id" firestore:"id"`
	ReviewID    string     `json:"review_id" firestore:"reviewId"`
	ReporterID  string     `json:"reporter_id" firestore:"reporterId"`
	Reason      string     `json:"reason" firestore:"reason"` // "inappropriate", "spam", "fake", "offensive", "other"
	Description string     `json:"description" firestore:"description"`
	Status      string     `json:"status" firestore:"status"` // "pending", "resolved", "rejected"
	CreatedAt   time.Time  `json:"created_at" firestore:"createdAt"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty" firestore:"resolvedAt,omitempty"`
}
