package entity

import (
	"time"
)

type ListingImage struct {
	ID           string `json:"id" firestore:"id"`
	URL          string `json:"url" firestore:"url"`
	DisplayOrder int    `json:"display_order" firestore:"displayOrder"`
}

type Listing struct {
	ID          string         `json:"id" firestore:"id"`
	SellerID    string         `json:"seller_id" firestore:"sellerId"`
	Title       string         `json:"title" firestore:"title"`
	Description string         `json:"description" firestore:"description"`
	Price       float64        `json:"price" firestore:"price"`
	Condition   string         `json:"condition" firestore:"condition"` // "new", "like_new", "used", "worn"
	Category    string         `json:"category,omitempty" firestore:"category,omitempty"`
	Images      []ListingImage `json:"images" firestore:"images"`
	Status      string         `json:"status" firestore:"status"` // "active", "sold", "hidden", "removed"

	// AI enrichment, written best-effort after creation.
	SuggestedCategory string    `json:"suggested_category,omitempty" firestore:"suggestedCategory,omitempty"`
	Embedding         []float32 `json:"-" firestore:"embedding,omitempty"`

	Views     int        `json:"views" firestore:"views"`
	CreatedAt time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time  `json:"updated_at" firestore:"updatedAt"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" firestore:"deletedAt,omitempty"`
}
