package entity

import (
	"time"
)

type WishlistItem struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"user_id" firestore:"userId"`
	ListingID string    `json:"listing_id" firestore:"listingId"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

type WishlistItemWithListing struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ListingID string    `json:"listing_id"`
	Listing   *Listing  `json:"listing"`
	CreatedAt time.Time `json:"created_at"`
}
