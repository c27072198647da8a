package repository

import (
	"context"

	"campusmarket/internal/domain/entity"
)

type WishlistRepository interface {
	AddToWishlist(ctx context.Context, userID, listingID string) (*entity.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, userID, listingID string) error
	IsInWishlist(ctx context.Context, userID, listingID string) (bool, error)
	GetUserWishlist(ctx context.Context, userID string, limit, offset int) ([]entity.WishlistItemWithListing, int64, error)
	GetWishlistCount(ctx context.Context, userID string) (int64, error)
}
