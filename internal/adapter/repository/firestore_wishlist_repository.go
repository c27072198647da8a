package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

type firestoreWishlistRepository struct {
	client *firestore.Client
}

func NewFirestoreWishlistRepository(client *firestore.Client) repository.WishlistRepository {
	return &firestoreWishlistRepository{client: client}
}

// AddToWishlist saves one wishlist entry. The document identifier encodes the
// (user, listing) pair, so a repeat add is a Conflict rather than a second row.
func (r *firestoreWishlistRepository) AddToWishlist(ctx context.Context, userID, listingID string) (*entity.WishlistItem, error) {
	exists, err := r.IsInWishlist(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Conflict("Listing already in wishlist", nil)
	}

	listingSnap, err := r.client.Collection("listings").Doc(listingID).Get(ctx)
	if err != nil {
		return nil, errors.NotFound("Listing", err)
	}

	var listing entity.Listing
	if err := listingSnap.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}
	if listing.Status != "active" {
		return nil, errors.BadRequest("Cannot add inactive listing to wishlist", nil)
	}

	wishlistID := fmt.Sprintf("%s_%s", userID, listingID)
	item := entity.WishlistItem{
		ID:        wishlistID,
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now(),
	}

	_, err = r.client.Collection("wishlists").Doc(wishlistID).Set(ctx, item)
	if err != nil {
		return nil, errors.Internal("Failed to add to wishlist", err)
	}

	log.Printf("Added listing %s to wishlist for user %s", listingID, userID)
	return &item, nil
}

func (r *firestoreWishlistRepository) RemoveFromWishlist(ctx context.Context, userID, listingID string) error {
	exists, err := r.IsInWishlist(ctx, userID, listingID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("Wishlist item", nil)
	}

	wishlistID := fmt.Sprintf("%s_%s", userID, listingID)
	_, err = r.client.Collection("wishlists").Doc(wishlistID).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to remove from wishlist", err)
	}

	log.Printf("Removed listing %s from wishlist for user %s", listingID, userID)
	return nil
}

func (r *firestoreWishlistRepository) IsInWishlist(ctx context.Context, userID, listingID string) (bool, error) {
	wishlistID := fmt.Sprintf("%s_%s", userID, listingID)

	doc, err := r.client.Collection("wishlists").Doc(wishlistID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, errors.Internal("Failed to check wishlist", err)
	}

	return doc.Exists(), nil
}

func (r *firestoreWishlistRepository) GetUserWishlist(ctx context.Context, userID string, limit, offset int) ([]entity.WishlistItemWithListing, int64, error) {
	query := r.client.Collection("wishlists").
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to get wishlist", err)
	}
	total := int64(len(allDocs))

	if offset > 0 {
		if offset >= len(allDocs) {
			return nil, total, nil
		}
		allDocs = allDocs[offset:]
	}
	if limit > 0 && len(allDocs) > limit {
		allDocs = allDocs[:limit]
	}

	var items []entity.WishlistItemWithListing
	for _, doc := range allDocs {
		var item entity.WishlistItem
		if err := doc.DataTo(&item); err != nil {
			return nil, 0, errors.Internal("Failed to parse wishlist data", err)
		}

		withListing := entity.WishlistItemWithListing{
			ID:        item.ID,
			UserID:    item.UserID,
			ListingID: item.ListingID,
			CreatedAt: item.CreatedAt,
		}

		// A listing removed since being wishlisted still yields the row; the
		// client decides how to render it.
		listingSnap, err := r.client.Collection("listings").Doc(item.ListingID).Get(ctx)
		if err == nil {
			var listing entity.Listing
			if err := listingSnap.DataTo(&listing); err == nil && listing.DeletedAt == nil {
				withListing.Listing = &listing
			}
		}

		items = append(items, withListing)
	}

	return items, total, nil
}

func (r *firestoreWishlistRepository) GetWishlistCount(ctx context.Context, userID string) (int64, error) {
	docs, err := r.client.Collection("wishlists").Where("userId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count wishlist", err)
	}
	return int64(len(docs)), nil
}
