package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if listing.ID == "" {
		doc := r.client.Collection("listings").NewDoc()
		listing.ID = doc.ID
	}

	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now
	if listing.Status == "" {
		listing.Status = "active"
	}

	_, err := r.client.Collection("listings").Doc(listing.ID).Set(ctx, listing)
	if err != nil {
		return errors.Internal("Failed to create listing", err)
	}

	return nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	doc, err := r.client.Collection("listings").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Listing", err)
		}
		return nil, errors.Internal("Failed to get listing", err)
	}

	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}
	if listing.DeletedAt != nil {
		return nil, errors.NotFound("Listing", nil)
	}

	return &listing, nil
}

func (r *firestoreListingRepository) List(ctx context.Context, filter repository.ListingFilter, limit, offset int) ([]*entity.Listing, int64, error) {
	query := r.client.Collection("listings").Query

	if filter.Category != "" {
		query = query.Where("category", "==", filter.Category)
	}
	if filter.SellerID != "" {
		query = query.Where("sellerId", "==", filter.SellerID)
	}
	if filter.Status != "" {
		query = query.Where("status", "==", filter.Status)
	} else {
		query = query.Where("status", "==", "active")
	}
	if filter.MinPrice > 0 {
		query = query.Where("price", ">=", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("price", "<=", filter.MaxPrice)
	}

	if filter.MinPrice > 0 || filter.MaxPrice > 0 {
		// Firestore requires the first order-by to match the range field.
		query = query.OrderBy("price", firestore.Asc)
	} else {
		query = query.OrderBy("createdAt", firestore.Desc)
	}

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count listings", err)
	}

	// Text search happens in memory: Firestore has no substring queries.
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	var matched []*entity.Listing
	for _, doc := range allDocs {
		var listing entity.Listing
		if err := doc.DataTo(&listing); err != nil {
			return nil, 0, errors.Internal("Failed to parse listing data", err)
		}
		if listing.DeletedAt != nil {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(listing.Title), search) &&
			!strings.Contains(strings.ToLower(listing.Description), search) {
			continue
		}
		matched = append(matched, &listing)
	}
	total := int64(len(matched))

	if offset > 0 {
		if offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[offset:]
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, total, nil
}

func (r *firestoreListingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	listing.UpdatedAt = time.Now()

	_, err := r.client.Collection("listings").Doc(listing.ID).Set(ctx, listing)
	if err != nil {
		return errors.Internal("Failed to update listing", err)
	}

	return nil
}

// Delete soft-deletes: the listing disappears from reads but stays
// referenced by conversations and reviews.
func (r *firestoreListingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("listings").Doc(id).Update(ctx, []firestore.Update{
		{Path: "deletedAt", Value: time.Now()},
		{Path: "status", Value: "removed"},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Listing", err)
		}
		return errors.Internal("Failed to delete listing", err)
	}

	return nil
}

func (r *firestoreListingRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.client.Collection("listings").Doc(id).Update(ctx, []firestore.Update{
		{Path: "views", Value: firestore.Increment(1)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Listing", err)
		}
		return errors.Internal("Failed to increment listing views", err)
	}

	return nil
}
