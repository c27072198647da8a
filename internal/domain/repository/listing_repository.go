package repository

import (
	"context"

	"campusmarket/internal/domain/entity"
)

type ListingFilter struct {
	Category string
	Status   string
	SellerID string
	Search   string
	MinPrice float64
	MaxPrice float64
}

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	List(ctx context.Context, filter ListingFilter, limit, offset int) ([]*entity.Listing, int64, error)
	Update(ctx context.Context, listing *entity.Listing) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}
