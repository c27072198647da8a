package usecase

import (
	"context"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

type WishlistUseCase struct {
	wishlistRepo repository.WishlistRepository
}

func NewWishlistUseCase(wishlistRepo repository.WishlistRepository) *WishlistUseCase {
	return &WishlistUseCase{
		wishlistRepo: wishlistRepo,
	}
}

// Add saves a listing to the caller's wishlist. Re-adding an already saved
// listing returns the state as-is; the duplicate is not surfaced as a
// failure.
func (uc *WishlistUseCase) Add(ctx context.Context, userID, listingID string) (*entity.WishlistItem, error) {
	item, err := uc.wishlistRepo.AddToWishlist(ctx, userID, listingID)
	if err != nil {
		if errors.Is(err, "CONFLICT") {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (uc *WishlistUseCase) Remove(ctx context.Context, userID, listingID string) error {
	return uc.wishlistRepo.RemoveFromWishlist(ctx, userID, listingID)
}

func (uc *WishlistUseCase) Contains(ctx context.Context, userID, listingID string) (bool, error) {
	return uc.wishlistRepo.IsInWishlist(ctx, userID, listingID)
}

func (uc *WishlistUseCase) List(ctx context.Context, userID string, limit, offset int) ([]entity.WishlistItemWithListing, int64, error) {
	return uc.wishlistRepo.GetUserWishlist(ctx, userID, limit, offset)
}

func (uc *WishlistUseCase) Count(ctx context.Context, userID string) (int64, error) {
	return uc.wishlistRepo.GetWishlistCount(ctx, userID)
}
