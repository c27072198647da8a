package usecase

import (
	"context"
	"log"
	"time"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/internal/infrastructure/ratelimit"
	"campusmarket/pkg/errors"
)

type ListingUseCase struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	enrichment  EnrichmentService
	rateLimiter *ratelimit.RateLimiter
}

func NewListingUseCase(
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	enrichment EnrichmentService,
) *ListingUseCase {
	return &ListingUseCase{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		enrichment:  enrichment,
		rateLimiter: ratelimit.NewRateLimiter(),
	}
}

type CreateListingInput struct {
	Title       string   `validate:"required,min=3,max=120"`
	Description string   `validate:"required,min=10"`
	Price       float64  `validate:"required,gt=0"`
	Condition   string   `validate:"required,oneof=new like_new used worn"`
	Category    string   `validate:"omitempty"`
	ImageURLs   []string `validate:"omitempty,dive,url"`
}

func (uc *ListingUseCase) Create(ctx context.Context, sellerID string, input CreateListingInput) (*entity.Listing, error) {
	allowed, waitTime := uc.rateLimiter.Allow(sellerID, "create_listing")
	if !allowed {
		return nil, errors.TooManyRequests("Too many listings created", waitTime)
	}

	images := make([]entity.ListingImage, 0, len(input.ImageURLs))
	for i, url := range input.ImageURLs {
		images = append(images, entity.ListingImage{
			ID:           url,
			URL:          url,
			DisplayOrder: i,
		})
	}

	listing := &entity.Listing{
		SellerID:    sellerID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Condition:   input.Condition,
		Category:    input.Category,
		Images:      images,
		Status:      "active",
	}

	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	// Enrichment never blocks or fails creation; the listing is fine
	// without a suggested category or embedding.
	go uc.enrich(listing.ID, listing.Title, listing.Description)

	return listing, nil
}

func (uc *ListingUseCase) enrich(listingID, title, description string) {
	if uc.enrichment == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		log.Printf("enrich: listing %s vanished before enrichment: %v", listingID, err)
		return
	}

	changed := false
	if category, err := uc.enrichment.ClassifyListing(ctx, title, description); err != nil {
		log.Printf("enrich: classify failed for %s: %v", listingID, err)
	} else if category != "" {
		listing.SuggestedCategory = category
		changed = true
	}

	if embedding, err := uc.enrichment.EmbedText(ctx, title+"\n"+description); err != nil {
		log.Printf("enrich: embed failed for %s: %v", listingID, err)
	} else if len(embedding) > 0 {
		listing.Embedding = embedding
		changed = true
	}

	if !changed {
		return
	}
	if err := uc.listingRepo.Update(ctx, listing); err != nil {
		log.Printf("enrich: failed to save enrichment for %s: %v", listingID, err)
	}
}

type ListingDetail struct {
	*entity.Listing
	Seller *entity.User `json:"seller,omitempty"`
}

// GetByID returns one listing and records the view when the viewer is not
// the seller.
func (uc *ListingUseCase) GetByID(ctx context.Context, viewerID, id string) (*ListingDetail, error) {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if viewerID != listing.SellerID {
		if err := uc.listingRepo.IncrementViews(ctx, id); err != nil {
			log.Printf("GetByID: failed to record view for %s: %v", id, err)
		} else {
			listing.Views++
		}
	}

	detail := &ListingDetail{Listing: listing}
	if seller, err := uc.userRepo.GetByID(ctx, listing.SellerID); err == nil {
		detail.Seller = seller
	}

	return detail, nil
}

func (uc *ListingUseCase) List(ctx context.Context, filter repository.ListingFilter, limit, offset int) ([]*entity.Listing, int64, error) {
	return uc.listingRepo.List(ctx, filter, limit, offset)
}

type UpdateListingInput struct {
	Title       string  `validate:"omitempty,min=3,max=120"`
	Description string  `validate:"omitempty,min=10"`
	Price       float64 `validate:"omitempty,gt=0"`
	Condition   string  `validate:"omitempty,oneof=new like_new used worn"`
	Category    string
	Status      string `validate:"omitempty,oneof=active sold hidden"`
}

func (uc *ListingUseCase) Update(ctx context.Context, userID, id string, input UpdateListingInput) (*entity.Listing, error) {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != userID {
		return nil, errors.Forbidden("Only the seller can edit this listing", nil)
	}

	textChanged := (input.Title != "" && input.Title != listing.Title) ||
		(input.Description != "" && input.Description != listing.Description)

	if input.Title != "" {
		listing.Title = input.Title
	}
	if input.Description != "" {
		listing.Description = input.Description
	}
	if input.Price > 0 {
		listing.Price = input.Price
	}
	if input.Condition != "" {
		listing.Condition = input.Condition
	}
	if input.Category != "" {
		listing.Category = input.Category
	}
	if input.Status != "" {
		listing.Status = input.Status
	}

	if err := uc.listingRepo.Update(ctx, listing); err != nil {
		return nil, err
	}

	if textChanged {
		go uc.enrich(listing.ID, listing.Title, listing.Description)
	}

	return listing, nil
}

func (uc *ListingUseCase) Delete(ctx context.Context, userID, id string) error {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if listing.SellerID != userID {
		return errors.Forbidden("Only the seller can delete this listing", nil)
	}

	return uc.listingRepo.Delete(ctx, id)
}

// MarkSold flips a listing to sold, preserving it for reviews.
func (uc *ListingUseCase) MarkSold(ctx context.Context, userID, id string) (*entity.Listing, error) {
	return uc.Update(ctx, userID, id, UpdateListingInput{Status: "sold"})
}
