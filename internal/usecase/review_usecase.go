package usecase

import (
	"context"
	"log"
	"time"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

type ReviewUseCase struct {
	reviewRepo  repository.ReviewRepository
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
}

func NewReviewUseCase(
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo:  reviewRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
	}
}

type CreateReviewInput struct {
	ListingID string `validate:"required"`
	Rating    int    `validate:"required,min=1,max=5"`
	Content   string `validate:"omitempty,max=2000"`
}

// CreateReview records one review per (reviewer, listing) pair. A second
// attempt conflicts rather than averaging twice into the seller's trust
// score.
func (uc *ReviewUseCase) CreateReview(ctx context.Context, reviewerID string, input CreateReviewInput) (*entity.Review, error) {
	listing, err := uc.listingRepo.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID == reviewerID {
		return nil, errors.BadRequest("You cannot review your own listing", nil)
	}

	existing, err := uc.reviewRepo.GetByReviewerAndListing(ctx, reviewerID, input.ListingID)
	if err == nil && existing != nil {
		return nil, errors.Conflict("You already reviewed this listing", nil)
	}
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	review := &entity.Review{
		ListingID:  input.ListingID,
		ReviewerID: reviewerID,
		TargetID:   listing.SellerID,
		Rating:     input.Rating,
		Content:    input.Content,
		Status:     "active",
	}

	if err := uc.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	if err := uc.updateTrustScore(ctx, listing.SellerID, input.Rating); err != nil {
		log.Printf("CreateReview: failed to update trust score for %s: %v", listing.SellerID, err)
	}

	return review, nil
}

func (uc *ReviewUseCase) GetReviewByID(ctx context.Context, id string) (*entity.Review, error) {
	return uc.reviewRepo.GetByID(ctx, id)
}

func (uc *ReviewUseCase) ListReviews(ctx context.Context, targetID string, rating int, limit, offset int) ([]*entity.Review, int64, error) {
	filter := make(map[string]interface{})

	if targetID != "" {
		filter["targetId"] = targetID
	}
	if rating > 0 {
		filter["rating"] = rating
	}
	filter["status"] = "active"

	return uc.reviewRepo.List(ctx, filter, limit, offset)
}

func (uc *ReviewUseCase) ReportReview(ctx context.Context, reporterID, reviewID, reason, description string) (*entity.ReviewReport, error) {
	review, err := uc.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.ReviewerID == reporterID {
		return nil, errors.BadRequest("Cannot report your own review", nil)
	}

	report := &entity.ReviewReport{
		ReviewID:    reviewID,
		ReporterID:  reporterID,
		Reason:      reason,
		Description: description,
		Status:      "pending",
	}

	if err := uc.reviewRepo.CreateReport(ctx, report); err != nil {
		return nil, err
	}

	review.Status = "reported"
	if err := uc.reviewRepo.Update(ctx, review); err != nil {
		log.Printf("ReportReview: failed to flag review %s: %v", reviewID, err)
	}

	return report, nil
}

// updateTrustScore folds a new rating into the target's rolling average.
func (uc *ReviewUseCase) updateTrustScore(ctx context.Context, userID string, newRating int) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	totalRating := user.TrustScore * float64(user.ReviewCount)
	user.ReviewCount++
	user.TrustScore = (totalRating + float64(newRating)) / float64(user.ReviewCount)

	return uc.userRepo.Update(ctx, user)
}

// Admin methods

func (uc *ReviewUseCase) UpdateReviewStatus(ctx context.Context, reviewID, status string) (*entity.Review, error) {
	review, err := uc.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	review.Status = status
	review.UpdatedAt = time.Now()

	if err := uc.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

func (uc *ReviewUseCase) ListReportedReviews(ctx context.Context, status string, limit, offset int) ([]*entity.ReviewReport, int64, error) {
	filter := make(map[string]interface{})
	if status != "" {
		filter["status"] = status
	}

	return uc.reviewRepo.ListReports(ctx, filter, limit, offset)
}

func (uc *ReviewUseCase) ResolveReport(ctx context.Context, reportID, status string) (*entity.ReviewReport, error) {
	if status != "resolved" && status != "rejected" {
		return nil, errors.BadRequest("Report status must be resolved or rejected", nil)
	}

	report, err := uc.reviewRepo.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	report.Status = status
	now := time.Now()
	report.ResolvedAt = &now

	if err := uc.reviewRepo.UpdateReport(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}
