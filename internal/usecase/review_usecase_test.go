package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmarket/internal/domain/entity"
	"campusmarket/pkg/errors"
)

type memoryReviewRepo struct {
	reviews map[string]*entity.Review
	reports map[string]*entity.ReviewReport
	nextID  int
}

func newMemoryReviewRepo() *memoryReviewRepo {
	return &memoryReviewRepo{
		reviews: make(map[string]*entity.Review),
		reports: make(map[string]*entity.ReviewReport),
	}
}

func (r *memoryReviewRepo) Create(ctx context.Context, review *entity.Review) error {
	r.nextID++
	review.ID = fmt.Sprintf("rev%d", r.nextID)
	r.reviews[review.ID] = review
	return nil
}

func (r *memoryReviewRepo) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	review, ok := r.reviews[id]
	if !ok {
		return nil, errors.NotFound("Review", nil)
	}
	return review, nil
}

func (r *memoryReviewRepo) GetByReviewerAndListing(ctx context.Context, reviewerID, listingID string) (*entity.Review, error) {
	for _, review := range r.reviews {
		if review.ReviewerID == reviewerID && review.ListingID == listingID {
			return review, nil
		}
	}
	return nil, errors.NotFound("Review", nil)
}

func (r *memoryReviewRepo) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Review, int64, error) {
	var result []*entity.Review
	for _, review := range r.reviews {
		result = append(result, review)
	}
	return result, int64(len(result)), nil
}

func (r *memoryReviewRepo) Update(ctx context.Context, review *entity.Review) error {
	r.reviews[review.ID] = review
	return nil
}

func (r *memoryReviewRepo) CreateReport(ctx context.Context, report *entity.ReviewReport) error {
	r.nextID++
	report.ID = fmt.Sprintf("rep%d", r.nextID)
	r.reports[report.ID] = report
	return nil
}

func (r *memoryReviewRepo) GetReportByID(ctx context.Context, id string) (*entity.ReviewReport, error) {
	report, ok := r.reports[id]
	if !ok {
		return nil, errors.NotFound("Report", nil)
	}
	return report, nil
}

func (r *memoryReviewRepo) ListReports(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.ReviewReport, int64, error) {
	var result []*entity.ReviewReport
	for _, report := range r.reports {
		result = append(result, report)
	}
	return result, int64(len(result)), nil
}

func (r *memoryReviewRepo) UpdateReport(ctx context.Context, report *entity.ReviewReport) error {
	r.reports[report.ID] = report
	return nil
}

func newReviewFixture() (*ReviewUseCase, *memoryReviewRepo, *memoryUserRepo) {
	reviewRepo := newMemoryReviewRepo()
	userRepo := &memoryUserRepo{users: map[string]*entity.User{
		"alice": {ID: "alice", DisplayName: "Alice"},
		"carol": {ID: "carol", DisplayName: "Carol"},
		"bob":   {ID: "bob", DisplayName: "Bob"},
	}}
	listingRepo := &memoryListingRepo{listings: map[string]*entity.Listing{
		"bike1": {ID: "bike1", Title: "Campus bike", SellerID: "bob", Status: "sold"},
		"desk1": {ID: "desk1", Title: "Desk lamp", SellerID: "bob", Status: "sold"},
	}}
	return NewReviewUseCase(reviewRepo, userRepo, listingRepo), reviewRepo, userRepo
}

func TestCreateReviewUpdatesTrustScore(t *testing.T) {
	uc, _, userRepo := newReviewFixture()
	ctx := context.Background()

	_, err := uc.CreateReview(ctx, "alice", CreateReviewInput{ListingID: "bike1", Rating: 5, Content: "great seller"})
	require.NoError(t, err)

	bob, _ := userRepo.GetByID(ctx, "bob")
	assert.Equal(t, 1, bob.ReviewCount)
	assert.InDelta(t, 5.0, bob.TrustScore, 0.001)

	_, err = uc.CreateReview(ctx, "carol", CreateReviewInput{ListingID: "desk1", Rating: 2})
	require.NoError(t, err)

	bob, _ = userRepo.GetByID(ctx, "bob")
	assert.Equal(t, 2, bob.ReviewCount)
	assert.InDelta(t, 3.5, bob.TrustScore, 0.001, "trust score is the rolling average of ratings")
}

func TestCreateReviewRejectsDuplicateAndSelf(t *testing.T) {
	uc, _, _ := newReviewFixture()
	ctx := context.Background()

	_, err := uc.CreateReview(ctx, "alice", CreateReviewInput{ListingID: "bike1", Rating: 4})
	require.NoError(t, err)

	_, err = uc.CreateReview(ctx, "alice", CreateReviewInput{ListingID: "bike1", Rating: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"), "second review for the same listing conflicts")

	_, err = uc.CreateReview(ctx, "bob", CreateReviewInput{ListingID: "bike1", Rating: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"), "sellers cannot review their own listing")
}

func TestReportReviewLifecycle(t *testing.T) {
	uc, reviewRepo, _ := newReviewFixture()
	ctx := context.Background()

	review, err := uc.CreateReview(ctx, "alice", CreateReviewInput{ListingID: "bike1", Rating: 1, Content: "scam"})
	require.NoError(t, err)

	_, err = uc.ReportReview(ctx, "alice", review.ID, "spam", "reporting my own review")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	report, err := uc.ReportReview(ctx, "carol", review.ID, "offensive", "uncalled for")
	require.NoError(t, err)
	assert.Equal(t, "pending", report.Status)
	assert.Equal(t, "reported", reviewRepo.reviews[review.ID].Status)

	resolved, err := uc.ResolveReport(ctx, report.ID, "resolved")
	require.NoError(t, err)
	assert.Equal(t, "resolved", resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = uc.ResolveReport(ctx, report.ID, "whatever")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}
