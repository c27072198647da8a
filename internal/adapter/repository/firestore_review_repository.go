package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

type firestoreReviewRepository struct {
	client *firestore.Client
}

func NewFirestoreReviewRepository(client *firestore.Client) repository.ReviewRepository {
	return &firestoreReviewRepository{
		client: client,
	}
}

func (r *firestoreReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}

	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now
	if review.Status == "" {
		review.Status = "active"
	}

	_, err := r.client.Collection("reviews").Doc(review.ID).Set(ctx, review)
	if err != nil {
		return errors.Internal("Failed to create review", err)
	}

	return nil
}

func (r *firestoreReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	doc, err := r.client.Collection("reviews").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Review", err)
		}
		return nil, errors.Internal("Failed to get review", err)
	}

	var review entity.Review
	if err := doc.DataTo(&review); err != nil {
		return nil, errors.Internal("Failed to parse review data", err)
	}

	return &review, nil
}

func (r *firestoreReviewRepository) GetByReviewerAndListing(ctx context.Context, reviewerID, listingID string) (*entity.Review, error) {
	iter := r.client.Collection("reviews").
		Where("reviewerId", "==", reviewerID).
		Where("listingId", "==", listingID).
		Limit(1).
		Documents(ctx)

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Review", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query reviews", err)
	}

	var review entity.Review
	if err := doc.DataTo(&review); err != nil {
		return nil, errors.Internal("Failed to parse review data", err)
	}

	return &review, nil
}

func (r *firestoreReviewRepository) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Review, int64, error) {
	query := r.client.Collection("reviews").Query
	for key, value := range filter {
		query = query.Where(key, "==", value)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count reviews", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var reviews []*entity.Review

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate reviews", err)
		}
		var review entity.Review
		if err := doc.DataTo(&review); err != nil {
			return nil, 0, errors.Internal("Failed to parse review data", err)
		}
		reviews = append(reviews, &review)
	}

	return reviews, total, nil
}

func (r *firestoreReviewRepository) Update(ctx context.Context, review *entity.Review) error {
	review.UpdatedAt = time.Now()

	_, err := r.client.Collection("reviews").Doc(review.ID).Set(ctx, review)
	if err != nil {
		return errors.Internal("Failed to update review", err)
	}

	return nil
}

func (r *firestoreReviewRepository) CreateReport(ctx context.Context, report *entity.ReviewReport) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}

	report.CreatedAt = time.Now()
	if report.Status == "" {
		report.Status = "pending"
	}

	_, err := r.client.Collection("reviewReports").Doc(report.ID).Set(ctx, report)
	if err != nil {
		return errors.Internal("Failed to create review report", err)
	}

	_, err = r.client.Collection("reviews").Doc(report.ReviewID).Update(ctx, []firestore.Update{
		{Path: "reportCount", Value: firestore.Increment(1)},
	})
	if err != nil {
		return errors.Internal("Failed to update report count", err)
	}

	return nil
}

func (r *firestoreReviewRepository) GetReportByID(ctx context.Context, id string) (*entity.ReviewReport, error) {
	doc, err := r.client.Collection("reviewReports").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Review report", err)
		}
		return nil, errors.Internal("Failed to get review report", err)
	}

	var report entity.ReviewReport
	if err := doc.DataTo(&report); err != nil {
		return nil, errors.Internal("Failed to parse review report data", err)
	}

	return &report, nil
}

func (r *firestoreReviewRepository) ListReports(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.ReviewReport, int64, error) {
	query := r.client.Collection("reviewReports").Query
	for key, value := range filter {
		query = query.Where(key, "==", value)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count review reports", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var reports []*entity.ReviewReport

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate review reports", err)
		}
		var report entity.ReviewReport
		if err := doc.DataTo(&report); err != nil {
			return nil, 0, errors.Internal("Failed to parse review report data", err)
		}
		reports = append(reports, &report)
	}

	return reports, total, nil
}

func (r *firestoreReviewRepository) UpdateReport(ctx context.Context, report *entity.ReviewReport) error {
	_, err := r.client.Collection("reviewReports").Doc(report.ID).Set(ctx, report)
	if err != nil {
		return errors.Internal("Failed to update review report", err)
	}

	return nil
}
