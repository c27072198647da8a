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

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	_, err := r.client.Collection("users").
		Doc(notification.UserID).
		Collection("notifications").
		Doc(notification.ID).
		Set(ctx, notification)
	if err != nil {
		return errors.Internal("Failed to create notification", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	query := r.client.Collection("users").
		Doc(userID).
		Collection("notifications").
		OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count notifications", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var notifications []*entity.Notification

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate notifications", err)
		}
		var notification entity.Notification
		if err := doc.DataTo(&notification); err != nil {
			return nil, 0, errors.Internal("Failed to parse notification data", err)
		}
		notifications = append(notifications, &notification)
	}

	return notifications, total, nil
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	_, err := r.client.Collection("users").
		Doc(userID).
		Collection("notifications").
		Doc(notificationID).
		Update(ctx, []firestore.Update{{Path: "read", Value: true}})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Notification", err)
		}
		return errors.Internal("Failed to mark notification read", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	docs, err := r.client.Collection("users").
		Doc(userID).
		Collection("notifications").
		Where("read", "==", false).
		Documents(ctx).
		GetAll()
	if err != nil {
		return errors.Internal("Failed to query unread notifications", err)
	}

	batch := r.client.Batch()
	for _, doc := range docs {
		batch.Update(doc.Ref, []firestore.Update{{Path: "read", Value: true}})
	}
	if len(docs) > 0 {
		if _, err := batch.Commit(ctx); err != nil {
			return errors.Internal("Failed to mark notifications read", err)
		}
	}

	return nil
}

func (r *firestoreNotificationRepository) Delete(ctx context.Context, userID, notificationID string) error {
	_, err := r.client.Collection("users").
		Doc(userID).
		Collection("notifications").
		Doc(notificationID).
		Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete notification", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	docs, err := r.client.Collection("users").
		Doc(userID).
		Collection("notifications").
		Where("read", "==", false).
		Documents(ctx).
		GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count unread notifications", err)
	}

	return int64(len(docs)), nil
}

func (r *firestoreNotificationRepository) CreateAnnouncement(ctx context.Context, announcement *entity.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.New().String()
	}
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = time.Now()
	}

	_, err := r.client.Collection("announcements").Doc(announcement.ID).Set(ctx, announcement)
	if err != nil {
		return errors.Internal("Failed to create announcement", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) ListAnnouncements(ctx context.Context, limit, offset int) ([]*entity.Announcement, int64, error) {
	query := r.client.Collection("announcements").OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count announcements", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var announcements []*entity.Announcement

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate announcements", err)
		}
		var announcement entity.Announcement
		if err := doc.DataTo(&announcement); err != nil {
			return nil, 0, errors.Internal("Failed to parse announcement data", err)
		}
		announcements = append(announcements, &announcement)
	}

	return announcements, total, nil
}
