package repository

import (
	"context"

	"campusmarket/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)

	CreateAnnouncement(ctx context.Context, announcement *entity.Announcement) error
	ListAnnouncements(ctx context.Context, limit, offset int) ([]*entity.Announcement, int64, error)
}
