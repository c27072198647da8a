package usecase

import (
	"context"
	"encoding/json"
	"log"

	"campusmarket/internal/chatsync"
	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
)

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	broadcaster      chatsync.Broadcaster
}

func NewNotificationUseCase(
	notificationRepo repository.NotificationRepository,
	broadcaster chatsync.Broadcaster,
) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		broadcaster:      broadcaster,
	}
}

func (uc *NotificationUseCase) List(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	return uc.notificationRepo.ListByUserID(ctx, userID, limit, offset)
}

func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, notificationID string) error {
	return uc.notificationRepo.MarkRead(ctx, userID, notificationID)
}

func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, userID string) error {
	return uc.notificationRepo.MarkAllRead(ctx, userID)
}

func (uc *NotificationUseCase) Delete(ctx context.Context, userID, notificationID string) error {
	return uc.notificationRepo.Delete(ctx, userID, notificationID)
}

func (uc *NotificationUseCase) CountUnread(ctx context.Context, userID string) (int64, error) {
	return uc.notificationRepo.CountUnread(ctx, userID)
}

// PublishAnnouncement stores a campus-wide announcement and pushes it on the
// shared broadcast channel every connected client listens to.
func (uc *NotificationUseCase) PublishAnnouncement(ctx context.Context, authorID, title, body string) (*entity.Announcement, error) {
	announcement := &entity.Announcement{
		AuthorID: authorID,
		Title:    title,
		Body:     body,
	}

	if err := uc.notificationRepo.CreateAnnouncement(ctx, announcement); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":            "announcement",
		"title":           title,
		"body":            body,
		"announcement_id": announcement.ID,
	})
	if err == nil {
		if err := uc.broadcaster.Publish(chatsync.GlobalChannel, chatsync.EventNotification, payload); err != nil {
			log.Printf("PublishAnnouncement: push failed: %v", err)
		}
	}

	return announcement, nil
}

func (uc *NotificationUseCase) ListAnnouncements(ctx context.Context, limit, offset int) ([]*entity.Announcement, int64, error) {
	return uc.notificationRepo.ListAnnouncements(ctx, limit, offset)
}
