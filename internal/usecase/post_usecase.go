package usecase

import (
	"context"
	"encoding/json"
	"log"

	"campusmarket/internal/chatsync"
	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/internal/infrastructure/ratelimit"
	"campusmarket/pkg/errors"
)

type PostUseCase struct {
	postRepo         repository.PostRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	broadcaster      chatsync.Broadcaster
	rateLimiter      *ratelimit.RateLimiter
}

func NewPostUseCase(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	broadcaster chatsync.Broadcaster,
) *PostUseCase {
	return &PostUseCase{
		postRepo:         postRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		broadcaster:      broadcaster,
		rateLimiter:      ratelimit.NewRateLimiter(),
	}
}

type CreatePostInput struct {
	Title    string `validate:"required,min=3,max=200"`
	Content  string `validate:"required,min=1"`
	Category string `validate:"omitempty"`
}

func (uc *PostUseCase) Create(ctx context.Context, authorID string, input CreatePostInput) (*entity.Post, error) {
	allowed, waitTime := uc.rateLimiter.Allow(authorID, "create_post")
	if !allowed {
		return nil, errors.TooManyRequests("Too many posts created", waitTime)
	}

	post := &entity.Post{
		AuthorID: authorID,
		Title:    input.Title,
		Content:  input.Content,
		Category: input.Category,
		Status:   "active",
	}

	if err := uc.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

func (uc *PostUseCase) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	post, err := uc.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status == "removed" {
		return nil, errors.NotFound("Post", nil)
	}
	return post, nil
}

func (uc *PostUseCase) List(ctx context.Context, category string, limit, offset int) ([]*entity.Post, int64, error) {
	return uc.postRepo.List(ctx, category, limit, offset)
}

func (uc *PostUseCase) Delete(ctx context.Context, userID, id string) error {
	post, err := uc.postRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return errors.Forbidden("Only the author can delete this post", nil)
	}
	return uc.postRepo.Delete(ctx, id)
}

type CreateCommentInput struct {
	Content string `validate:"required,min=1"`
}

// CreateComment adds a comment and notifies the post author, keyed so that
// repeat deliveries of the same comment event collapse client-side.
func (uc *PostUseCase) CreateComment(ctx context.Context, userID, postID string, input CreateCommentInput) (*entity.Comment, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "create_comment")
	if !allowed {
		return nil, errors.TooManyRequests("Too many comments", waitTime)
	}

	post, err := uc.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		PostID:   postID,
		AuthorID: userID,
		Content:  input.Content,
		Status:   "active",
	}

	if err := uc.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if post.AuthorID != userID {
		uc.notifyCommented(ctx, post, comment)
	}

	return comment, nil
}

func (uc *PostUseCase) notifyCommented(ctx context.Context, post *entity.Post, comment *entity.Comment) {
	commenter, err := uc.userRepo.GetByID(ctx, comment.AuthorID)
	commenterName := "Someone"
	if err == nil {
		commenterName = commenter.DisplayName
	}

	notification := &entity.Notification{
		UserID: post.AuthorID,
		Type:   "comment",
		Title:  commenterName + " commented on your post",
		Body:   truncatePreview(comment.Content),
		Payload: map[string]interface{}{
			"comment_id": comment.ID,
			"post_id":    post.ID,
		},
	}
	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("notifyCommented: failed to store notification: %v", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":       "comment",
		"title":      notification.Title,
		"body":       notification.Body,
		"comment_id": comment.ID,
		"post_id":    post.ID,
	})
	if err != nil {
		return
	}
	if err := uc.broadcaster.Publish(chatsync.UserChannel(post.AuthorID), chatsync.EventNotification, payload); err != nil {
		log.Printf("notifyCommented: push failed: %v", err)
	}
}

func (uc *PostUseCase) ListComments(ctx context.Context, postID string, limit, offset int) ([]*entity.Comment, int64, error) {
	if _, err := uc.GetByID(ctx, postID); err != nil {
		return nil, 0, err
	}
	return uc.postRepo.ListComments(ctx, postID, limit, offset)
}

// Vote records the caller's vote. Re-casting the same direction is a no-op;
// the opposite direction replaces the previous vote.
func (uc *PostUseCase) Vote(ctx context.Context, userID, postID string, direction int) (*entity.Post, error) {
	if direction != 1 && direction != -1 {
		return nil, errors.BadRequest("Vote direction must be +1 or -1", nil)
	}

	if _, err := uc.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	existing, err := uc.postRepo.GetVote(ctx, postID, userID)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	if existing != nil && existing.Direction == direction {
		return uc.postRepo.GetByID(ctx, postID)
	}

	vote := &entity.Vote{
		PostID:    postID,
		UserID:    userID,
		Direction: direction,
	}
	if err := uc.postRepo.SetVote(ctx, vote); err != nil {
		return nil, err
	}

	return uc.postRepo.GetByID(ctx, postID)
}

// Unvote removes the caller's vote if one exists.
func (uc *PostUseCase) Unvote(ctx context.Context, userID, postID string) (*entity.Post, error) {
	err := uc.postRepo.DeleteVote(ctx, postID, userID)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}
	return uc.postRepo.GetByID(ctx, postID)
}
