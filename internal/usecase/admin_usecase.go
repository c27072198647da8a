package usecase

import (
	"context"
	"log"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

// AdminUseCase groups the moderation operations behind the admin surface.
// Authorization happens in middleware; these methods assume the caller is an
// admin.
type AdminUseCase struct {
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	postRepo    repository.PostRepository
}

func NewAdminUseCase(
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	postRepo repository.PostRepository,
) *AdminUseCase {
	return &AdminUseCase{
		userRepo:    userRepo,
		listingRepo: listingRepo,
		postRepo:    postRepo,
	}
}

func (uc *AdminUseCase) SetUserStatus(ctx context.Context, userID, status string) (*entity.User, error) {
	if status != "active" && status != "suspended" {
		return nil, errors.BadRequest("User status must be active or suspended", nil)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Status = status
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("Admin set user %s status to %s", userID, status)
	return user, nil
}

func (uc *AdminUseCase) SetListingStatus(ctx context.Context, listingID, status string) (*entity.Listing, error) {
	if status != "active" && status != "hidden" && status != "removed" {
		return nil, errors.BadRequest("Listing status must be active, hidden or removed", nil)
	}

	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	listing.Status = status
	if err := uc.listingRepo.Update(ctx, listing); err != nil {
		return nil, err
	}

	log.Printf("Admin set listing %s status to %s", listingID, status)
	return listing, nil
}

func (uc *AdminUseCase) SetPostStatus(ctx context.Context, postID, status string) (*entity.Post, error) {
	if status != "active" && status != "hidden" && status != "removed" {
		return nil, errors.BadRequest("Post status must be active, hidden or removed", nil)
	}

	post, err := uc.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	post.Status = status
	if err := uc.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	log.Printf("Admin set post %s status to %s", postID, status)
	return post, nil
}

func (uc *AdminUseCase) RemoveComment(ctx context.Context, postID, commentID string) error {
	comment, err := uc.postRepo.GetCommentByID(ctx, postID, commentID)
	if err != nil {
		return err
	}

	comment.Status = "removed"
	if err := uc.postRepo.UpdateComment(ctx, postID, comment); err != nil {
		return err
	}

	log.Printf("Admin removed comment %s on post %s", commentID, postID)
	return nil
}
