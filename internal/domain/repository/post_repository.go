package repository

import (
	"context"

	"campusmarket/internal/domain/entity"
)

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	List(ctx context.Context, category string, limit, offset int) ([]*entity.Post, int64, error)
	Update(ctx context.Context, post *entity.Post) error
	Delete(ctx context.Context, id string) error

	// Comment methods
	CreateComment(ctx context.Context, comment *entity.Comment) error
	GetCommentByID(ctx context.Context, postID, commentID string) (*entity.Comment, error)
	ListComments(ctx context.Context, postID string, limit, offset int) ([]*entity.Comment, int64, error)
	UpdateComment(ctx context.Context, postID string, comment *entity.Comment) error

	// Vote methods
	GetVote(ctx context.Context, postID, userID string) (*entity.Vote, error)
	SetVote(ctx context.Context, vote *entity.Vote) error
	DeleteVote(ctx context.Context, postID, userID string) error
}
