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

type firestorePostRepository struct {
	client *firestore.Client
}

func NewFirestorePostRepository(client *firestore.Client) repository.PostRepository {
	return &firestorePostRepository{
		client: client,
	}
}

func (r *firestorePostRepository) Create(ctx context.Context, post *entity.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Status == "" {
		post.Status = "active"
	}

	_, err := r.client.Collection("posts").Doc(post.ID).Set(ctx, post)
	if err != nil {
		return errors.Internal("Failed to create post", err)
	}

	return nil
}

func (r *firestorePostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	doc, err := r.client.Collection("posts").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Post", err)
		}
		return nil, errors.Internal("Failed to get post", err)
	}

	var post entity.Post
	if err := doc.DataTo(&post); err != nil {
		return nil, errors.Internal("Failed to parse post data", err)
	}

	return &post, nil
}

func (r *firestorePostRepository) List(ctx context.Context, category string, limit, offset int) ([]*entity.Post, int64, error) {
	query := r.client.Collection("posts").
		Where("status", "==", "active").
		OrderBy("createdAt", firestore.Desc)
	if category != "" {
		query = r.client.Collection("posts").
			Where("status", "==", "active").
			Where("category", "==", category).
			OrderBy("createdAt", firestore.Desc)
	}

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count posts", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var posts []*entity.Post

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate posts", err)
		}
		var post entity.Post
		if err := doc.DataTo(&post); err != nil {
			return nil, 0, errors.Internal("Failed to parse post data", err)
		}
		posts = append(posts, &post)
	}

	return posts, total, nil
}

func (r *firestorePostRepository) Update(ctx context.Context, post *entity.Post) error {
	post.UpdatedAt = time.Now()

	_, err := r.client.Collection("posts").Doc(post.ID).Set(ctx, post)
	if err != nil {
		return errors.Internal("Failed to update post", err)
	}

	return nil
}

func (r *firestorePostRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("posts").Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: "removed"},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Post", err)
		}
		return errors.Internal("Failed to delete post", err)
	}

	return nil
}

func (r *firestorePostRepository) CreateComment(ctx context.Context, comment *entity.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}

	comment.CreatedAt = time.Now()
	if comment.Status == "" {
		comment.Status = "active"
	}

	_, err := r.client.Collection("posts").
		Doc(comment.PostID).
		Collection("comments").
		Doc(comment.ID).
		Set(ctx, comment)
	if err != nil {
		return errors.Internal("Failed to create comment", err)
	}

	// Keep the denormalized counter in step with the subcollection.
	_, err = r.client.Collection("posts").Doc(comment.PostID).Update(ctx, []firestore.Update{
		{Path: "commentCount", Value: firestore.Increment(1)},
	})
	if err != nil {
		return errors.Internal("Failed to update comment count", err)
	}

	return nil
}

func (r *firestorePostRepository) GetCommentByID(ctx context.Context, postID, commentID string) (*entity.Comment, error) {
	doc, err := r.client.Collection("posts").Doc(postID).Collection("comments").Doc(commentID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Comment", err)
		}
		return nil, errors.Internal("Failed to get comment", err)
	}

	var comment entity.Comment
	if err := doc.DataTo(&comment); err != nil {
		return nil, errors.Internal("Failed to parse comment data", err)
	}

	return &comment, nil
}

func (r *firestorePostRepository) ListComments(ctx context.Context, postID string, limit, offset int) ([]*entity.Comment, int64, error) {
	query := r.client.Collection("posts").
		Doc(postID).
		Collection("comments").
		Where("status", "==", "active").
		OrderBy("createdAt", firestore.Asc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count comments", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var comments []*entity.Comment

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate comments", err)
		}
		var comment entity.Comment
		if err := doc.DataTo(&comment); err != nil {
			return nil, 0, errors.Internal("Failed to parse comment data", err)
		}
		comments = append(comments, &comment)
	}

	return comments, total, nil
}

func (r *firestorePostRepository) UpdateComment(ctx context.Context, postID string, comment *entity.Comment) error {
	_, err := r.client.Collection("posts").
		Doc(postID).
		Collection("comments").
		Doc(comment.ID).
		Set(ctx, comment)
	if err != nil {
		return errors.Internal("Failed to update comment", err)
	}

	return nil
}

// Votes live in a subcollection keyed by voter, which makes one-vote-per-user
// a document identity rather than something to police in queries.
func (r *firestorePostRepository) GetVote(ctx context.Context, postID, userID string) (*entity.Vote, error) {
	doc, err := r.client.Collection("posts").Doc(postID).Collection("votes").Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Vote", err)
		}
		return nil, errors.Internal("Failed to get vote", err)
	}

	var vote entity.Vote
	if err := doc.DataTo(&vote); err != nil {
		return nil, errors.Internal("Failed to parse vote data", err)
	}

	return &vote, nil
}

func (r *firestorePostRepository) SetVote(ctx context.Context, vote *entity.Vote) error {
	if vote.ID == "" {
		vote.ID = vote.UserID
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now()
	}

	previous, err := r.GetVote(ctx, vote.PostID, vote.UserID)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return err
	}

	_, err = r.client.Collection("posts").
		Doc(vote.PostID).
		Collection("votes").
		Doc(vote.UserID).
		Set(ctx, vote)
	if err != nil {
		return errors.Internal("Failed to set vote", err)
	}

	updates := voteCounterUpdates(previous, vote)
	if len(updates) == 0 {
		return nil
	}
	_, err = r.client.Collection("posts").Doc(vote.PostID).Update(ctx, updates)
	if err != nil {
		return errors.Internal("Failed to update vote counters", err)
	}

	return nil
}

func (r *firestorePostRepository) DeleteVote(ctx context.Context, postID, userID string) error {
	previous, err := r.GetVote(ctx, postID, userID)
	if err != nil {
		return err
	}

	_, err = r.client.Collection("posts").Doc(postID).Collection("votes").Doc(userID).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete vote", err)
	}

	updates := voteCounterUpdates(previous, nil)
	if len(updates) == 0 {
		return nil
	}
	_, err = r.client.Collection("posts").Doc(postID).Update(ctx, updates)
	if err != nil {
		return errors.Internal("Failed to update vote counters", err)
	}

	return nil
}

func voteCounterUpdates(previous, current *entity.Vote) []firestore.Update {
	var updates []firestore.Update
	if previous != nil {
		field := "upvotes"
		if previous.Direction < 0 {
			field = "downvotes"
		}
		updates = append(updates, firestore.Update{Path: field, Value: firestore.Increment(-1)})
	}
	if current != nil {
		field := "upvotes"
		if current.Direction < 0 {
			field = "downvotes"
		}
		updates = append(updates, firestore.Update{Path: field, Value: firestore.Increment(1)})
	}
	return updates
}
