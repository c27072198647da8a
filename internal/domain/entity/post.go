package entity

import "time"

type Post struct {
	ID           string    `json:"id" firestore:"id"`
	AuthorID     string    `json:"author_id" firestore:"authorId"`
	Title        string    `json:"title" firestore:"title"`
	Content      string    `json:"content" firestore:"content"`
	Category     string    `json:"category,omitempty" firestore:"category,omitempty"`
	Upvotes      int       `json:"upvotes" firestore:"upvotes"`
	Downvotes    int       `json:"downvotes" firestore:"downvotes"`
	CommentCount int       `json:"comment_count" firestore:"commentCount"`
	Status       string    `json:"status" firestore:"status"` // "active", "hidden", "removed"
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" firestore:"updatedAt"`
}

type Comment struct {
	ID        string    `json:"id" firestore:"id"`
	PostID    string    `json:"post_id" firestore:"postId"`
	AuthorID  string    `json:"author_id" firestore:"authorId"`
	Content   string    `json:"content" firestore:"content"`
	Status    string    `json:"status" firestore:"status"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// Vote records one user's vote on a post. A user has at most one vote per
// post; switching direction overwrites the previous vote.
type Vote struct {
	ID        string    `json:"id" firestore:"id"`
	PostID    string    `json:"post_id" firestore:"postId"`
	UserID    string    `json:"user_id" firestore:"userId"`
	Direction int       `json:"direction" firestore:"direction"` // +1 or -1
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
