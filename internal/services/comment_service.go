package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/geofeed/backend/internal/lib"
	"github.com/geofeed/backend/internal/orm"
)

type CommentItem struct {
	Comment *orm.Comment
	Like    *orm.CommentLike
}

type CommentPage struct {
	Comments []*CommentItem
	HasMore  bool
}

type CommentQuery struct {
	ParentCommentID string
	Sort            string
	Cursor          string
	Take            int
}

// CommentService defines the interface for comment-related operations.
type CommentService interface {
	CreateComment(ctx context.Context, postID string, parentCommentID string, content string) (*CommentItem, error)
	GetComment(ctx context.Context, postID string, commentID string) (*CommentItem, error)
	ListComments(ctx context.Context, postID string, query CommentQuery) (*CommentPage, error)
	UpdateComment(ctx context.Context, postID string, commentID string, content string) (*CommentItem, error)
	DeleteComment(ctx context.Context, postID string, commentID string) error
}

type CommentStore interface {
	SelectPostByID(ctx context.Context, id string) (*orm.Post, error)
	SelectCommentByID(ctx context.Context, postID string, id string) (*orm.Comment, error)
	SelectComments(ctx context.Context, postID string, parentID *uuid.UUID, order lib.Order, cursor string, limit int) ([]*orm.Comment, bool, error)
	InsertComment(ctx context.Context, comment *orm.Comment) error
	UpdateCommentContent(ctx context.Context, comment *orm.Comment) error
	SoftDeleteComment(ctx context.Context, comment *orm.Comment) error
	SelectCommentLikesByUser(ctx context.Context, userID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]*orm.CommentLike, error)
}
