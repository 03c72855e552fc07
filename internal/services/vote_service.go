package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/geofeed/backend/internal/orm"
)

// PostVoteResult carries the caller's like after the vote and the post's new
// point total. Like is nil when no non-zero vote was ever cast.
type PostVoteResult struct {
	Like *orm.PostLike
	Post *orm.Post
}

type CommentVoteResult struct {
	Like    *orm.CommentLike
	Comment *orm.Comment
}

// VoteService sets the caller's vote on a post or comment and keeps the
// target's points equal to the sum of its likes.
type VoteService interface {
	VotePost(ctx context.Context, postID string, value int) (*PostVoteResult, error)
	VoteComment(ctx context.Context, postID string, commentID string, value int) (*CommentVoteResult, error)
}

type VoteStore interface {
	VotePost(ctx context.Context, postID uuid.UUID, userID uuid.UUID, value int) (*orm.PostVote, error)
	VoteComment(ctx context.Context, postID uuid.UUID, commentID uuid.UUID, userID uuid.UUID, value int) (*orm.CommentVote, error)
}
