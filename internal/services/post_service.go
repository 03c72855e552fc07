package services

import (
	"context"
	"io"

	"github.com/google/uuid"

	clientpkg "github.com/geofeed/backend/internal/client"
	"github.com/geofeed/backend/internal/lib"
	"github.com/geofeed/backend/internal/orm"
)

// PostItem is a post as seen by one caller: their own like and poll vote, if
// any.
type PostItem struct {
	Post     *orm.Post
	Like     *orm.PostLike
	PollVote *orm.PollVote
}

type PostPage struct {
	Posts   []*PostItem
	HasMore bool
}

type PollInput struct {
	VotingLength int
	Options      []string
}

type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type CreatePostInput struct {
	Title     string
	Content   *string
	Latitude  float64
	Longitude float64
	Poll      *PollInput
	Image     *ImageUpload
}

type NearbyQuery struct {
	Latitude   float64
	Longitude  float64
	DistanceKm float64
	Cursor     string
	Take       int
}

// PostService defines the interface for post-related operations.
type PostService interface {
	CreatePost(ctx context.Context, input CreatePostInput) (*PostItem, error)
	GetPost(ctx context.Context, postID string) (*PostItem, error)
	ListNearbyPosts(ctx context.Context, query NearbyQuery) (*PostPage, error)
	UpdatePost(ctx context.Context, postID string, title *string, content *string) (*PostItem, error)
	DeletePost(ctx context.Context, postID string) error
}

// PostStore is the persistence used by PostService.
type PostStore interface {
	SelectPostByID(ctx context.Context, id string) (*orm.Post, error)
	SelectPostsNearby(ctx context.Context, box lib.BoundingBox, cursor string, limit int) ([]*orm.Post, bool, error)
	InsertPost(ctx context.Context, post *orm.Post) error
	UpdatePostContent(ctx context.Context, post *orm.Post) error
	SoftDeletePost(ctx context.Context, post *orm.Post) error
	SelectPostLikesByUser(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]*orm.PostLike, error)
	SelectPollVotesByUser(ctx context.Context, userID uuid.UUID, pollIDs []uuid.UUID) (map[uuid.UUID]*orm.PollVote, error)
}

// ImageUploader stores post images and returns their public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, filename string, contentType string, data io.Reader) (string, error)
}

// Geocoder resolves coordinates to place names.
type Geocoder interface {
	Reverse(ctx context.Context, latitude float64, longitude float64) (*clientpkg.Location, error)
}
