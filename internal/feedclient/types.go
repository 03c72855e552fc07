package feedclient

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Author struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Image      *string   `json:"image"`
	Reputation int64     `json:"reputation"`
}

type PostLike struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	PostID    uuid.UUID `json:"postId"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CommentLike struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	CommentID uuid.UUID `json:"commentId"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Post mirrors the server representation. Poll is kept opaque since the
// client never patches it.
type Post struct {
	ID               uuid.UUID       `json:"id"`
	AuthorID         uuid.UUID       `json:"authorId"`
	Author           *Author         `json:"author,omitempty"`
	Title            string          `json:"title"`
	Content          *string         `json:"content"`
	Latitude         float64         `json:"latitude"`
	Longitude        float64         `json:"longitude"`
	LocationName     *string         `json:"locationName"`
	FullLocationName *string         `json:"fullLocationName"`
	Images           []string        `json:"images"`
	Points           int             `json:"points"`
	CommentsCount    int             `json:"commentsCount"`
	Poll             json.RawMessage `json:"poll,omitempty"`
	Like             *PostLike       `json:"like,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type Comment struct {
	ID              uuid.UUID    `json:"id"`
	PostID          uuid.UUID    `json:"postId"`
	ParentCommentID *uuid.UUID   `json:"parentCommentId"`
	AuthorID        uuid.UUID    `json:"authorId"`
	Author          *Author      `json:"author,omitempty"`
	Content         string       `json:"content"`
	Points          int          `json:"points"`
	RepliesCount    int          `json:"repliesCount"`
	IsDeleted       bool         `json:"isDeleted"`
	Like            *CommentLike `json:"like,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

type PostPage struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"hasMore"`
}

type CommentPage struct {
	Comments []Comment `json:"comments"`
	HasMore  bool      `json:"hasMore"`
}

// InfinitePosts is the cached form of a post feed: every page loaded so far.
type InfinitePosts struct {
	Pages []PostPage
}

type InfiniteComments struct {
	Pages []CommentPage
}

type PostVoteResponse struct {
	Like *PostLike `json:"like"`
	Post Post      `json:"post"`
}

type CommentVoteResponse struct {
	Like    *CommentLike `json:"like"`
	Comment Comment      `json:"comment"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type PostsQuery struct {
	Latitude  float64
	Longitude float64
	Distance  float64
}

type CommentsQuery struct {
	Sort            string
	ParentCommentID *uuid.UUID
}
