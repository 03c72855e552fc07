package http

import (
	"time"

	"github.com/google/uuid"

	ormpkg "github.com/geofeed/backend/internal/orm"
	"github.com/geofeed/backend/internal/services"
)

type AuthorResponse struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Image      *string   `json:"image"`
	Reputation int64     `json:"reputation"`
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Image      *string   `json:"image"`
	IsVerified bool      `json:"isVerified"`
	Reputation int64     `json:"reputation"`
	CreatedAt  time.Time `json:"createdAt"`
}

type PostLikeResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	PostID    uuid.UUID `json:"postId"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CommentLikeResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	CommentID uuid.UUID `json:"commentId"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PollOptionResponse struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Order     int       `json:"order"`
	VoteCount int       `json:"voteCount"`
}

type PollVoteResponse struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	PollID       uuid.UUID `json:"pollId"`
	PollOptionID uuid.UUID `json:"pollOptionId"`
	CreatedAt    time.Time `json:"createdAt"`
}

type PollResponse struct {
	ID                uuid.UUID            `json:"id"`
	VotingLength      int                  `json:"votingLength"`
	ParticipantsCount int                  `json:"participantsCount"`
	EndsAt            time.Time            `json:"endsAt"`
	IsClosed          bool                 `json:"isClosed"`
	Options           []PollOptionResponse `json:"options"`
	Vote              *PollVoteResponse    `json:"vote,omitempty"`
}

// PostResponse is a post as rendered to clients. Author and Like are left out
// of vote responses.
type PostResponse struct {
	ID               uuid.UUID         `json:"id"`
	AuthorID         uuid.UUID         `json:"authorId"`
	Author           *AuthorResponse   `json:"author,omitempty"`
	Title            string            `json:"title"`
	Content          *string           `json:"content"`
	Latitude         float64           `json:"latitude"`
	Longitude        float64           `json:"longitude"`
	LocationName     *string           `json:"locationName"`
	FullLocationName *string           `json:"fullLocationName"`
	Images           []string          `json:"images"`
	Points           int               `json:"points"`
	CommentsCount    int               `json:"commentsCount"`
	Poll             *PollResponse     `json:"poll,omitempty"`
	Like             *PostLikeResponse `json:"like,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

type CommentResponse struct {
	ID              uuid.UUID            `json:"id"`
	PostID          uuid.UUID            `json:"postId"`
	ParentCommentID *uuid.UUID           `json:"parentCommentId"`
	AuthorID        uuid.UUID            `json:"authorId"`
	Author          *AuthorResponse      `json:"author,omitempty"`
	Content         string               `json:"content"`
	Points          int                  `json:"points"`
	RepliesCount    int                  `json:"repliesCount"`
	IsDeleted       bool                 `json:"isDeleted"`
	Like            *CommentLikeResponse `json:"like,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

type PostPageResponse struct {
	Posts   []PostResponse `json:"posts"`
	HasMore bool           `json:"hasMore"`
}

type CommentPageResponse struct {
	Comments []CommentResponse `json:"comments"`
	HasMore  bool              `json:"hasMore"`
}

type PostVoteResponse struct {
	Like *PostLikeResponse `json:"like"`
	Post PostResponse      `json:"post"`
}

type CommentVoteResponse struct {
	Like    *CommentLikeResponse `json:"like"`
	Comment CommentResponse      `json:"comment"`
}

type PollVoteResultResponse struct {
	Vote       PollVoteResponse   `json:"vote"`
	Poll       PollResponse       `json:"poll"`
	PollOption PollOptionResponse `json:"pollOption"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func newAuthorResponse(user *ormpkg.User) *AuthorResponse {
	if user == nil || user.ID == uuid.Nil {
		return nil
	}
	return &AuthorResponse{
		ID:         user.ID,
		Username:   user.Username,
		Image:      user.Image,
		Reputation: user.Reputation,
	}
}

func newUserResponse(user *ormpkg.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Image:      user.Image,
		IsVerified: user.IsVerified,
		Reputation: user.Reputation,
		CreatedAt:  user.CreatedAt,
	}
}

func newPostLikeResponse(like *ormpkg.PostLike) *PostLikeResponse {
	if like == nil {
		return nil
	}
	return &PostLikeResponse{
		ID:        like.ID,
		UserID:    like.UserID,
		PostID:    like.PostID,
		Value:     like.Value,
		CreatedAt: like.CreatedAt,
		UpdatedAt: like.UpdatedAt,
	}
}

func newCommentLikeResponse(like *ormpkg.CommentLike) *CommentLikeResponse {
	if like == nil {
		return nil
	}
	return &CommentLikeResponse{
		ID:        like.ID,
		UserID:    like.UserID,
		CommentID: like.CommentID,
		Value:     like.Value,
		CreatedAt: like.CreatedAt,
		UpdatedAt: like.UpdatedAt,
	}
}

func newPollOptionResponse(option ormpkg.PollOption) PollOptionResponse {
	return PollOptionResponse{
		ID:        option.ID,
		Text:      option.Text,
		Order:     option.Order,
		VoteCount: option.VoteCount,
	}
}

func newPollVoteResponse(vote *ormpkg.PollVote) *PollVoteResponse {
	if vote == nil {
		return nil
	}
	return &PollVoteResponse{
		ID:           vote.ID,
		UserID:       vote.UserID,
		PollID:       vote.PollID,
		PollOptionID: vote.PollOptionID,
		CreatedAt:    vote.CreatedAt,
	}
}

func newPollResponse(poll *ormpkg.Poll, vote *ormpkg.PollVote) *PollResponse {
	if poll == nil {
		return nil
	}

	options := make([]PollOptionResponse, 0, len(poll.Options))
	for _, option := range poll.Options {
		options = append(options, newPollOptionResponse(option))
	}

	return &PollResponse{
		ID:                poll.ID,
		VotingLength:      poll.VotingLength,
		ParticipantsCount: poll.ParticipantsCount,
		EndsAt:            poll.EndsAt(),
		IsClosed:          poll.IsClosed(time.Now()),
		Options:           options,
		Vote:              newPollVoteResponse(vote),
	}
}

// newPostResponse renders the bare post without author, poll or like.
func newPostResponse(post *ormpkg.Post) PostResponse {
	images := []string(post.Images)
	if images == nil {
		images = []string{}
	}

	return PostResponse{
		ID:               post.ID,
		AuthorID:         post.AuthorID,
		Title:            post.Title,
		Content:          post.Content,
		Latitude:         post.Latitude,
		Longitude:        post.Longitude,
		LocationName:     post.LocationName,
		FullLocationName: post.FullLocationName,
		Images:           images,
		Points:           post.Points,
		CommentsCount:    post.CommentsCount,
		CreatedAt:        post.CreatedAt,
		UpdatedAt:        post.UpdatedAt,
	}
}

func newPostItemResponse(item *services.PostItem) PostResponse {
	response := newPostResponse(item.Post)
	response.Author = newAuthorResponse(&item.Post.Author)
	response.Poll = newPollResponse(item.Post.Poll, item.PollVote)
	response.Like = newPostLikeResponse(item.Like)
	return response
}

func newCommentResponse(comment *ormpkg.Comment) CommentResponse {
	return CommentResponse{
		ID:              comment.ID,
		PostID:          comment.PostID,
		ParentCommentID: comment.ParentCommentID,
		AuthorID:        comment.AuthorID,
		Content:         comment.Content,
		Points:          comment.Points,
		RepliesCount:    comment.RepliesCount,
		IsDeleted:       comment.IsDeleted,
		CreatedAt:       comment.CreatedAt,
		UpdatedAt:       comment.UpdatedAt,
	}
}

func newCommentItemResponse(item *services.CommentItem) CommentResponse {
	response := newCommentResponse(item.Comment)
	response.Author = newAuthorResponse(&item.Comment.Author)
	response.Like = newCommentLikeResponse(item.Like)
	return response
}
