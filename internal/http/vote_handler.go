package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geofeed/backend/internal/lib"
	"github.com/geofeed/backend/internal/middleware"
)

type voteRequest struct {
	Value int `json:"value"`
}

type pollVoteRequest struct {
	OptionID string `json:"optionId"`
}

// VotePost responds with the caller's like and the post without its author.
func (h *Handler) VotePost(c *gin.Context) {
	var request voteRequest
	if err := bindJSON(c, lib.VoteSchema, &request); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	result, err := h.votes.VotePost(c.Request.Context(), c.Param("postId"), request.Value)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, PostVoteResponse{
		Like: newPostLikeResponse(result.Like),
		Post: newPostResponse(result.Post),
	})
}

func (h *Handler) VoteComment(c *gin.Context) {
	var request voteRequest
	if err := bindJSON(c, lib.VoteSchema, &request); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	result, err := h.votes.VoteComment(c.Request.Context(), c.Param("postId"), c.Param("commentId"), request.Value)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, CommentVoteResponse{
		Like:    newCommentLikeResponse(result.Like),
		Comment: newCommentResponse(result.Comment),
	})
}

func (h *Handler) VotePoll(c *gin.Context) {
	var request pollVoteRequest
	if err := bindJSON(c, lib.PollVoteSchema, &request); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	result, err := h.polls.VotePoll(c.Request.Context(), c.Param("postId"), request.OptionID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, PollVoteResultResponse{
		Vote:       *newPollVoteResponse(result.Vote),
		Poll:       *newPollResponse(result.Poll, result.Vote),
		PollOption: newPollOptionResponse(*result.Option),
	})
}
