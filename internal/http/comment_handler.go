package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geofeed/backend/internal/lib"
	"github.com/geofeed/backend/internal/middleware"
	"github.com/geofeed/backend/internal/services"
)

type commentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) ListComments(c *gin.Context) {
	take, err := queryInt(c, "take")
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	page, err := h.comments.ListComments(c.Request.Context(), c.Param("postId"), services.CommentQuery{
		ParentCommentID: c.Query("parentCommentId"),
		Sort:            c.Query("sort"),
		Cursor:          c.Query("cursor"),
		Take:            take,
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	response := CommentPageResponse{
		Comments: make([]CommentResponse, 0, len(page.Comments)),
		HasMore:  page.HasMore,
	}
	for _, item := range page.Comments {
		response.Comments = append(response.Comments, newCommentItemResponse(item))
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetComment(c *gin.Context) {
	item, err := h.comments.GetComment(c.Request.Context(), c.Param("postId"), c.Param("commentId"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCommentItemResponse(item))
}

// CreateComment creates a top level comment, or a reply when the route carries
// a commentId.
func (h *Handler) CreateComment(c *gin.Context) {
	var request commentRequest
	if err := bindJSON(c, lib.CommentSchema, &request); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	item, err := h.comments.CreateComment(c.Request.Context(), c.Param("postId"), c.Param("commentId"), request.Content)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newCommentItemResponse(item))
}

func (h *Handler) UpdateComment(c *gin.Context) {
	var request commentRequest
	if err := bindJSON(c, lib.CommentSchema, &request); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	item, err := h.comments.UpdateComment(c.Request.Context(), c.Param("postId"), c.Param("commentId"), request.Content)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCommentItemResponse(item))
}

func (h *Handler) DeleteComment(c *gin.Context) {
	if err := h.comments.DeleteComment(c.Request.Context(), c.Param("postId"), c.Param("commentId")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
