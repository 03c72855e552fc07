package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geofeed/backend/internal/lib"
	"github.com/geofeed/backend/internal/middleware"
	"github.com/geofeed/backend/internal/services"
)

const maxImageBytes = 10 << 20

var imageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

type pollRequest struct {
	VotingLength int      `json:"votingLength"`
	Options      []string `json:"options"`
}

type createPostRequest struct {
	Title     string       `json:"title"`
	Content   *string      `json:"content,omitempty"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	Poll      *pollRequest `json:"poll,omitempty"`
}

type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *Handler) ListPosts(c *gin.Context) {
	latitude, err := queryFloat(c, "latitude", true)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	longitude, err := queryFloat(c, "longitude", true)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	distance, err := queryFloat(c, "distance", false)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	take, err := queryInt(c, "take")
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	page, err := h.posts.ListNearbyPosts(c.Request.Context(), services.NearbyQuery{
		Latitude:   latitude,
		Longitude:  longitude,
		DistanceKm: distance,
		Cursor:     c.Query("cursor"),
		Take:       take,
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	response := PostPageResponse{
		Posts:   make([]PostResponse, 0, len(page.Posts)),
		HasMore: page.HasMore,
	}
	for _, item := range page.Posts {
		response.Posts = append(response.Posts, newPostItemResponse(item))
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetPost(c *gin.Context) {
	item, err := h.posts.GetPost(c.Request.Context(), c.Param("postId"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPostItemResponse(item))
}

// CreatePost accepts either a JSON body or a multipart form carrying the same
// fields plus an optional image file.
func (h *Handler) CreatePost(c *gin.Context) {
	var input services.CreatePostInput
	var err error

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		input, err = h.bindMultipartPost(c)
	} else {
		var request createPostRequest
		err = bindJSON(c, lib.CreatePostSchema, &request)
		input = request.input()
	}
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	item, err := h.posts.CreatePost(c.Request.Context(), input)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newPostItemResponse(item))
}

func (h *Handler) bindMultipartPost(c *gin.Context) (services.CreatePostInput, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes+maxBodyBytes)

	var request createPostRequest
	request.Title = c.PostForm("title")
	if content, ok := c.GetPostForm("content"); ok && content != "" {
		request.Content = &content
	}

	latitude, err := strconv.ParseFloat(c.PostForm("latitude"), 64)
	if err != nil {
		return services.CreatePostInput{}, lib.InvalidArgumentError("latitude must be a number")
	}
	longitude, err := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if err != nil {
		return services.CreatePostInput{}, lib.InvalidArgumentError("longitude must be a number")
	}
	request.Latitude = latitude
	request.Longitude = longitude

	if poll := c.PostForm("poll"); poll != "" {
		request.Poll = &pollRequest{}
		if err := json.Unmarshal([]byte(poll), request.Poll); err != nil {
			return services.CreatePostInput{}, lib.InvalidArgumentError("poll must be a JSON object")
		}
	}

	// Form fields go through the same schema as JSON bodies.
	body, err := json.Marshal(request)
	if err != nil {
		return services.CreatePostInput{}, lib.InternalError()
	}
	if err := lib.ValidateRequest(body, lib.CreatePostSchema); err != nil {
		return services.CreatePostInput{}, err
	}

	input := request.input()

	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return input, nil
	}
	if err != nil {
		return services.CreatePostInput{}, lib.InvalidArgumentError("could not read image")
	}
	if header.Size > maxImageBytes {
		return services.CreatePostInput{}, lib.InvalidArgumentError("image is too large")
	}

	contentType := header.Header.Get("Content-Type")
	if !imageContentTypes[contentType] {
		return services.CreatePostInput{}, lib.InvalidArgumentError("image must be jpeg, png, webp or heic")
	}

	file, err := header.Open()
	if err != nil {
		return services.CreatePostInput{}, lib.InvalidArgumentError("could not read image")
	}
	defer file.Close()

	// The file is closed before the upload runs.
	buffer := new(bytes.Buffer)
	if _, err := buffer.ReadFrom(file); err != nil {
		return services.CreatePostInput{}, lib.InvalidArgumentError("could not read image")
	}

	input.Image = &services.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Body:        bytes.NewReader(buffer.Bytes()),
	}
	return input, nil
}

func (r createPostRequest) input() services.CreatePostInput {
	input := services.CreatePostInput{
		Title:     r.Title,
		Content:   r.Content,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
	if r.Poll != nil {
		input.Poll = &services.PollInput{
			VotingLength: r.Poll.VotingLength,
			Options:      r.Poll.Options,
		}
	}
	return input
}

func (h *Handler) UpdatePost(c *gin.Context) {
	var request updatePostRequest
	if err := bindJSON(c, lib.UpdatePostSchema, &request); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	item, err := h.posts.UpdatePost(c.Request.Context(), c.Param("postId"), request.Title, request.Content)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPostItemResponse(item))
}

func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.posts.DeletePost(c.Request.Context(), c.Param("postId")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
