package http

import (
	_ "embed"
	"encoding/json"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/geofeed/backend/internal/lib"
	"github.com/geofeed/backend/internal/services"
)

//go:embed openapi.json
var openAPIDocument []byte

var notFoundRoute = lib.NotFoundError("route not found")

const maxBodyBytes = 1 << 20

type Handler struct {
	log           *zap.Logger
	authorization services.AuthorizationService
	posts         services.PostService
	comments      services.CommentService
	votes         services.VoteService
	polls         services.PollService
}

func NewHandler(
	log *zap.Logger,
	authorization services.AuthorizationService,
	posts services.PostService,
	comments services.CommentService,
	votes services.VoteService,
	polls services.PollService,
) *Handler {
	return &Handler{
		log:           log,
		authorization: authorization,
		posts:         posts,
		comments:      comments,
		votes:         votes,
		polls:         polls,
	}
}

// bindJSON validates the body against schema before decoding it into target.
func bindJSON(c *gin.Context, schema string, target any) error {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return lib.InvalidArgumentError("could not read request body")
	}

	if err := lib.ValidateRequest(body, schema); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return lib.InvalidArgumentError("request body is not valid JSON")
	}
	return nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, lib.InvalidArgumentError(key + " must be an integer")
	}
	return value, nil
}

func queryFloat(c *gin.Context, key string, required bool) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		if required {
			return 0, lib.InvalidArgumentError(key + " is required")
		}
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, lib.InvalidArgumentError(key + " must be a number")
	}
	return value, nil
}

func clientInfo(c *gin.Context) services.ClientInfo {
	return services.ClientInfo{
		UserAgent: c.Request.UserAgent(),
		IpAddress: c.ClientIP(),
	}
}
