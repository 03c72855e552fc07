package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/geofeed/backend/internal/lib"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	sessionIDKey contextKey = "session_id"
)

var ErrNoUser = errors.New("no user in context")

func SetUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func SetSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// GetUserUUID returns the authenticated user, or ErrNoUser for anonymous
// requests.
func GetUserUUID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return uuid.Nil, ErrNoUser
	}
	return uuid.Parse(id)
}

func GetSessionID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(sessionIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoUser
	}
	return id, nil
}

// AbortWithError writes the error body for err and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	status, body := lib.HTTPError(err)
	c.AbortWithStatusJSON(status, body)
}
