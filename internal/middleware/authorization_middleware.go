package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	jwtpkg "github.com/geofeed/backend/internal/jwt"
	"github.com/geofeed/backend/internal/lib"
	ormpkg "github.com/geofeed/backend/internal/orm"
)

// SessionStore resolves the session behind an access token.
type SessionStore interface {
	SelectSessionByID(ctx context.Context, id string) (*ormpkg.Session, error)
	TouchSession(ctx context.Context, id string) error
}

// NewAuthorizationMiddleware authenticates the bearer access token. When
// required is false, requests without an Authorization header pass through
// anonymously; a header carrying a bad token is still rejected so clients can
// refresh it.
func NewAuthorizationMiddleware(logger *zap.Logger, jwt *jwtpkg.JWT, database SessionStore, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				AbortWithError(c, lib.UnauthenticatedError(""))
				return
			}
			c.Next()
			return
		}

		if !strings.HasPrefix(header, "Bearer ") {
			logger.Debug("missing bearer")
			AbortWithError(c, lib.UnauthenticatedError(""))
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")

		id, err := jwt.ParseAccessToken(token)
		if err != nil {
			logger.Debug("invalid access token", zap.Error(err))
			AbortWithError(c, lib.UnauthenticatedError(""))
			return
		}

		ctx := c.Request.Context()

		session, err := database.SelectSessionByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				AbortWithError(c, lib.UnauthenticatedError(""))
				return
			}
			logger.Error("database error", zap.Error(err))
			AbortWithError(c, lib.InternalError())
			return
		}

		err = database.TouchSession(ctx, id)
		if err != nil {
			logger.Error("database error", zap.Error(err))
			AbortWithError(c, lib.InternalError())
			return
		}

		ctx = SetSessionID(ctx, id)
		ctx = SetUserID(ctx, session.UserID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
