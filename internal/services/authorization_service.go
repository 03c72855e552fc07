package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/geofeed/backend/internal/orm"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ClientInfo describes where a login or refresh came from.
type ClientInfo struct {
	UserAgent string
	IpAddress string
}

type AuthorizationService interface {
	Register(ctx context.Context, username string, email string, password string) (*orm.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email string, password string, client ClientInfo) (*TokenPair, error)
	Logout(ctx context.Context) error
	RefreshToken(ctx context.Context, refreshToken string, client ClientInfo) (*TokenPair, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, password string) error
	CurrentUser(ctx context.Context) (*orm.User, error)
}

type AuthorizationStore interface {
	SelectUserByID(ctx context.Context, id string) (*orm.User, error)
	SelectUserByUsername(ctx context.Context, username string) (*orm.User, error)
	SelectUserByEmail(ctx context.Context, email string) (*orm.User, error)
	SelectUserByVerificationToken(ctx context.Context, token string) (*orm.User, error)
	SelectUserByResetToken(ctx context.Context, token string) (*orm.User, error)
	InsertUser(ctx context.Context, user *orm.User) error
	UpdateUser(ctx context.Context, user *orm.User) error

	SelectSessionByID(ctx context.Context, id string) (*orm.Session, error)
	InsertSession(ctx context.Context, session *orm.Session) error
	UpdateSession(ctx context.Context, session *orm.Session) error
	RotateSessionToken(ctx context.Context, session *orm.Session, previousHash string) (bool, error)
	DeleteSession(ctx context.Context, session *orm.Session) error
	DeleteSessionsByUserID(ctx context.Context, userID uuid.UUID) error
}

// PasswordChecker reports whether a password appears in a breach corpus.
type PasswordChecker interface {
	IsPasswordPwned(ctx context.Context, password string) (bool, error)
}
