package authorization

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	eventpkg "github.com/geofeed/backend/internal/event"
	jwtpkg "github.com/geofeed/backend/internal/jwt"
	metricspkg "github.com/geofeed/backend/internal/metrics"
	"github.com/geofeed/backend/internal/middleware"
	ormpkg "github.com/geofeed/backend/internal/orm"
	securitypkg "github.com/geofeed/backend/internal/security"
	"github.com/geofeed/backend/internal/services"
)

const (
	tokenBytes       = 32
	resetTokenExpiry = time.Hour
)

type AuthorizationServiceImpl struct {
	db        services.AuthorizationStore
	jwt       *jwtpkg.JWT
	broker    eventpkg.Publisher
	passwords services.PasswordChecker
	metrics   *metricspkg.Metrics
	log       *zap.Logger
}

// NewAuthorizationService builds the service. passwords may be nil, in which
// case breached password checks are skipped.
func NewAuthorizationService(db services.AuthorizationStore, jwt *jwtpkg.JWT, broker eventpkg.Publisher, passwords services.PasswordChecker, metrics *metricspkg.Metrics, log *zap.Logger) services.AuthorizationService {
	return &AuthorizationServiceImpl{
		db:        db,
		jwt:       jwt,
		broker:    broker,
		passwords: passwords,
		metrics:   metrics,
		log:       log,
	}
}

func (s *AuthorizationServiceImpl) Register(ctx context.Context, username string, email string, password string) (*ormpkg.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return nil, status.Errorf(codes.InvalidArgument, "username is required")
	}
	if email == "" {
		return nil, status.Errorf(codes.InvalidArgument, "email is required")
	}
	if len(password) < 8 {
		return nil, status.Errorf(codes.InvalidArgument, "password must be at least 8 characters long")
	}

	if err := s.checkPassword(ctx, password); err != nil {
		return nil, err
	}

	_, err := s.db.SelectUserByUsername(ctx, username)
	if err == nil {
		return nil, status.Errorf(codes.AlreadyExists, "username already exist")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("error selecting user by username", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}

	_, err = s.db.SelectUserByEmail(ctx, email)
	if err == nil {
		return nil, status.Errorf(codes.AlreadyExists, "email already exist")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("error selecting user by email", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}

	hash, err := securitypkg.HashPassword(password)
	if err != nil {
		s.log.Error("error hashing password", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}

	verificationToken, err := securitypkg.GenerateToken(tokenBytes)
	if err != nil {
		s.log.Error("error generating verification token", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}

	user := &ormpkg.User{
		Username:          username,
		Email:             email,
		Password:          hash,
		VerificationToken: verificationToken,
	}
	err = s.db.InsertUser(ctx, user)
	if err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, status.Errorf(codes.AlreadyExists, "user already exist")
		}
		s.log.Error("error inserting user", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}

	s.publish(ctx, eventpkg.AUTHORIZATION_REGISTER, eventpkg.AuthorizationRegisterMessage{
		ID: user.ID.String(),
	})

	return user, nil
}

func (s *AuthorizationServiceImpl) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return status.Errorf(codes.InvalidArgument, "verification token is required")
	}

	user, err := s.db.SelectUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return status.Errorf(codes.NotFound, "verification token is invalid")
		}
		s.log.Error("error selecting user by verification token", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}

	user.IsVerified = true
	user.VerificationToken = ""
	if err := s.db.UpdateUser(ctx, user); err != nil {
		s.log.Error("error updating user", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}
	return nil
}

func (s *AuthorizationServiceImpl) Login(ctx context.Context, email string, password string, client services.ClientInfo) (*services.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, status.Errorf(codes.InvalidArgument, "email is required")
	}
	if password == "" {
		return nil, status.Errorf(codes.InvalidArgument, "password is required")
	}

	user, err := s.db.SelectUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, status.Errorf(codes.InvalidArgument, "invalid email or password")
		}
		s.log.Error("error selecting user by email", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}

	if !securitypkg.ComparePasswords(user.Password, password) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid email or password")
	}
	if !user.IsVerified {
		return nil, status.Errorf(codes.PermissionDenied, "email is not verified")
	}

	session := &ormpkg.Session{
		UserID:    user.ID,
		UserAgent: orUnknown(client.UserAgent),
		IpAddress: orUnknown(client.IpAddress),
	}
	if err := s.db.InsertSession(ctx, session); err != nil {
		s.log.Error("error inserting session", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}

	tokens, err := s.issueTokens(ctx, session)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventpkg.AUTHORIZATION_LOGIN, eventpkg.AuthorizationLoginMessage{
		ID:        user.ID.String(),
		SessionID: session.ID.String(),
		UserAgent: session.UserAgent,
		IpAddress: session.IpAddress,
	})

	return tokens, nil
}

func (s *AuthorizationServiceImpl) Logout(ctx context.Context) error {
	sessionID, err := middleware.GetSessionID(ctx)
	if err != nil {
		return status.Errorf(codes.Unauthenticated, "Unauthorized")
	}

	session, err := s.db.SelectSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.log.Error("error selecting session", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}

	if err := s.db.DeleteSession(ctx, session); err != nil {
		s.log.Error("error deleting session", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}
	return nil
}

// RefreshToken exchanges a refresh token for a new pair. Each refresh token is
// accepted once: presenting an already rotated token revokes the session.
func (s *AuthorizationServiceImpl) RefreshToken(ctx context.Context, refreshToken string, client services.ClientInfo) (*services.TokenPair, error) {
	if refreshToken == "" {
		return nil, status.Errorf(codes.Unauthenticated, "refresh token is required")
	}

	sessionID, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "invalid refresh token")
	}

	session, err := s.db.SelectSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, status.Errorf(codes.Unauthenticated, "session not found")
		}
		s.log.Error("error selecting session", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}

	digest := securitypkg.HashToken(refreshToken)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(session.RefreshTokenHash)) != 1 {
		s.log.Warn("refresh token reuse detected, revoking session", zap.String("session_id", sessionID))
		if err := s.db.DeleteSession(ctx, session); err != nil {
			s.log.Error("error deleting session", zap.Error(err))
		}
		return nil, status.Errorf(codes.Unauthenticated, "invalid refresh token")
	}

	if client.UserAgent != "" {
		session.UserAgent = client.UserAgent
	}
	if client.IpAddress != "" {
		session.IpAddress = client.IpAddress
	}

	tokens, err := s.signTokens(session)
	if err != nil {
		return nil, err
	}

	rotated, err := s.db.RotateSessionToken(ctx, session, digest)
	if err != nil {
		s.log.Error("error rotating session token", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}
	if !rotated {
		s.log.Warn("concurrent refresh token reuse detected, revoking session", zap.String("session_id", sessionID))
		if err := s.db.DeleteSession(ctx, session); err != nil {
			s.log.Error("error deleting session", zap.Error(err))
		}
		return nil, status.Errorf(codes.Unauthenticated, "invalid refresh token")
	}

	return tokens, nil
}

// RequestPasswordReset always succeeds for well formed input so callers cannot
// probe which emails are registered.
func (s *AuthorizationServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return status.Errorf(codes.InvalidArgument, "email is required")
	}

	user, err := s.db.SelectUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.log.Error("error selecting user by email", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}

	resetToken, err := securitypkg.GenerateToken(tokenBytes)
	if err != nil {
		s.log.Error("error generating reset token", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}

	expiresAt := time.Now().Add(resetTokenExpiry)
	user.ResetToken = resetToken
	user.ResetTokenExpiresAt = &expiresAt
	if err := s.db.UpdateUser(ctx, user); err != nil {
		s.log.Error("error updating user", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}

	s.publish(ctx, eventpkg.AUTHORIZATION_REQUEST_PASSWORD_RESET, eventpkg.AuthorizationRequestPasswordReset{
		ID: user.ID.String(),
	})
	return nil
}

func (s *AuthorizationServiceImpl) ResetPassword(ctx context.Context, token string, password string) error {
	if token == "" {
		return status.Errorf(codes.InvalidArgument, "reset token is required")
	}
	if len(password) < 8 {
		return status.Errorf(codes.InvalidArgument, "password must be at least 8 characters long")
	}

	user, err := s.db.SelectUserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return status.Errorf(codes.InvalidArgument, "reset token expired or invalid")
		}
		s.log.Error("error selecting user by reset token", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}

	if user.ResetTokenExpiresAt == nil || time.Now().After(*user.ResetTokenExpiresAt) {
		return status.Errorf(codes.InvalidArgument, "reset token expired or invalid")
	}

	if err := s.checkPassword(ctx, password); err != nil {
		return err
	}

	hash, err := securitypkg.HashPassword(password)
	if err != nil {
		s.log.Error("error hashing password", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}

	user.Password = hash
	user.ResetToken = ""
	user.ResetTokenExpiresAt = nil
	if err := s.db.UpdateUser(ctx, user); err != nil {
		s.log.Error("error updating user", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}

	if err := s.db.DeleteSessionsByUserID(ctx, user.ID); err != nil {
		s.log.Error("error deleting user sessions after password reset", zap.Error(err))
	}
	return nil
}

func (s *AuthorizationServiceImpl) CurrentUser(ctx context.Context) (*ormpkg.User, error) {
	userID, err := middleware.GetUserUUID(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "Unauthorized")
	}

	user, err := s.db.SelectUserByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, status.Errorf(codes.NotFound, "user not found")
		}
		s.log.Error("error selecting user by id", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}
	return user, nil
}

// issueTokens signs a new pair for the session and stores the refresh digest.
func (s *AuthorizationServiceImpl) issueTokens(ctx context.Context, session *ormpkg.Session) (*services.TokenPair, error) {
	tokens, err := s.signTokens(session)
	if err != nil {
		return nil, err
	}

	if err := s.db.UpdateSession(ctx, session); err != nil {
		s.log.Error("error updating session", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}
	return tokens, nil
}

// signTokens signs a new pair and sets the session's refresh digest.
func (s *AuthorizationServiceImpl) signTokens(session *ormpkg.Session) (*services.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(session.ID.String())
	if err != nil {
		s.log.Error("error generating access token", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(session.ID.String())
	if err != nil {
		s.log.Error("error generating refresh token", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "internal error")
	}

	session.RefreshTokenHash = securitypkg.HashToken(refreshToken)
	return &services.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthorizationServiceImpl) checkPassword(ctx context.Context, password string) error {
	if s.passwords == nil {
		return nil
	}

	isPwned, err := s.passwords.IsPasswordPwned(ctx, password)
	if err != nil {
		s.log.Error("failed to check password against HIBP", zap.Error(err))
		return status.Errorf(codes.Internal, "failed to validate password")
	}
	if isPwned {
		return status.Errorf(codes.InvalidArgument, "password has been pwned, please choose a different one")
	}
	return nil
}

// publish is best effort. A lost event only delays mail delivery.
func (s *AuthorizationServiceImpl) publish(ctx context.Context, event string, message any) {
	err := s.broker.WriteMessage(ctx, event, message)
	s.metrics.EventsPublished.WithLabelValues(event, metricspkg.Result(err)).Inc()
	if err != nil {
		s.log.Error("error publishing event", zap.Error(err), zap.String("event", event))
	}
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
