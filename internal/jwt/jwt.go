package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"
)

var ErrTokenType = errors.New("unexpected token type")

type JWT struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

type claims struct {
	Type string `json:"typ"`
	jwtlib.RegisteredClaims
}

func NewJWT(secret string, accessTokenTTL time.Duration, refreshTokenTTL time.Duration) *JWT {
	return &JWT{
		secret:          []byte(secret),
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// GenerateAccessToken issues a short lived token whose subject is the session id.
func (this *JWT) GenerateAccessToken(sessionID string) (string, error) {
	return this.generate(sessionID, accessTokenType, this.accessTokenTTL)
}

// GenerateRefreshToken issues a long lived token for the session. Every call
// yields a distinct token so a rotated token never matches its predecessor.
func (this *JWT) GenerateRefreshToken(sessionID string) (string, error) {
	return this.generate(sessionID, refreshTokenType, this.refreshTokenTTL)
}

// ParseAccessToken returns the session id carried by a valid access token.
func (this *JWT) ParseAccessToken(token string) (string, error) {
	return this.parse(token, accessTokenType)
}

// ParseRefreshToken returns the session id carried by a valid refresh token.
func (this *JWT) ParseRefreshToken(token string) (string, error) {
	return this.parse(token, refreshTokenType)
}

func (this *JWT) generate(sessionID string, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwtlib.NewWithClaims(
		jwtlib.SigningMethodHS256,
		claims{
			Type: tokenType,
			RegisteredClaims: jwtlib.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   sessionID,
				IssuedAt:  jwtlib.NewNumericDate(now),
				ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			},
		},
	)
	return token.SignedString(this.secret)
}

func (this *JWT) parse(token string, tokenType string) (string, error) {
	var parsed claims
	_, err := jwtlib.ParseWithClaims(
		token,
		&parsed,
		func(t *jwtlib.Token) (any, error) {
			return this.secret, nil
		},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}

	if parsed.Type != tokenType {
		return "", fmt.Errorf("%w: %s", ErrTokenType, parsed.Type)
	}

	return parsed.Subject, nil
}
