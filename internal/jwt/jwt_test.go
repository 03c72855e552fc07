package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	j := NewJWT("secret", time.Minute, time.Hour)

	token, err := j.GenerateAccessToken("session-1")
	if err != nil {
		t.Fatal(err)
	}

	sessionID, err := j.ParseAccessToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if sessionID != "session-1" {
		t.Fatalf("expected session-1, got %s", sessionID)
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	j := NewJWT("secret", time.Minute, time.Hour)

	refreshToken, err := j.GenerateRefreshToken("session-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.ParseAccessToken(refreshToken); !errors.Is(err, ErrTokenType) {
		t.Fatalf("expected ErrTokenType, got %v", err)
	}

	accessToken, err := j.GenerateAccessToken("session-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.ParseRefreshToken(accessToken); !errors.Is(err, ErrTokenType) {
		t.Fatalf("expected ErrTokenType, got %v", err)
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	j := NewJWT("secret", time.Minute, time.Hour)

	first, _ := j.GenerateRefreshToken("session-1")
	second, _ := j.GenerateRefreshToken("session-1")
	if first == second {
		t.Fatal("expected distinct refresh tokens")
	}
}

func TestExpiredAndForeignTokens(t *testing.T) {
	expired := NewJWT("secret", -time.Minute, time.Hour)
	token, _ := expired.GenerateAccessToken("session-1")

	j := NewJWT("secret", time.Minute, time.Hour)
	if _, err := j.ParseAccessToken(token); err == nil {
		t.Fatal("expected expired token to fail")
	}

	foreign := NewJWT("other", time.Minute, time.Hour)
	token, _ = foreign.GenerateAccessToken("session-1")
	if _, err := j.ParseAccessToken(token); err == nil {
		t.Fatal("expected token signed with another secret to fail")
	}
}
