package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the subset of the access token payload the client cares about.
// Signatures are not checked here; the server stays the authority.
type Claims struct {
	UserID    int
	TokenType string
	ExpiresAt time.Time
}

type accessClaims struct {
	UserID    int    `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func ParseClaims(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, errors.New("empty token")
	}
	var ac accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &ac); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	c := Claims{UserID: ac.UserID, TokenType: ac.TokenType}
	if ac.ExpiresAt != nil {
		c.ExpiresAt = ac.ExpiresAt.Time
	}
	return c, nil
}

// Expired reports whether the token is past its exp claim at now.
// Tokens without exp never expire client-side.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
