package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sangkips/posync/pkg/apperror"
)

// BearerClaims represents the claims the device reads from the session's
// access token. The device never holds the signing key, so the token is
// parsed without signature verification; the server verifies it on every call.
type BearerClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token
func (c *BearerClaims) UserID() string {
	return c.Subject
}

// Expired reports whether the token carries an expiry that has passed
func (c *BearerClaims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// ParseBearerClaims extracts the claims from an access token without
// verifying its signature or expiry.
func ParseBearerClaims(tokenString string) (*BearerClaims, error) {
	if tokenString == "" {
		return nil, apperror.ErrMissingCredential
	}

	claims := &BearerClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, apperror.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}
