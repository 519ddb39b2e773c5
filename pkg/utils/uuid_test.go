package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sangkips/posync/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidUUIDv4(t *testing.T) {
	assert.True(t, IsValidUUIDv4(NewID()))
	assert.False(t, IsValidUUIDv4(uuid.NewSHA1(uuid.NameSpaceURL, []byte("x")).String()))
	assert.False(t, IsValidUUIDv4("{"+NewID()+"}"))
	assert.False(t, IsValidUUIDv4("urn:uuid:"+NewID()))
	assert.False(t, IsValidUUIDv4("1"))

	assert.True(t, IsValidUUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte("x")).String()))
	assert.False(t, IsValidUUID("p-1"))
}

func TestDeriveID(t *testing.T) {
	parent := NewID()
	a := DeriveID(parent, "0")
	assert.Equal(t, a, DeriveID(parent, "0"))
	assert.NotEqual(t, a, DeriveID(parent, "1"))
	assert.NotEqual(t, a, DeriveID(NewID(), "0"))
	assert.True(t, IsValidUUID(a))

	// non-UUID parents still derive stable ids
	assert.Equal(t, DeriveID("legacy", "2"), DeriveID("legacy", "2"))
}

func TestParseBearerClaims(t *testing.T) {
	_, err := ParseBearerClaims("")
	assert.ErrorIs(t, err, apperror.ErrMissingCredential)

	_, err = ParseBearerClaims("not.a.jwt")
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)

	exp := time.Now().Add(-time.Minute)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, BearerClaims{
		Email:            "a@b.c",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(exp)},
	}).SignedString([]byte("whatever"))
	require.NoError(t, err)

	claims, err := ParseBearerClaims(signed)
	require.NoError(t, err, "expired tokens still identify the user")
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, "a@b.c", claims.Email)
	assert.True(t, claims.Expired(time.Now()))
}
