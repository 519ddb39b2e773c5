package utils

import (
	"github.com/google/uuid"
)

// canonicalUUIDLen is the length of the 8-4-4-4-12 textual form.
const canonicalUUIDLen = 36

// NewID generates a new random (version 4) id
func NewID() string {
	return uuid.NewString()
}

// IsValidUUIDv4 reports whether s is a canonical, RFC 4122 version 4 UUID.
// Records whose id fails this check are kept locally but never sent to the
// remote store.
func IsValidUUIDv4(s string) bool {
	if len(s) != canonicalUUIDLen {
		return false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return id.Version() == 4 && id.Variant() == uuid.RFC4122
}

// IsValidUUID reports whether s is any canonical UUID.
func IsValidUUID(s string) bool {
	if len(s) != canonicalUUIDLen {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// DeriveID returns a stable name-based UUID for name inside the parent id's
// namespace. The same inputs always produce the same id.
func DeriveID(parent, name string) string {
	ns, err := uuid.Parse(parent)
	if err != nil {
		ns = uuid.NewSHA1(uuid.NameSpaceOID, []byte(parent))
	}
	return uuid.NewSHA1(ns, []byte(name)).String()
}
