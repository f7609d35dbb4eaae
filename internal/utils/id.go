package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random session identifier.
func NewID() string {
	return uuid.NewString()
}

// DefaultUsername derives a display name from a session id.
// Two live ids never share their first 8 hex digits in practice; the hub still
// falls back to the full id on a collision.
func DefaultUsername(id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return "username_" + short
}
