package domain

import "github.com/google/uuid"

// IsValidUUIDv4 reports whether s is a canonical version-4 UUID.
// Beam ids on the wire are always v4; anything else is rejected before a
// join attempt reaches the server.
func IsValidUUIDv4(s string) bool {
	if len(s) != 36 {
		return false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return id.Version() == 4 && id.Variant() == uuid.RFC4122
}
