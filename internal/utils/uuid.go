package utils

import "github.com/google/uuid"

// IsUUID reports whether s parses as a UUID. Path ids are validated up front
// so a malformed id becomes a clean 404 instead of a driver error.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
