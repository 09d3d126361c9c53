package session

import (
	"context"
	"time"
)

// Store persists the token -> user id binding. Implementations must treat an
// unknown token and an expired token identically: both are a plain miss.
type Store interface {
	// Set binds token to userID for ttl. The write is durable before Set returns.
	Set(ctx context.Context, token, userID string, ttl time.Duration) error
	// Get returns the bound user id, or ok=false on a miss.
	Get(ctx context.Context, token string) (userID string, ok bool, err error)
	// Delete removes the binding. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
}
