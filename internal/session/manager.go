package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/postpilot/api/internal/cache"
)

// length of the random token in bytes, before base64url encoding
const tokenBytes = 32

// how long a resolved session may be served from the in-process cache
const cacheTTL = 30 * time.Second

// Manager issues opaque session tokens, resolves them back to a user id and
// destroys them on logout. Expiry is fixed at issuance, not sliding.
type Manager struct {
	store Store
	cache *cache.Cache
	ttl   time.Duration
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		cache: cache.New(),
		ttl:   ttl,
	}
}

// TTL returns the session lifetime, used for the cookie Max-Age.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create generates a cryptographically random token and persists the binding
// before returning, so the caller can safely hand the token to the client.
func (m *Manager) Create(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, tokenBytes)

	_, err := rand.Read(buf)

	if err != nil {
		return "", err
	}

	token := base64.RawURLEncoding.EncodeToString(buf)

	err = m.store.Set(ctx, token, userID, m.ttl)

	if err != nil {
		return "", err
	}

	return token, nil
}

// Resolve maps a token to a user id. Missing, unknown and expired tokens all
// come back as ok=false; the caller cannot tell which it was.
func (m *Manager) Resolve(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}

	if userID, ok := m.cache.Get(token); ok {
		return userID, true, nil
	}

	userID, ok, err := m.store.Get(ctx, token)

	if err != nil || !ok {
		return "", false, err
	}

	m.cache.Set(token, userID, cacheTTL)

	return userID, true, nil
}

// Destroy deletes the session record. Idempotent: destroying a token that was
// never issued, or was already destroyed, succeeds.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	// drop the cache entry first so a racing Resolve re-reads the store
	m.cache.Delete(token)

	return m.store.Delete(ctx, token)
}
