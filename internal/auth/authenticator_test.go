package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/api/internal/auth"
	"github.com/postpilot/api/internal/domain/user"
	"github.com/postpilot/api/internal/security"
)

// fake user store backed by maps

type fakeUserStore struct {
	byEmail     map[string]user.User
	byFederated map[string]user.User // key: provider + ":" + subject

	created []user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail:     make(map[string]user.User),
		byFederated: make(map[string]user.User),
	}
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByFederatedID(_ context.Context, provider, subject string) (user.User, error) {
	u, ok := f.byFederated[provider+":"+subject]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) Create(_ context.Context, u user.User) (user.User, error) {
	if _, ok := f.byEmail[u.Email]; ok {
		return user.User{}, user.ErrEmailTaken
	}
	f.byEmail[u.Email] = u
	f.created = append(f.created, u)
	return u, nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	hash, err := security.HashPassword(plain)
	require.NoError(t, err)
	return hash
}

func TestRegister(t *testing.T) {
	store := newFakeUserStore()
	a := auth.NewAuthenticator(store)

	u, err := a.Register(context.Background(), "a@x.com", "password123", "")

	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, user.TierFree, u.Tier, "empty tier defaults to free")
	assert.NotEmpty(t, u.ID)
	assert.True(t, security.VerifyPassword(u.PasswordHash, "password123"))

	_, err = a.Register(context.Background(), "a@x.com", "password123", "")
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	googleID := "google-sub-1"

	store := newFakeUserStore()
	store.byEmail["a@x.com"] = user.User{
		ID:           "u-1",
		Email:        "a@x.com",
		PasswordHash: mustHash(t, "password123"),
		Tier:         user.TierFree,
	}
	store.byEmail["social@x.com"] = user.User{
		ID:       "u-2",
		Email:    "social@x.com",
		Tier:     user.TierFree,
		GoogleID: &googleID,
	}
	// pathological row: no password, no federation — can never authenticate
	store.byEmail["dead@x.com"] = user.User{
		ID:    "u-3",
		Email: "dead@x.com",
		Tier:  user.TierFree,
	}

	a := auth.NewAuthenticator(store)

	t.Run("success", func(t *testing.T) {
		u, err := a.Login(context.Background(), "a@x.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "u-1", u.ID)
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, err := a.Login(context.Background(), "unknown@x.com", "password123")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := a.Login(context.Background(), "a@x.com", "wrongpass")
		// same sentinel as the unknown-email case: no account enumeration
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("federation_only_account", func(t *testing.T) {
		_, err := a.Login(context.Background(), "social@x.com", "password123")
		assert.ErrorIs(t, err, auth.ErrSocialLogin)
	})

	t.Run("no_password_no_federation", func(t *testing.T) {
		_, err := a.Login(context.Background(), "dead@x.com", "anything")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestFederated(t *testing.T) {
	store := newFakeUserStore()
	a := auth.NewAuthenticator(store)

	t.Run("first_login_creates_user", func(t *testing.T) {
		u, err := a.Federated(context.Background(), user.ProviderGoogle, "sub-123", "g@x.com")

		require.NoError(t, err)
		assert.Equal(t, "g@x.com", u.Email)
		assert.Equal(t, user.TierFree, u.Tier)
		assert.False(t, u.HasPassword(), "federated accounts carry no password")
		require.NotNil(t, u.GoogleID)
		assert.Equal(t, "sub-123", *u.GoogleID)
	})

	t.Run("existing_subject_resolves", func(t *testing.T) {
		subject := "sub-456"
		store.byFederated[user.ProviderFacebook+":"+subject] = user.User{
			ID:         "u-fb",
			Email:      "fb@x.com",
			Tier:       user.TierStarter,
			FacebookID: &subject,
		}

		u, err := a.Federated(context.Background(), user.ProviderFacebook, subject, "fb@x.com")

		require.NoError(t, err)
		assert.Equal(t, "u-fb", u.ID)
		assert.Len(t, store.created, 1, "no new user for a known subject")
	})

	t.Run("unknown_provider", func(t *testing.T) {
		_, err := a.Federated(context.Background(), "github", "sub-789", "gh@x.com")
		assert.Error(t, err)
	})
}
