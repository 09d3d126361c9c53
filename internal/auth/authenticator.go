package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/postpilot/api/internal/domain/user"
	"github.com/postpilot/api/internal/security"
)

// Terminal rejection reasons for a login attempt. Unknown email and wrong
// password share one sentinel so responses cannot enumerate accounts.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSocialLogin        = errors.New("account uses social login")
)

// Keep this small interface so tests can fake it easily.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByFederatedID(ctx context.Context, provider, subject string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// Authenticator verifies local credentials and resolves federated identities
// against the user store.
type Authenticator struct {
	users UserStore
}

func NewAuthenticator(users UserStore) *Authenticator {
	return &Authenticator{users: users}
}

// Register creates a local-credential account. An empty tier defaults to free.
func (a *Authenticator) Register(ctx context.Context, email, password, tier string) (user.User, error) {
	if tier == "" {
		tier = user.TierFree
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		return user.User{}, err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Tier:         tier,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return a.users.Create(ctx, u)
}

// Login runs the local credential check.
func (a *Authenticator) Login(ctx context.Context, email, password string) (user.User, error) {
	foundUser, err := a.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// same outcome as a wrong password
			return user.User{}, ErrInvalidCredentials
		}

		return user.User{}, err
	}

	// federation-only accounts have no password to check
	if !foundUser.HasPassword() {
		if foundUser.HasFederatedIdentity() {
			return user.User{}, ErrSocialLogin
		}

		return user.User{}, ErrInvalidCredentials
	}

	if !security.VerifyPassword(foundUser.PasswordHash, password) {
		return user.User{}, ErrInvalidCredentials
	}

	return foundUser, nil
}

// Federated resolves an already-verified external subject id to a local
// account, creating a passwordless free-tier user on first login. Trust in
// the subject id is delegated to the provider's callback, which happens
// upstream of this call.
func (a *Authenticator) Federated(ctx context.Context, provider, subject, email string) (user.User, error) {
	foundUser, err := a.users.GetByFederatedID(ctx, provider, subject)

	if err == nil {
		return foundUser, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:        uuid.NewString(),
		Email:     email,
		Tier:      user.TierFree,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch provider {
	case user.ProviderGoogle:
		u.GoogleID = &subject
	case user.ProviderFacebook:
		u.FacebookID = &subject
	default:
		return user.User{}, errors.New("unknown identity provider: " + provider)
	}

	return a.users.Create(ctx, u)
}
