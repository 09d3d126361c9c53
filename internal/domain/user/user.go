package user

import (
	"errors"
	"time"
)

// Plan tiers. Free accounts are capped at a single business profile.
const (
	TierFree    = "free"
	TierStarter = "starter"
	TierPro     = "pro"
)

// Federated identity providers we accept subject ids from.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Tier         string    `json:"user_type"`
	GoogleID     *string   `json:"google_id,omitempty"`
	FacebookID   *string   `json:"facebook_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicView is the boundary projection of a user. An explicit type, not a
// runtime strip of the password field.
type PublicView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Tier      string    `json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) Public() PublicView {
	return PublicView{
		ID:        u.ID,
		Email:     u.Email,
		Tier:      u.Tier,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

func (u User) HasFederatedIdentity() bool {
	return (u.GoogleID != nil && *u.GoogleID != "") || (u.FacebookID != nil && *u.FacebookID != "")
}

func ValidTier(tier string) bool {
	switch tier {
	case TierFree, TierStarter, TierPro:
		return true
	}
	return false
}

var ErrNotFound = errors.New("user not found")

// raised by the store when the unique email constraint trips
var ErrEmailTaken = errors.New("email already registered")
