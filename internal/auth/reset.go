package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ResetClaims is the payload of a password-reset token.
type ResetClaims struct {
	UserID    string `json:"sub"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// ResetTokenManager mints and verifies short-lived signed tokens for the
// password-reset flow. Delivery of the token is out of scope here.
type ResetTokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewResetTokenManager(secret string, ttl time.Duration) *ResetTokenManager {
	return &ResetTokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (m *ResetTokenManager) Generate(userID, email string) (string, error) {
	now := time.Now().UTC()

	claims := ResetClaims{
		UserID:    userID,
		Email:     email,
		TokenType: "reset",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *ResetTokenManager) Verify(tokenStr string) (*ResetClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ResetClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*ResetClaims)

	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.TokenType != "reset" {
		return nil, errors.New("invalid token type")
	}

	return claims, nil
}
