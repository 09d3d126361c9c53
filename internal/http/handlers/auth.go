package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/postpilot/api/internal/auth"
	"github.com/postpilot/api/internal/config"
	"github.com/postpilot/api/internal/domain/user"
	"github.com/postpilot/api/internal/http/middlewares"
	"github.com/postpilot/api/internal/observability"
)

// Interfaces kept small so tests can fake them.

type Authenticator interface {
	Register(ctx context.Context, email, password, tier string) (user.User, error)
	Login(ctx context.Context, email, password string) (user.User, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type SessionIssuer interface {
	Create(ctx context.Context, userID string) (string, error)
	Destroy(ctx context.Context, token string) error
	TTL() time.Duration
}

type AuthHandler struct {
	authn       Authenticator
	users       UserReader
	sessions    SessionIssuer
	resetTokens *auth.ResetTokenManager
	prom        *observability.Prom
	cfg         config.Config
}

func NewAuthHandler(authn Authenticator, users UserReader, sessions SessionIssuer, resetTokens *auth.ResetTokenManager, prom *observability.Prom, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		authn:       authn,
		users:       users,
		sessions:    sessions,
		resetTokens: resetTokens,
		prom:        prom,
		cfg:         cfg,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Tier     string `json:"user_type" binding:"omitempty,oneof=free starter pro"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	// accepted for wire compatibility; the session TTL is fixed either way
	Remember bool `json:"remember"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.authn.Register(cctx, req.Email, req.Password, req.Tier)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequest(ctx, "email_taken", "Email already registered", nil)
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	// log the new user straight in, same as the login path
	token, err := h.sessions.Create(cctx, u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.countSessionIssued()
	h.setSessionCookie(ctx, token)

	ctx.JSON(http.StatusCreated, u.Public())
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.authn.Login(cctx, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.countAuthAttempt("rejected")
			RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		case errors.Is(err, auth.ErrSocialLogin):
			h.countAuthAttempt("rejected")
			RespondUnauthorized(ctx, "social_login", "This account uses social login. Please sign in with Google or Facebook.")
		default:
			h.countAuthAttempt("error")
			RespondInternal(ctx, "Could not log in")
		}
		return
	}

	token, err := h.sessions.Create(cctx, u.ID)

	if err != nil {
		h.countAuthAttempt("error")
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.countAuthAttempt("ok")
	h.countSessionIssued()
	h.setSessionCookie(ctx, token)

	ctx.JSON(http.StatusOK, u.Public())
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	token, err := ctx.Cookie(middlewares.SessionCookieName)

	if err == nil && token != "" {
		cctx, cancel := config.WithTimeout(3 * time.Second)
		defer cancel()

		// idempotent: destroying an unknown token is fine
		if err := h.sessions.Destroy(cctx, token); err != nil {
			RespondInternal(ctx, "Could not log out")
			return
		}
	}

	h.clearSessionCookie(ctx)

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// session outlived the account
			RespondUnauthorized(ctx, "unauthorized", "Authentication required")
			return
		}

		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, u.Public())
}

// ResetPassword always answers with the same generic message so the endpoint
// cannot be used to probe which emails are registered.
func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, req.Email)

	if err == nil {
		// token delivery (email) happens elsewhere; we only mint it here
		if _, tokenErr := h.resetTokens.Generate(u.ID, u.Email); tokenErr == nil {
			slog.DebugContext(ctx.Request.Context(), "password reset token issued", "user_id", u.ID)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "If your email is registered, you will receive a password reset link",
	})
}

// Helper functions

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, token string) {
	secure := h.cfg.Env == "prod"

	maxAge := int(h.sessions.TTL().Seconds())

	ctx.SetSameSite(http.SameSiteLaxMode)

	ctx.SetCookie(
		middlewares.SessionCookieName,
		token,
		maxAge,
		"/",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		middlewares.SessionCookieName,
		"",
		-1,
		"/",
		"",
		secure,
		true,
	)
}

func (h *AuthHandler) countAuthAttempt(result string) {
	if h.prom != nil {
		h.prom.AuthAttempts.WithLabelValues(result).Inc()
	}
}

func (h *AuthHandler) countSessionIssued() {
	if h.prom != nil {
		h.prom.SessionsIssued.Inc()
	}
}
