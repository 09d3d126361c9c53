package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the HTTP-only cookie carrying the opaque session token.
const SessionCookieName = "pp_session"

// Keep this small interface so tests can fake it easily.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (userID string, ok bool, err error)
}

type SessionMiddleware struct {
	sessions SessionResolver
}

func NewSessionMiddleware(sessions SessionResolver) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

// RequireSession resolves the session cookie to a user id and stashes it on
// the gin context. A missing, unknown or expired token is one and the same
// 401; the response never says which.
func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)

		if err != nil || token == "" {
			abortUnauthenticated(c)
			return
		}

		userID, ok, err := m.sessions.Resolve(c.Request.Context(), token)

		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Could not resolve session",
				},
			})
			return
		}

		if !ok {
			abortUnauthenticated(c)
			return
		}

		c.Set(ctxUserIDKey, userID)

		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": "Authentication required",
		},
	})
}

// Helper so handlers don't need to know the magic key.
func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
