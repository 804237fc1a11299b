package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bartuchat.app/server/common/logger"
	"bartuchat.app/server/internal/service"
)

type contextKey string

const (
	sessionCookieName            = "chat_session"
	devOwnerHeader               = "X-Owner-Id"
	ownerContextKey   contextKey = "owner"
)

// RequireAuth resolves the caller's identity. With WorkOS configured the
// session cookie must name a live WorkOS user; without it (local development)
// the owner comes from the X-Owner-Id header.
func RequireAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := resolveIdentity(c, authService)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), ownerContextKey, identity)
		ctx = logger.WithLogFields(ctx, logger.LogFields{OwnerID: logger.Ptr(identity.OwnerID)})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func resolveIdentity(c *gin.Context, authService service.AuthService) (service.Identity, bool) {
	if !authService.Enabled() {
		owner := c.GetHeader(devOwnerHeader)
		if owner == "" {
			return service.Identity{}, false
		}
		return service.Identity{OwnerID: owner}, true
	}

	sessionID, err := c.Cookie(sessionCookieName)
	if err != nil || sessionID == "" {
		return service.Identity{}, false
	}

	identity, err := authService.VerifySession(c.Request.Context(), sessionID)
	if err != nil {
		return service.Identity{}, false
	}
	return identity, true
}

// GetOwner returns the authenticated identity, or the zero value outside an
// authenticated request.
func GetOwner(ctx context.Context) service.Identity {
	identity, _ := ctx.Value(ownerContextKey).(service.Identity)
	return identity
}

// SetSessionCookie installs the session cookie after a successful login.
func SetSessionCookie(c *gin.Context, ownerID string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, ownerID, 7*24*3600, "/", "", secure, true)
}

// ClearSessionCookie removes the session cookie on logout.
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetCookie(sessionCookieName, "", -1, "/", "", secure, true)
}
