package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bartuchat.app/server/internal/http/middleware"
	"bartuchat.app/server/internal/service"
)

type AuthHandler struct {
	auth         service.AuthService
	isProduction bool
}

func NewAuthHandler(auth service.AuthService, isProduction bool) *AuthHandler {
	return &AuthHandler{auth: auth, isProduction: isProduction}
}

func (h *AuthHandler) Login(c *gin.Context) {
	if !h.auth.Enabled() {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "authentication is not configured"})
		return
	}

	url, err := h.auth.GetAuthorizationURL(c.Query("state"))
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to build authorization url", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	identity, err := h.auth.HandleCallback(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization code"})
			return
		}
		slog.ErrorContext(ctx, "authentication callback failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	middleware.SetSessionCookie(c, identity.OwnerID, h.isProduction)
	c.Redirect(http.StatusTemporaryRedirect, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, h.isProduction)
	c.Status(http.StatusNoContent)
}
