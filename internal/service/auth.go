package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"bartuchat.app/server/core/config"
)

var (
	ErrInvalidCode    = errors.New("invalid authorization code")
	ErrUnknownSession = errors.New("unknown session")
)

// Identity is the authenticated caller. OwnerID is the WorkOS user ID and is
// the partition key for every entity the caller owns.
type Identity struct {
	OwnerID string
	Email   string
	Name    string
}

type AuthService interface {
	Enabled() bool
	GetAuthorizationURL(state string) (string, error)
	HandleCallback(ctx context.Context, code string) (Identity, error)
	VerifySession(ctx context.Context, ownerID string) (Identity, error)
}

type authService struct {
	cfg         config.WorkOSConfig
	redirectURI string
}

func NewAuthService(cfg config.WorkOSConfig, redirectURI string) AuthService {
	if cfg.Enabled() {
		usermanagement.SetAPIKey(cfg.APIKey)
	}
	return &authService{
		cfg:         cfg,
		redirectURI: redirectURI,
	}
}

func (s *authService) Enabled() bool {
	return s.cfg.Enabled()
}

func (s *authService) GetAuthorizationURL(state string) (string, error) {
	url, err := usermanagement.GetAuthorizationURL(usermanagement.GetAuthorizationURLOpts{
		ClientID:    s.cfg.ClientID,
		RedirectURI: s.redirectURI,
		State:       state,
		Provider:    "authkit",
	})
	if err != nil {
		return "", fmt.Errorf("generating authorization URL: %w", err)
	}
	return url.String(), nil
}

func (s *authService) HandleCallback(ctx context.Context, code string) (Identity, error) {
	authResponse, err := usermanagement.AuthenticateWithCode(ctx, usermanagement.AuthenticateWithCodeOpts{
		ClientID: s.cfg.ClientID,
		Code:     code,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to authenticate with code", "error", err)
		return Identity{}, ErrInvalidCode
	}

	user := authResponse.User
	identity := Identity{
		OwnerID: user.ID,
		Email:   user.Email,
		Name:    buildUserName(user),
	}

	slog.InfoContext(ctx, "user authenticated", "owner_id", identity.OwnerID, "email", identity.Email)
	return identity, nil
}

// VerifySession confirms the owner ID still names a live WorkOS user.
func (s *authService) VerifySession(ctx context.Context, ownerID string) (Identity, error) {
	user, err := usermanagement.GetUser(ctx, usermanagement.GetUserOpts{
		User: ownerID,
	})
	if err != nil {
		slog.WarnContext(ctx, "session verification failed", "error", err)
		return Identity{}, ErrUnknownSession
	}

	return Identity{
		OwnerID: user.ID,
		Email:   user.Email,
		Name:    buildUserName(user),
	}, nil
}

func buildUserName(user usermanagement.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		return user.Email
	}
	return name
}
