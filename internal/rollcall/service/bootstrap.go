package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// BootstrapUserID identifies sessions opened through the bootstrap account.
const BootstrapUserID = "bootstrap"

// AuditBootstrapLogin is logged on every accepted bootstrap login.
const AuditBootstrapLogin = "auth.bootstrap_login"

// BootstrapAuthenticator accepts one fixed admin account so the device is
// never locked out while the directory is empty. It only runs after the
// directory lookup has failed.
type BootstrapAuthenticator struct {
	username     string
	passwordHash string
}

// NewBootstrapAuthenticator hashes password once. A nil authenticator (the
// result when enabled is false) accepts nothing.
func NewBootstrapAuthenticator(enabled bool, username, password string) (*BootstrapAuthenticator, error) {
	if !enabled {
		return nil, nil
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("bootstrap account needs both a username and a password")
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash bootstrap password: %w", err)
	}
	return &BootstrapAuthenticator{username: username, passwordHash: hash}, nil
}

// Authenticate reports whether identifier and credential match the
// bootstrap account.
func (b *BootstrapAuthenticator) Authenticate(ctx context.Context, identifier, credential string) (domain.User, bool) {
	if b == nil {
		return domain.User{}, false
	}

	userOK := subtle.ConstantTimeCompare([]byte(identifier), []byte(b.username)) == 1
	passOK := cryptox.VerifyPassword(credential, b.passwordHash) == nil
	if !userOK || !passOK {
		return domain.User{}, false
	}

	slogx.FromContext(ctx).Warn("bootstrap admin login accepted",
		slog.String("event", AuditBootstrapLogin),
		slog.String("username", b.username),
	)

	return domain.User{
		ID:          BootstrapUserID,
		Role:        domain.RoleAdmin,
		DisplayName: "Bootstrap Administrator",
		Username:    b.username,
	}, true
}
