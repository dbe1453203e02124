package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/clock"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/session"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// AuthService is the login gateway.
type AuthService struct {
	Store     store.Store
	Sessions  *session.Manager
	Bootstrap *BootstrapAuthenticator // nil disables the bootstrap fallback
	Clock     clock.Clock
	Timeout   time.Duration
}

// Login checks identifier and credential against role's collection and
// persists a new session on success. Every mismatch is reported as
// domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, role domain.Role, identifier, credential string) (domain.Session, error) {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	l := slogx.FromContext(ctx).With(slog.String("role", role.String()))

	if !role.Known() {
		return domain.Session{}, domain.NewValidationError("role", "unknown role")
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return domain.Session{}, domain.NewValidationError("identifier", "is required")
	}
	if credential == "" {
		return domain.Session{}, domain.NewValidationError("password", "is required")
	}

	user, err := s.match(ctx, role, identifier, credential)
	if errors.Is(err, domain.ErrInvalidCredentials) && role == domain.RoleAdmin {
		if u, ok := s.Bootstrap.Authenticate(ctx, identifier, credential); ok {
			user, err = u, nil
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			l.Info("login rejected")
		} else {
			l.Error("login failed", slog.Any("error", err))
		}
		return domain.Session{}, err
	}

	issuedAt, err := readClock(ctx, s.Clock)
	if err != nil {
		return domain.Session{}, err
	}

	sess := domain.Session{
		UserID:   user.ID,
		Role:     role,
		User:     user.Snapshot(),
		IssuedAt: issuedAt,
	}
	if err := s.Sessions.Save(ctx, sess); err != nil {
		l.Error("failed to persist session", slog.Any("error", err))
		return domain.Session{}, err
	}

	l.Info("login succeeded", slog.String("user_id", user.ID))
	return sess, nil
}

// match runs the username pass then the email pass. The first record whose
// password verifies wins.
func (s *AuthService) match(ctx context.Context, role domain.Role, identifier, credential string) (domain.User, error) {
	users := s.Store.Users()
	passes := []func(context.Context, domain.Role, string) (domain.User, error){
		users.GetUserByUsername,
		users.GetUserByEmail,
	}

	found := false
	for _, lookup := range passes {
		u, err := lookup(ctx, role, identifier)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return domain.User{}, domain.Unavailable(err)
		}

		found = true
		if cryptox.VerifyPassword(credential, u.PasswordHash) == nil {
			return u, nil
		}
	}

	if !found {
		cryptox.DummyVerify(credential)
	}
	return domain.User{}, domain.ErrInvalidCredentials
}

// Current returns the active session, or domain.ErrNoSession.
func (s *AuthService) Current(ctx context.Context) (domain.Session, error) {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	sess, err := s.Sessions.Load(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if sess == nil {
		return domain.Session{}, domain.ErrNoSession
	}
	return *sess, nil
}

// Logout clears the device session. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context) error {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	if err := s.Sessions.Clear(ctx); err != nil {
		slogx.FromContext(ctx).Error("logout failed", slog.Any("error", err))
		return err
	}
	slogx.FromContext(ctx).Info("logged out")
	return nil
}
