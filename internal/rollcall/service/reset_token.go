package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/clock"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/mail"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/validate"
	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
	"github.com/aussiebroadwan/rollcall/pkg/idx"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// TokenIssue is the outcome of a token request.
type TokenIssue struct {
	Token     string
	UserID    string
	Role      domain.Role
	ExpiresAt time.Time
}

// TokenResetService runs the role-scoped reset protocol. Its state lives on
// the user record itself, never in the reset request log.
type TokenResetService struct {
	Store   store.Store
	Clock   clock.Clock
	Mailer  mail.Mailer // nil skips delivery
	TTL     time.Duration
	Timeout time.Duration
}

func (s *TokenResetService) ttl() time.Duration {
	if s.TTL <= 0 {
		return domain.DefaultResetTTL
	}
	return s.TTL
}

// RequestByEmailAndRole looks email up in role's collection only and stores
// a fresh token on the record, replacing any previous one.
func (s *TokenResetService) RequestByEmailAndRole(ctx context.Context, email string, role domain.Role) (TokenIssue, error) {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	l := slogx.FromContext(ctx).With(slog.String("role", role.String()))

	// 1. Validate input
	if !role.Known() {
		return TokenIssue{}, domain.NewValidationError("role", "unknown role")
	}
	email = normalizeEmail(email)
	if err := validate.Var("email", email, "required,email,max=254"); err != nil {
		return TokenIssue{}, err
	}

	// 2. Look up within the role
	user, _, err := findByEmail(ctx, s.Store.Users(), []domain.Role{role}, email)
	if err != nil {
		return TokenIssue{}, err
	}

	// 3. Generate the token: a time ordered segment and a random one
	now, err := readClock(ctx, s.Clock)
	if err != nil {
		return TokenIssue{}, err
	}
	random, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return TokenIssue{}, fmt.Errorf("generate reset token: %w", err)
	}
	token := idx.NewAt(now).String() + "." + random
	expiresAt := now.Add(s.ttl())

	// 4. Store the fingerprint on the record
	if err := s.Store.Users().SetResetToken(ctx, role, user.ID, cryptox.FingerprintSecret(token), expiresAt); err != nil {
		l.Error("failed to store reset token", slog.Any("error", err))
		return TokenIssue{}, domain.Unavailable(err)
	}

	// 5. Deliver
	if s.Mailer != nil {
		to := netmail.Address{Name: user.DisplayName, Address: email}
		if err := s.Mailer.Send(ctx, mail.ResetToken(to, token, s.ttl())); err != nil {
			l.Warn("failed to mail reset token", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}

	l.Info("reset token issued", slog.String("user_id", user.ID))
	return TokenIssue{Token: token, UserID: user.ID, Role: role, ExpiresAt: expiresAt}, nil
}

// VerifyToken checks token against role's collection. An expired token is
// cleared from the record before ErrTokenExpired is returned.
func (s *TokenResetService) VerifyToken(ctx context.Context, token string, role domain.Role) (domain.Verification, error) {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	now, err := readClock(ctx, s.Clock)
	if err != nil {
		return domain.Verification{}, err
	}

	user, err := verifyToken(ctx, s.Store, token, role, now)
	if errors.Is(err, domain.ErrTokenExpired) {
		s.clearExpired(ctx, role, user.ID)
	}
	if err != nil {
		return domain.Verification{}, err
	}
	return domain.Verification{UserID: user.ID, Role: role}, nil
}

// CompleteWithToken re-verifies token, sets the new password and clears the
// token fields in one transaction.
func (s *TokenResetService) CompleteWithToken(ctx context.Context, token, newPassword string, role domain.Role) error {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	l := slogx.FromContext(ctx).With(slog.String("role", role.String()))

	// 1. Validate the new password
	if err := validate.Password("new_password", newPassword); err != nil {
		return err
	}

	// 2. Hash and read the clock outside the transaction
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now, err := readClock(ctx, s.Clock)
	if err != nil {
		return err
	}

	// 3. Re-verify, update, clear
	var user domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if user, err = verifyToken(ctx, tx, token, role, now); err != nil {
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, role, user.ID, hash); err != nil {
			return err
		}
		return tx.Users().ClearResetToken(ctx, role, user.ID)
	})
	if errors.Is(err, domain.ErrTokenExpired) {
		// The transaction rolled back, clear the stale token on its own.
		s.clearExpired(ctx, role, user.ID)
	}
	if err != nil {
		err = storeErr(err)
		if errors.Is(err, domain.ErrStorageUnavailable) {
			l.Error("failed to complete token reset", slog.Any("error", err))
		}
		return err
	}

	l.Info("password reset with token", slog.String("user_id", user.ID))
	return nil
}

func (s *TokenResetService) clearExpired(ctx context.Context, role domain.Role, userID string) {
	if userID == "" {
		return
	}
	if err := s.Store.Users().ClearResetToken(ctx, role, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Warn("failed to clear expired reset token",
			slog.String("user_id", userID), slog.Any("error", err))
	}
}

// verifyToken finds the record holding token in role's collection. On
// ErrTokenExpired the record is still returned so the caller can clear it.
func verifyToken(ctx context.Context, st store.Store, token string, role domain.Role, now time.Time) (domain.User, error) {
	if !role.Known() {
		return domain.User{}, domain.NewValidationError("role", "unknown role")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, domain.ErrTokenInvalid
	}

	user, err := st.Users().GetUserByResetToken(ctx, role, cryptox.FingerprintSecret(token))
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, domain.ErrTokenInvalid
	}
	if err != nil {
		return domain.User{}, domain.Unavailable(err)
	}

	if user.ResetTokenExpiry == nil || now.After(*user.ResetTokenExpiry) {
		return user, domain.ErrTokenExpired
	}
	return user, nil
}
