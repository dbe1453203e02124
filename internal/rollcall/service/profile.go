package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/session"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/validate"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// ProfileService edits the signed-in user's directory record and keeps the
// cached session snapshot in step with it.
type ProfileService struct {
	Store    store.Store
	Sessions *session.Manager
	Timeout  time.Duration
}

// Update writes update to the directory and refreshes the session with the
// same IssuedAt. Either both land or neither does.
func (s *ProfileService) Update(ctx context.Context, update domain.ProfileUpdate) (domain.Session, error) {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	l := slogx.FromContext(ctx)

	// 1. Validate
	if update.IsEmpty() {
		return domain.Session{}, domain.NewValidationError("profile", "nothing to update")
	}
	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if err := validate.Var("display_name", name, "notblank,max=100"); err != nil {
			return domain.Session{}, err
		}
		update.DisplayName = &name
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if err := validate.Var("email", email, "required,email,max=254"); err != nil {
			return domain.Session{}, err
		}
		update.Email = &email
	}

	// 2. Current session
	sess, err := s.Sessions.Load(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if sess == nil {
		return domain.Session{}, domain.ErrNoSession
	}
	if sess.UserID == BootstrapUserID {
		return domain.Session{}, domain.NewValidationError("session", "the bootstrap account has no profile")
	}

	// 3. Directory record
	u, err := s.Store.Users().GetUserByID(ctx, sess.Role, sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, domain.ErrNoSession
	}
	if err != nil {
		return domain.Session{}, domain.Unavailable(err)
	}

	snap := update.Apply(u.Snapshot())
	u.DisplayName = snap.DisplayName
	u.Email = snap.Email
	u.Attributes = snap.Attributes

	// 4. Directory write and session snapshot commit together. A failed
	// Refresh rolls the directory back.
	var refreshed domain.Session
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateProfile(ctx, u); err != nil {
			return err
		}
		r, err := s.Sessions.Refresh(ctx, update)
		refreshed = r
		return err
	})
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return domain.Session{}, domain.NewValidationError("email", "is already in use")
	case errors.Is(err, domain.ErrNoSession):
		return domain.Session{}, err
	case err != nil:
		l.Error("failed to update profile", slog.Any("error", err))
		return domain.Session{}, domain.Unavailable(err)
	}

	l.Info("profile updated", slog.String("user_id", u.ID), slog.String("role", sess.Role.String()))
	return refreshed, nil
}
