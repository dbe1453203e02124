// Package service implements login, session startup and the two password
// reset protocols on top of the directory store and the session manager.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/clock"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
)

// DefaultRequestTimeout bounds every public service call.
const DefaultRequestTimeout = 10 * time.Second

// bound applies timeout (or the default) to ctx.
func bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// readClock reads c, falling back to the system clock, with millisecond precision.
func readClock(ctx context.Context, c clock.Clock) (time.Time, error) {
	if c == nil {
		c = clock.System{}
	}
	t, err := c.Now(ctx)
	if err != nil {
		return time.Time{}, domain.Unavailable(err)
	}
	return t.UTC().Truncate(time.Millisecond), nil
}

// storeErr passes domain errors through and reports everything else as
// storage unavailability.
func storeErr(err error) error {
	if err == nil || isDomainErr(err) {
		return err
	}
	return domain.Unavailable(err)
}

func isDomainErr(err error) bool {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrStorageUnavailable),
		errors.Is(err, domain.ErrNoSession),
		errors.Is(err, domain.ErrEmailNotFound),
		errors.Is(err, domain.ErrCodeInvalid),
		errors.Is(err, domain.ErrCodeExpired),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrAlreadyUsed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return true
	}
	return false
}

// findByEmail scans roles in order and returns the first record using email.
func findByEmail(ctx context.Context, users store.Users, roles []domain.Role, email string) (domain.User, domain.Role, error) {
	for _, role := range roles {
		u, err := users.GetUserByEmail(ctx, role, email)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return domain.User{}, "", domain.Unavailable(err)
		}
		return u, role, nil
	}
	return domain.User{}, "", domain.ErrEmailNotFound
}
