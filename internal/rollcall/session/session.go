// Package session persists the device's single active session in the
// credential store and decides when it has expired.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/clock"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/credstore"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
	"github.com/aussiebroadwan/rollcall/pkg/jwtx"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

const (
	issuer = "rollcalld"

	signKeyInfo = "rollcall session signing v1"
	sealKeyInfo = "rollcall session sealing v1"
)

// Config tunes a Manager. Zero values pick the defaults.
type Config struct {
	MaxAge time.Duration
	Clock  clock.Clock
}

// Manager builds, persists, loads and invalidates the device session.
type Manager struct {
	store   credstore.Store
	signer  *jwtx.HS256
	sealKey []byte
	maxAge  time.Duration
	clock   clock.Clock
}

// NewManager derives the signing and sealing keys from deviceKey.
func NewManager(st credstore.Store, deviceKey []byte, cfg Config) (*Manager, error) {
	signKey, err := cryptox.DeriveKey(deviceKey, signKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("session: signing key: %w", err)
	}
	sealKey, err := cryptox.DeriveKey(deviceKey, sealKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("session: sealing key: %w", err)
	}
	signer, err := jwtx.NewHS256(signKey, issuer)
	if err != nil {
		return nil, err
	}

	if cfg.MaxAge <= 0 {
		cfg.MaxAge = domain.DefaultSessionMaxAge
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}

	return &Manager{
		store:   st,
		signer:  signer,
		sealKey: sealKey,
		maxAge:  cfg.MaxAge,
		clock:   cfg.Clock,
	}, nil
}

// MaxAge is the lifetime of a session measured from its IssuedAt.
func (m *Manager) MaxAge() time.Duration { return m.maxAge }

// Save persists s as the only session on the device. Blobs for other roles
// are removed in the same transaction.
func (m *Manager) Save(ctx context.Context, s domain.Session) error {
	blob, err := m.encode(s)
	if err != nil {
		return err
	}
	role := s.Role.String()

	return m.retry(ctx, "save", func() error {
		return m.store.Update(ctx, func(w credstore.Writer) error {
			if err := deleteSessionBlobs(w); err != nil {
				return err
			}
			if err := w.Put(credstore.SessionKey(role), blob); err != nil {
				return err
			}
			if err := w.Put(credstore.KeyCurrentRole, []byte(role)); err != nil {
				return err
			}
			return w.Put(credstore.KeyLastRole, []byte(role))
		})
	})
}

// Load returns the active session, or nil when there is none. Partial or
// unreadable state counts as no session. A session older than MaxAge is
// cleared and nil is returned.
func (m *Manager) Load(ctx context.Context) (*domain.Session, error) {
	s, err := m.current(ctx)
	if err != nil || s == nil {
		return nil, err
	}

	expired, err := m.expire(ctx, s)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, nil
	}
	return s, nil
}

// ExpireStale clears the session if it has outlived MaxAge and reports
// whether it did.
func (m *Manager) ExpireStale(ctx context.Context) (bool, error) {
	s, err := m.current(ctx)
	if err != nil || s == nil {
		return false, err
	}
	return m.expire(ctx, s)
}

// current reads and decodes the stored session without judging its age.
func (m *Manager) current(ctx context.Context) (*domain.Session, error) {
	l := slogx.FromContext(ctx)

	var pointer, blob []byte
	err := m.retry(ctx, "load", func() error {
		pointer, blob = nil, nil
		return m.store.View(ctx, func(r credstore.Reader) error {
			p, err := r.Get(credstore.KeyCurrentRole)
			if errors.Is(err, credstore.ErrNotFound) {
				return nil
			} else if err != nil {
				return err
			}
			b, err := r.Get(credstore.SessionKey(string(p)))
			if errors.Is(err, credstore.ErrNotFound) {
				return nil
			} else if err != nil {
				return err
			}
			pointer, blob = p, b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if pointer == nil || blob == nil {
		return nil, nil
	}

	s, err := m.decode(blob)
	if err != nil {
		l.Warn("discarding unreadable session", slog.Any("error", err))
		return nil, nil
	}
	if s.Role.String() != string(pointer) {
		l.Warn("discarding session with mismatched role pointer",
			slog.String("pointer", string(pointer)),
			slog.String("role", s.Role.String()),
		)
		return nil, nil
	}
	return &s, nil
}

func (m *Manager) expire(ctx context.Context, s *domain.Session) (bool, error) {
	now, err := m.clock.Now(ctx)
	if err != nil {
		return false, domain.Unavailable(err)
	}
	if !s.Expired(now, m.maxAge) {
		return false, nil
	}

	slogx.FromContext(ctx).Info("session expired",
		slog.String("role", s.Role.String()),
		slog.Time("issued_at", s.IssuedAt),
	)
	if err := m.Clear(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes the session, the role pointer and the routing hints in one
// transaction. The onboarding flag is kept.
func (m *Manager) Clear(ctx context.Context) error {
	return m.retry(ctx, "clear", func() error {
		return m.store.Update(ctx, func(w credstore.Writer) error {
			if err := deleteSessionBlobs(w); err != nil {
				return err
			}
			if err := w.Delete(credstore.KeyCurrentRole); err != nil {
				return err
			}
			hints, err := w.Keys(credstore.HintPrefix)
			if err != nil {
				return err
			}
			for _, k := range hints {
				if err := w.Delete(k); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// Refresh merges update into the cached user snapshot and persists it with
// the original IssuedAt, so profile edits never extend the session.
func (m *Manager) Refresh(ctx context.Context, update domain.ProfileUpdate) (domain.Session, error) {
	s, err := m.Load(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if s == nil {
		return domain.Session{}, domain.ErrNoSession
	}

	s.User = update.Apply(s.User)
	if err := m.Save(ctx, *s); err != nil {
		return domain.Session{}, err
	}
	return *s, nil
}

// LastRole returns the routing hint written by the last Save, if any.
func (m *Manager) LastRole(ctx context.Context) (domain.Role, bool, error) {
	v, err := m.get(ctx, credstore.KeyLastRole)
	if err != nil || v == nil {
		return "", false, err
	}
	role, ok := domain.ParseRole(string(v))
	return role, ok, nil
}

// OnboardingComplete reports whether the onboarding flow has been seen.
func (m *Manager) OnboardingComplete(ctx context.Context) (bool, error) {
	v, err := m.get(ctx, credstore.KeyOnboardingComplete)
	if err != nil {
		return false, err
	}
	return string(v) == "1", nil
}

// CompleteOnboarding sets the onboarding flag. It stays set until
// ResetOnboarding.
func (m *Manager) CompleteOnboarding(ctx context.Context) error {
	return m.retry(ctx, "complete onboarding", func() error {
		return m.store.Update(ctx, func(w credstore.Writer) error {
			return w.Put(credstore.KeyOnboardingComplete, []byte("1"))
		})
	})
}

// ResetOnboarding clears the onboarding flag.
func (m *Manager) ResetOnboarding(ctx context.Context) error {
	return m.retry(ctx, "reset onboarding", func() error {
		return m.store.Update(ctx, func(w credstore.Writer) error {
			return w.Delete(credstore.KeyOnboardingComplete)
		})
	})
}

// get reads a single key; absent keys yield nil, nil.
func (m *Manager) get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := m.retry(ctx, "read "+key, func() error {
		out = nil
		return m.store.View(ctx, func(r credstore.Reader) error {
			v, err := r.Get(key)
			if errors.Is(err, credstore.ErrNotFound) {
				return nil
			}
			out = v
			return err
		})
	})
	return out, err
}

// retry runs op, retrying once on failure. The final error is reported as
// domain.ErrStorageUnavailable unless the context ended.
func (m *Manager) retry(ctx context.Context, name string, op func() error) error {
	err := op()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	slogx.FromContext(ctx).Warn("credential store operation failed, retrying",
		slog.String("op", name),
		slog.Any("error", err),
	)
	if err = op(); err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return domain.Unavailable(fmt.Errorf("credential store %s: %w", name, err))
}

func deleteSessionBlobs(w credstore.Writer) error {
	keys, err := w.Keys(credstore.SessionPrefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if !credstore.IsSessionBlobKey(k) {
			continue
		}
		if err := w.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// encode signs the session as a JWT and seals it with AES-GCM.
func (m *Manager) encode(s domain.Session) ([]byte, error) {
	profile, err := json.Marshal(s.User)
	if err != nil {
		return nil, fmt.Errorf("session: encode profile: %w", err)
	}
	token, err := m.signer.Sign(jwtx.NewSessionClaims(s.UserID, s.Role.String(), issuer, profile, s.IssuedAt))
	if err != nil {
		return nil, fmt.Errorf("session: sign: %w", err)
	}
	sealed, err := cryptox.Seal(m.sealKey, []byte(token))
	if err != nil {
		return nil, fmt.Errorf("session: seal: %w", err)
	}
	return sealed, nil
}

func (m *Manager) decode(blob []byte) (domain.Session, error) {
	token, err := cryptox.Open(m.sealKey, blob)
	if err != nil {
		return domain.Session{}, err
	}
	claims, err := m.signer.Verify(string(token))
	if err != nil {
		return domain.Session{}, err
	}

	var user domain.UserSnapshot
	if len(claims.Profile) > 0 {
		if err := json.Unmarshal(claims.Profile, &user); err != nil {
			return domain.Session{}, fmt.Errorf("session: decode profile: %w", err)
		}
	}

	return domain.Session{
		UserID:   claims.Subject,
		Role:     domain.Role(claims.Role),
		User:     user,
		IssuedAt: claims.IssuedAtTime(),
	}, nil
}
