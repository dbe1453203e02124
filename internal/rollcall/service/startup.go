package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/route"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/session"
)

// Startup is everything the presentation layer needs to open its first
// screen.
type Startup struct {
	View     domain.InitialView
	Session  *domain.Session
	LastRole domain.Role // empty when no hint is stored
}

// StartupService reads persisted state and resolves the initial view.
type StartupService struct {
	Sessions *session.Manager
	Timeout  time.Duration
}

// Resolve loads the onboarding flag and the session, then routes. Storage
// failures are returned, they never turn into "logged out".
func (s *StartupService) Resolve(ctx context.Context) (Startup, error) {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()

	onboarded, err := s.Sessions.OnboardingComplete(ctx)
	if err != nil {
		return Startup{}, err
	}
	sess, err := s.Sessions.Load(ctx)
	if err != nil {
		return Startup{}, err
	}
	last, _, err := s.Sessions.LastRole(ctx)
	if err != nil {
		return Startup{}, err
	}

	return Startup{
		View:     route.Resolve(onboarded, sess),
		Session:  sess,
		LastRole: last,
	}, nil
}

// CompleteOnboarding records that the onboarding flow was seen.
func (s *StartupService) CompleteOnboarding(ctx context.Context) error {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()
	return s.Sessions.CompleteOnboarding(ctx)
}

// ResetOnboarding clears the onboarding flag so the next start shows it again.
func (s *StartupService) ResetOnboarding(ctx context.Context) error {
	ctx, cancel := bound(ctx, s.Timeout)
	defer cancel()
	return s.Sessions.ResetOnboarding(ctx)
}
