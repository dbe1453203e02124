package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

func TestStartupRouting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, domain.SeedUser{Role: domain.RoleDeptHead, Username: "keating", Password: "carpe-diem"})

	got, err := f.startup.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ViewOnboarding, got.View.Kind)
	require.Nil(t, got.Session)

	// A session without onboarding still opens onboarding.
	_, err = f.auth.Login(ctx, domain.RoleDeptHead, "keating", "carpe-diem")
	require.NoError(t, err)
	got, err = f.startup.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ViewOnboarding, got.View.Kind)

	require.NoError(t, f.startup.CompleteOnboarding(ctx))
	got, err = f.startup.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.InitialView{Kind: domain.ViewRoleDashboard, Role: domain.RoleDeptHead}, got.View)
	require.NotNil(t, got.Session)
	require.Equal(t, domain.RoleDeptHead, got.LastRole)

	require.NoError(t, f.auth.Logout(ctx))
	got, err = f.startup.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ViewRoleSelection, got.View.Kind)
	require.Empty(t, got.LastRole)

	require.NoError(t, f.startup.ResetOnboarding(ctx))
	got, err = f.startup.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ViewOnboarding, got.View.Kind)
}

func TestStartupAfterSessionExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, domain.SeedUser{Role: domain.RoleStudent, Username: "arnold", Password: "field-trip"})
	require.NoError(t, f.startup.CompleteOnboarding(ctx))
	_, err := f.auth.Login(ctx, domain.RoleStudent, "arnold", "field-trip")
	require.NoError(t, err)

	f.clock.Advance(domain.DefaultSessionMaxAge + time.Millisecond)

	got, err := f.startup.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ViewRoleSelection, got.View.Kind)
	require.Nil(t, got.Session)
	require.Empty(t, got.LastRole)

	onboarded, err := f.sessions.OnboardingComplete(ctx)
	require.NoError(t, err)
	require.True(t, onboarded)
}
