package rollcall_test

import (
	"testing"

	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
	"github.com/stretchr/testify/require"
)

// TestFirstRunRouting walks a fresh device from onboarding to a dashboard.
func TestFirstRunRouting(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	route, err := client.Route(ctx)
	require.NoError(t, err)
	require.Equal(t, rollcallsdk.ViewOnboarding, route.View)

	require.NoError(t, client.CompleteOnboarding(ctx))

	route, err = client.Route(ctx)
	require.NoError(t, err)
	require.Equal(t, rollcallsdk.ViewRoleSelection, route.View)

	login(t, client, "teacher", teacherUsername, teacherPassword)

	route, err = client.Route(ctx)
	require.NoError(t, err)
	require.Equal(t, rollcallsdk.ViewRoleDashboard, route.View)
	require.Equal(t, "teacher", route.Role)

	require.NoError(t, client.Logout(ctx))

	route, err = client.Route(ctx)
	require.NoError(t, err)
	require.Equal(t, rollcallsdk.ViewRoleSelection, route.View)
}

// TestLoginPerRole signs in to every seeded collection.
func TestLoginPerRole(t *testing.T) {
	client := setupContainer(t, nil)

	t.Run("teacher by username", func(t *testing.T) {
		sess := login(t, client, "teacher", teacherUsername, teacherPassword)
		require.Equal(t, "science", sess.User.Attributes["subject"])
	})

	t.Run("student by email", func(t *testing.T) {
		sess := login(t, client, "student", studentEmail, studentPassword)
		require.Equal(t, "Arnold", sess.User.DisplayName)
	})

	t.Run("department head by email", func(t *testing.T) {
		sess := login(t, client, "dept_head", headEmail, headPassword)
		require.True(t, sess.User.DepartmentHead)
	})

	t.Run("bootstrap admin", func(t *testing.T) {
		sess := login(t, client, "admin", bootstrapUsername, bootstrapPassword)
		require.Equal(t, "bootstrap", sess.UserID)
	})

	t.Run("teacher is not a department head", func(t *testing.T) {
		_, err := client.Login(t.Context(), rollcallsdk.LoginRequest{
			Role: "dept_head", Identifier: teacherUsername, Password: teacherPassword,
		})
		assertAPIError(t, err, rollcallsdk.ErrorCodeInvalidCredentials)
	})

	t.Run("wrong collection", func(t *testing.T) {
		_, err := client.Login(t.Context(), rollcallsdk.LoginRequest{
			Role: "student", Identifier: teacherUsername, Password: teacherPassword,
		})
		assertAPIError(t, err, rollcallsdk.ErrorCodeInvalidCredentials)
	})
}

// TestSessionSurvivesProfileUpdate checks a profile edit keeps the sign-in time.
func TestSessionSurvivesProfileUpdate(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	before := login(t, client, "student", studentUsername, studentPassword)

	name := "Arnold Perlstein"
	after, err := client.UpdateProfile(ctx, rollcallsdk.ProfileUpdateRequest{DisplayName: &name})
	require.NoError(t, err)
	require.Equal(t, name, after.User.DisplayName)
	require.True(t, before.IssuedAt.Equal(after.IssuedAt))

	current, err := client.Session(ctx)
	require.NoError(t, err)
	require.Equal(t, name, current.User.DisplayName)

	require.NoError(t, client.Logout(ctx))
	_, err = client.Session(ctx)
	assertAPIError(t, err, rollcallsdk.ErrorCodeNoSession)
}
