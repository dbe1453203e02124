package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
)

func TestLoginEveryRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	admin := f.addUser(t, domain.SeedUser{Role: domain.RoleAdmin, Username: "principal", Email: "principal@school.test", Password: "admin-pass"})
	teacher := f.addUser(t, domain.SeedUser{Role: domain.RoleTeacher, Username: "frizzle", Email: "frizzle@school.test", Password: "magic-bus"})
	head := f.addUser(t, domain.SeedUser{Role: domain.RoleDeptHead, Username: "keating", Email: "keating@school.test", Password: "carpe-diem"})
	student := f.addUser(t, domain.SeedUser{Role: domain.RoleStudent, Username: "arnold", Email: "arnold@school.test", Password: "field-trip"})

	tests := []struct {
		name       string
		role       domain.Role
		identifier string
		password   string
		wantID     string
	}{
		{"admin by username", domain.RoleAdmin, "principal", "admin-pass", admin.ID},
		{"admin by email", domain.RoleAdmin, "principal@school.test", "admin-pass", admin.ID},
		{"teacher by username", domain.RoleTeacher, "frizzle", "magic-bus", teacher.ID},
		{"teacher by email", domain.RoleTeacher, "Frizzle@School.test", "magic-bus", teacher.ID},
		{"department head", domain.RoleDeptHead, "keating", "carpe-diem", head.ID},
		{"department head as teacher", domain.RoleTeacher, "keating@school.test", "carpe-diem", head.ID},
		{"student by username", domain.RoleStudent, "arnold", "field-trip", student.ID},
		{"student by email", domain.RoleStudent, "arnold@school.test", "field-trip", student.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := f.auth.Login(ctx, tt.role, tt.identifier, tt.password)
			require.NoError(t, err)
			require.Equal(t, tt.wantID, sess.UserID)
			require.Equal(t, tt.role, sess.Role)
			require.True(t, epoch.Equal(sess.IssuedAt))

			loaded, err := f.sessions.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, loaded)
			require.Equal(t, tt.wantID, loaded.UserID)
			require.Equal(t, tt.role, loaded.Role)
		})
	}
}

func TestLoginRejectsWithOneError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, domain.SeedUser{Role: domain.RoleTeacher, Username: "frizzle", Email: "frizzle@school.test", Password: "magic-bus"})
	f.addUser(t, domain.SeedUser{Role: domain.RoleTeacher, Username: "plain", Password: "plain-pass"})

	cases := []struct {
		name       string
		role       domain.Role
		identifier string
		password   string
	}{
		{"wrong password", domain.RoleTeacher, "frizzle", "wrong-pass"},
		{"unknown identifier", domain.RoleTeacher, "nobody", "magic-bus"},
		{"wrong collection", domain.RoleStudent, "frizzle", "magic-bus"},
		{"teacher is not a head", domain.RoleDeptHead, "plain", "plain-pass"},
	}

	var messages []string
	for _, tc := range cases {
		_, err := f.auth.Login(ctx, tc.role, tc.identifier, tc.password)
		require.ErrorIs(t, err, domain.ErrInvalidCredentials, tc.name)
		messages = append(messages, err.Error())
	}
	for _, m := range messages {
		require.Equal(t, messages[0], m)
	}

	sess, err := f.sessions.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestLoginValidatesInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	var ve *domain.ValidationError

	_, err := f.auth.Login(ctx, domain.RoleTeacher, "   ", "pw")
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "identifier", ve.Field)

	_, err = f.auth.Login(ctx, domain.RoleTeacher, "frizzle", "")
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "password", ve.Field)

	_, err = f.auth.Login(ctx, domain.Role("janitor"), "frizzle", "pw")
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "role", ve.Field)
}

func TestLoginUsernamePassRunsFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	// One record uses the string as a username, another as an email.
	byUsername := f.addUser(t, domain.SeedUser{Role: domain.RoleStudent, Username: "twin@school.test", Password: "same-pass"})
	byEmail := f.addUser(t, domain.SeedUser{Role: domain.RoleStudent, Username: "other", Email: "twin@school.test", Password: "same-pass"})

	sess, err := f.auth.Login(ctx, domain.RoleStudent, "twin@school.test", "same-pass")
	require.NoError(t, err)
	require.Equal(t, byUsername.ID, sess.UserID)

	t.Run("email pass matches when the username password differs", func(t *testing.T) {
		_, _, err := f.directory.AddUser(ctx, domain.SeedUser{
			Role: domain.RoleTeacher, DisplayName: "U", Username: "dup@school.test", Password: "first-pass",
		})
		require.NoError(t, err)
		e, _, err := f.directory.AddUser(ctx, domain.SeedUser{
			Role: domain.RoleTeacher, DisplayName: "E", Username: "e", Email: "dup@school.test", Password: "second-pass",
		})
		require.NoError(t, err)

		sess, err := f.auth.Login(ctx, domain.RoleTeacher, "dup@school.test", "second-pass")
		require.NoError(t, err)
		require.Equal(t, e.ID, sess.UserID)
	})

	require.NotEqual(t, byUsername.ID, byEmail.ID)
}

func TestLoginBootstrapAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.auth.Login(ctx, domain.RoleAdmin, "root", "letmein-bootstrap")
	require.NoError(t, err)
	require.Equal(t, service.BootstrapUserID, sess.UserID)
	require.Equal(t, domain.RoleAdmin, sess.Role)

	t.Run("only for admins", func(t *testing.T) {
		_, err := f.auth.Login(ctx, domain.RoleTeacher, "root", "letmein-bootstrap")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.auth.Login(ctx, domain.RoleAdmin, "root", "guess")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("directory record wins", func(t *testing.T) {
		admin := f.addUser(t, domain.SeedUser{Role: domain.RoleAdmin, Username: "root", Password: "letmein-bootstrap"})
		sess, err := f.auth.Login(ctx, domain.RoleAdmin, "root", "letmein-bootstrap")
		require.NoError(t, err)
		require.Equal(t, admin.ID, sess.UserID)
	})

	t.Run("disabled", func(t *testing.T) {
		auth := *f.auth
		auth.Bootstrap = nil
		_, err := auth.Login(ctx, domain.RoleAdmin, "root", "bootstrap-only")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestLoginReplacesPreviousSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, domain.SeedUser{Role: domain.RoleTeacher, Username: "frizzle", Password: "magic-bus"})
	student := f.addUser(t, domain.SeedUser{Role: domain.RoleStudent, Username: "arnold", Password: "field-trip"})

	_, err := f.auth.Login(ctx, domain.RoleTeacher, "frizzle", "magic-bus")
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.auth.Login(ctx, domain.RoleStudent, "arnold", "field-trip")
	require.NoError(t, err)

	current, err := f.auth.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, student.ID, current.UserID)
	require.True(t, epoch.Add(time.Minute).Equal(current.IssuedAt))
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, domain.SeedUser{Role: domain.RoleStudent, Username: "arnold", Password: "field-trip"})
	_, err := f.auth.Login(ctx, domain.RoleStudent, "arnold", "field-trip")
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx))
	require.NoError(t, f.auth.Logout(ctx))

	_, err = f.auth.Current(ctx)
	require.ErrorIs(t, err, domain.ErrNoSession)
}

func TestBootstrapAuthenticatorConstruction(t *testing.T) {
	t.Parallel()

	b, err := service.NewBootstrapAuthenticator(false, "root", "pw")
	require.NoError(t, err)
	require.Nil(t, b)

	_, ok := b.Authenticate(context.Background(), "root", "pw")
	require.False(t, ok)

	_, err = service.NewBootstrapAuthenticator(true, "root", "")
	require.Error(t, err)
}
