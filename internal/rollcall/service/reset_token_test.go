package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

func TestTokenResetLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	teacher := f.addUser(t, domain.SeedUser{Role: domain.RoleTeacher, Username: "frizzle", Email: "frizzle@school.test", Password: "old-password"})

	issue, err := f.tokens.RequestByEmailAndRole(ctx, "frizzle@school.test", domain.RoleTeacher)
	require.NoError(t, err)
	require.Equal(t, teacher.ID, issue.UserID)
	require.True(t, epoch.Add(domain.DefaultResetTTL).Equal(issue.ExpiresAt))
	require.Len(t, strings.SplitN(issue.Token, ".", 2), 2)
	require.Greater(t, len(issue.Token), 60)

	// The record stores a fingerprint, never the token.
	rec, err := f.store.Users().GetUserByID(ctx, domain.RoleTeacher, teacher.ID)
	require.NoError(t, err)
	require.NotNil(t, rec.ResetTokenHash)
	require.NotEqual(t, issue.Token, *rec.ResetTokenHash)

	v, err := f.tokens.VerifyToken(ctx, issue.Token, domain.RoleTeacher)
	require.NoError(t, err)
	require.Equal(t, teacher.ID, v.UserID)
	require.Equal(t, domain.RoleTeacher, v.Role)

	t.Run("scoped to role", func(t *testing.T) {
		_, err := f.tokens.VerifyToken(ctx, issue.Token, domain.RoleStudent)
		require.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("short password changes nothing", func(t *testing.T) {
		var ve *domain.ValidationError
		err := f.tokens.CompleteWithToken(ctx, issue.Token, "tiny", domain.RoleTeacher)
		require.ErrorAs(t, err, &ve)
		require.Equal(t, "new_password", ve.Field)

		_, err = f.tokens.VerifyToken(ctx, issue.Token, domain.RoleTeacher)
		require.NoError(t, err)
		require.True(t, f.canLogin(t, domain.RoleTeacher, "frizzle", "old-password"))
	})

	require.NoError(t, f.tokens.CompleteWithToken(ctx, issue.Token, "new-password", domain.RoleTeacher))
	require.True(t, f.canLogin(t, domain.RoleTeacher, "frizzle", "new-password"))

	rec, err = f.store.Users().GetUserByID(ctx, domain.RoleTeacher, teacher.ID)
	require.NoError(t, err)
	require.Nil(t, rec.ResetTokenHash)
	require.Nil(t, rec.ResetTokenExpiry)

	err = f.tokens.CompleteWithToken(ctx, issue.Token, "third-password", domain.RoleTeacher)
	require.ErrorIs(t, err, domain.ErrTokenInvalid)
	require.True(t, f.canLogin(t, domain.RoleTeacher, "frizzle", "new-password"))
}

func TestTokenRequestIsRoleScoped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, domain.SeedUser{Role: domain.RoleStudent, Email: "arnold@school.test", Password: "field-trip"})

	_, err := f.tokens.RequestByEmailAndRole(ctx, "arnold@school.test", domain.RoleTeacher)
	require.ErrorIs(t, err, domain.ErrEmailNotFound)

	var ve *domain.ValidationError
	_, err = f.tokens.RequestByEmailAndRole(ctx, "arnold@school.test", domain.Role("janitor"))
	require.ErrorAs(t, err, &ve)

	first, err := f.tokens.RequestByEmailAndRole(ctx, "arnold@school.test", domain.RoleStudent)
	require.NoError(t, err)
	second, err := f.tokens.RequestByEmailAndRole(ctx, "arnold@school.test", domain.RoleStudent)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	// A newer token replaces the older one on the record.
	_, err = f.tokens.VerifyToken(ctx, first.Token, domain.RoleStudent)
	require.ErrorIs(t, err, domain.ErrTokenInvalid)
	_, err = f.tokens.VerifyToken(ctx, second.Token, domain.RoleStudent)
	require.NoError(t, err)

	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	require.Contains(t, sent[1].Text, second.Token)
}

func TestTokenExpiryClearsFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	student := f.addUser(t, domain.SeedUser{Role: domain.RoleStudent, Username: "arnold", Email: "arnold@school.test", Password: "field-trip"})

	issue, err := f.tokens.RequestByEmailAndRole(ctx, "arnold@school.test", domain.RoleStudent)
	require.NoError(t, err)

	f.clock.Set(issue.ExpiresAt)
	_, err = f.tokens.VerifyToken(ctx, issue.Token, domain.RoleStudent)
	require.NoError(t, err)

	f.clock.Set(issue.ExpiresAt.Add(time.Millisecond))
	_, err = f.tokens.VerifyToken(ctx, issue.Token, domain.RoleStudent)
	require.ErrorIs(t, err, domain.ErrTokenExpired)

	rec, err := f.store.Users().GetUserByID(ctx, domain.RoleStudent, student.ID)
	require.NoError(t, err)
	require.Nil(t, rec.ResetTokenHash)

	_, err = f.tokens.VerifyToken(ctx, issue.Token, domain.RoleStudent)
	require.ErrorIs(t, err, domain.ErrTokenInvalid)

	t.Run("complete on an expired token clears it too", func(t *testing.T) {
		issue, err := f.tokens.RequestByEmailAndRole(ctx, "arnold@school.test", domain.RoleStudent)
		require.NoError(t, err)

		f.clock.Advance(domain.DefaultResetTTL + time.Millisecond)
		err = f.tokens.CompleteWithToken(ctx, issue.Token, "new-password", domain.RoleStudent)
		require.ErrorIs(t, err, domain.ErrTokenExpired)
		require.True(t, f.canLogin(t, domain.RoleStudent, "arnold", "field-trip"))

		rec, err := f.store.Users().GetUserByID(ctx, domain.RoleStudent, student.ID)
		require.NoError(t, err)
		require.Nil(t, rec.ResetTokenHash)
	})
}
