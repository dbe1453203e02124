package service_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

func fixedCode(code string) func() (string, error) {
	return func() (string, error) { return code, nil }
}

func TestCodeResetScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.codes.NewCode = fixedCode("123456")

	admin := f.addUser(t, domain.SeedUser{Role: domain.RoleAdmin, Username: "ab", Email: "a@b.com", Password: "old-password"})

	issue, err := f.codes.RequestByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^\d{6}$`), issue.Code)
	require.Equal(t, domain.RoleAdmin, issue.Role)
	require.True(t, epoch.Add(domain.DefaultResetTTL).Equal(issue.ExpiresAt))

	_, err = f.codes.VerifyCode(ctx, "a@b.com", "000000")
	require.ErrorIs(t, err, domain.ErrCodeInvalid)

	v, err := f.codes.VerifyCode(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	require.Equal(t, issue.RequestID, v.ResetID)
	require.Equal(t, admin.ID, v.UserID)
	require.Equal(t, domain.RoleAdmin, v.Role)

	var ve *domain.ValidationError
	err = f.codes.CompleteWithCode(ctx, "a@b.com", "123456", "short")
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "new_password", ve.Field)

	// Nothing changed.
	require.True(t, f.canLogin(t, domain.RoleAdmin, "ab", "old-password"))
	_, err = f.codes.VerifyCode(ctx, "a@b.com", "123456")
	require.NoError(t, err)

	require.NoError(t, f.codes.CompleteWithCode(ctx, "a@b.com", "123456", "longenough"))
	require.True(t, f.canLogin(t, domain.RoleAdmin, "ab", "longenough"))
	require.False(t, f.canLogin(t, domain.RoleAdmin, "ab", "old-password"))

	_, err = f.codes.VerifyCode(ctx, "a@b.com", "123456")
	require.ErrorIs(t, err, domain.ErrCodeInvalid)

	err = f.codes.CompleteWithCode(ctx, "a@b.com", "123456", "another-one")
	require.ErrorIs(t, err, domain.ErrAlreadyUsed)
	require.True(t, f.canLogin(t, domain.RoleAdmin, "ab", "longenough"))
}

func TestCodeRequestScansRolesInOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.codes.RequestByEmail(ctx, "shared@school.test")
	require.ErrorIs(t, err, domain.ErrEmailNotFound)

	student := f.addUser(t, domain.SeedUser{Role: domain.RoleStudent, Email: "shared@school.test", Password: "student-pw"})
	issue, err := f.codes.RequestByEmail(ctx, "shared@school.test")
	require.NoError(t, err)
	require.Equal(t, domain.RoleStudent, issue.Role)

	teacher := f.addUser(t, domain.SeedUser{Role: domain.RoleTeacher, Email: "shared@school.test", Password: "teacher-pw"})
	issue, err = f.codes.RequestByEmail(ctx, "SHARED@school.test")
	require.NoError(t, err)
	require.Equal(t, domain.RoleTeacher, issue.Role)

	v, err := f.codes.VerifyCode(ctx, "shared@school.test", issue.Code)
	require.NoError(t, err)
	require.Equal(t, teacher.ID, v.UserID)
	require.NotEqual(t, student.ID, v.UserID)

	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, "shared@school.test", sent[1].To.Address)
	require.Contains(t, sent[1].Text, issue.Code)
}

func TestCodeExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.codes.NewCode = fixedCode("042042")

	f.addUser(t, domain.SeedUser{Role: domain.RoleTeacher, Username: "t", Email: "t@school.test", Password: "old-password"})
	issue, err := f.codes.RequestByEmail(ctx, "t@school.test")
	require.NoError(t, err)

	f.clock.Set(issue.ExpiresAt)
	_, err = f.codes.VerifyCode(ctx, "t@school.test", "042042")
	require.NoError(t, err)

	f.clock.Set(issue.ExpiresAt.Add(time.Millisecond))
	_, err = f.codes.VerifyCode(ctx, "t@school.test", "042042")
	require.ErrorIs(t, err, domain.ErrCodeExpired)

	err = f.codes.CompleteWithCode(ctx, "t@school.test", "042042", "new-password")
	require.ErrorIs(t, err, domain.ErrCodeExpired)
	require.True(t, f.canLogin(t, domain.RoleTeacher, "t", "old-password"))

	t.Run("a fresh request supersedes the expired one", func(t *testing.T) {
		_, err := f.codes.RequestByEmail(ctx, "t@school.test")
		require.NoError(t, err)
		_, err = f.codes.VerifyCode(ctx, "t@school.test", "042042")
		require.NoError(t, err)
	})
}

func TestCodeRejectsMalformedInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	var ve *domain.ValidationError
	_, err := f.codes.RequestByEmail(ctx, "not-an-email")
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "email", ve.Field)

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		_, err := f.codes.VerifyCode(ctx, "a@b.com", code)
		require.ErrorIs(t, err, domain.ErrCodeInvalid, code)
	}
}

func TestDefaultCodeGenerator(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.addUser(t, domain.SeedUser{Role: domain.RoleStudent, Email: "s@school.test", Password: "student-pw"})

	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 5; i++ {
		issue, err := f.codes.RequestByEmail(ctx, "s@school.test")
		require.NoError(t, err)
		require.Regexp(t, pattern, issue.Code)
	}
}

func TestProtocolsAreNotInterchangeable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.codes.NewCode = fixedCode("654321")

	f.addUser(t, domain.SeedUser{Role: domain.RoleStudent, Email: "s@school.test", Password: "student-pw"})

	code, err := f.codes.RequestByEmail(ctx, "s@school.test")
	require.NoError(t, err)
	token, err := f.tokens.RequestByEmailAndRole(ctx, "s@school.test", domain.RoleStudent)
	require.NoError(t, err)

	_, err = f.tokens.VerifyToken(ctx, code.Code, domain.RoleStudent)
	require.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = f.codes.VerifyCode(ctx, "s@school.test", token.Token)
	require.ErrorIs(t, err, domain.ErrCodeInvalid)

	// Completing one protocol leaves the other open.
	require.NoError(t, f.codes.CompleteWithCode(ctx, "s@school.test", code.Code, "via-code"))
	_, err = f.tokens.VerifyToken(ctx, token.Token, domain.RoleStudent)
	require.NoError(t, err)
}
