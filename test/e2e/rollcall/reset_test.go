package rollcall_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
	"github.com/stretchr/testify/require"
)

// TestResetCodeFlow resets a password with a 6-digit code and signs in with it.
func TestResetCodeFlow(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	_, err := client.RequestResetCode(ctx, "nobody@school.test")
	assertAPIError(t, err, rollcallsdk.ErrorCodeEmailNotFound)

	issue, err := client.RequestResetCode(ctx, studentEmail)
	require.NoError(t, err)
	require.Len(t, issue.Code, 6)
	require.Equal(t, "student", issue.Role)

	v, err := client.VerifyResetCode(ctx, studentEmail, issue.Code)
	require.NoError(t, err)
	require.Equal(t, issue.RequestID, v.ResetID)

	require.NoError(t, client.CompleteResetCode(ctx, studentEmail, issue.Code, "new-secret"))

	err = client.CompleteResetCode(ctx, studentEmail, issue.Code, "another-secret")
	assertAPIError(t, err, rollcallsdk.ErrorCodeAlreadyUsed)

	login(t, client, "student", studentUsername, "new-secret")

	_, err = client.Login(ctx, rollcallsdk.LoginRequest{
		Role: "student", Identifier: studentUsername, Password: studentPassword,
	})
	assertAPIError(t, err, rollcallsdk.ErrorCodeInvalidCredentials)
}

// TestResetTokenFlow resets a password with an opaque token scoped to a role.
func TestResetTokenFlow(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	issue, err := client.RequestResetToken(ctx, teacherEmail, "teacher")
	require.NoError(t, err)
	require.NotEmpty(t, issue.Token)

	_, err = client.VerifyResetToken(ctx, issue.Token, "student")
	assertAPIError(t, err, rollcallsdk.ErrorCodeTokenInvalid)

	v, err := client.VerifyResetToken(ctx, issue.Token, "teacher")
	require.NoError(t, err)
	require.Equal(t, issue.UserID, v.UserID)

	require.NoError(t, client.CompleteResetToken(ctx, issue.Token, "teacher", "chalkboard"))

	err = client.CompleteResetToken(ctx, issue.Token, "teacher", "chalkboard2")
	assertAPIError(t, err, rollcallsdk.ErrorCodeTokenInvalid)

	login(t, client, "teacher", teacherEmail, "chalkboard")
}

// TestResetProtocolsAreSeparate checks a code never verifies as a token.
func TestResetProtocolsAreSeparate(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	code, err := client.RequestResetCode(ctx, teacherEmail)
	require.NoError(t, err)

	_, err = client.VerifyResetToken(ctx, code.Code, "teacher")
	assertAPIError(t, err, rollcallsdk.ErrorCodeTokenInvalid)
}

// TestResetRateLimit uses the default strict limits.
func TestResetRateLimit(t *testing.T) {
	client := setupContainer(t, map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "",
		"RATELIMIT_STRICT_WINDOW_SEC": "",
		"RATELIMIT_STRICT_BURST":      "",
	})
	ctx := t.Context()

	var limited bool
	for range 10 {
		_, err := client.VerifyResetCode(ctx, studentEmail, "000000")
		require.Error(t, err)

		var apiErr *rollcallsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		if apiErr.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
		require.Equal(t, rollcallsdk.ErrorCodeCodeInvalid, apiErr.Code)
	}
	require.True(t, limited, "strict limit should reject within 10 attempts")
}
