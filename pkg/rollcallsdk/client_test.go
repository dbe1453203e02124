package rollcallsdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
)

func TestClientLogin(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/session", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req rollcallsdk.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "teacher", req.Role)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rollcallsdk.SessionResponse{
			UserID:   "u1",
			Role:     req.Role,
			User:     rollcallsdk.UserProfile{ID: "u1", DisplayName: "Ms Frizzle"},
			IssuedAt: issued,
		})
	}))
	t.Cleanup(srv.Close)

	client := rollcallsdk.NewClient(srv.URL + "/")
	sess, err := client.Login(context.Background(), rollcallsdk.LoginRequest{
		Role: "teacher", Identifier: "frizzle", Password: "magic-bus",
	})
	require.NoError(t, err)
	require.Equal(t, "u1", sess.UserID)
	require.True(t, issued.Equal(sess.IssuedAt))
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   *rollcallsdk.APIError
	}{
		{
			name:   "typed error",
			status: http.StatusGone,
			body:   `{"error":"code_expired","error_description":"expired"}`,
			want:   rollcallsdk.ErrCodeExpired,
		},
		{
			name:   "validation details",
			status: http.StatusBadRequest,
			body:   `{"error":"validation_error","error_description":"bad","details":{"new_password":"too short"}}`,
			want:   rollcallsdk.ErrValidation,
		},
		{
			name:   "non json body",
			status: http.StatusBadGateway,
			body:   `upstream exploded`,
			want:   rollcallsdk.ErrServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := rollcallsdk.NewClient(srv.URL).CompleteResetCode(context.Background(), "a@b.com", "123456", "longenough")
			require.ErrorIs(t, err, tt.want)

			var apiErr *rollcallsdk.APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.StatusCode)
			if tt.want == rollcallsdk.ErrValidation {
				require.Equal(t, "too short", apiErr.Details["new_password"])
			}
		})
	}
}

func TestClientNoContent(t *testing.T) {
	t.Parallel()

	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	client := rollcallsdk.NewClient(srv.URL)
	require.NoError(t, client.Logout(ctx))
	require.NoError(t, client.CompleteOnboarding(ctx))
	require.NoError(t, client.ResetOnboarding(ctx))
	require.NoError(t, client.CompleteResetToken(ctx, "tok", "student", "longenough"))

	require.Equal(t, []string{
		"DELETE /v1/session",
		"PUT /v1/onboarding",
		"DELETE /v1/onboarding",
		"POST /v1/password-reset/token/complete",
	}, paths)
}
