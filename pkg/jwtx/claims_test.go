package jwtx_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/rollcall/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newSigner(t *testing.T, issuer string) *jwtx.HS256 {
	t.Helper()
	s, err := jwtx.NewHS256(testKey, issuer)
	require.NoError(t, err)
	return s
}

func TestNewHS256RejectsShortKey(t *testing.T) {
	_, err := jwtx.NewHS256([]byte("short"), "rollcall")
	require.Error(t, err)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s := newSigner(t, "rollcall")
	now := time.Date(2026, 3, 1, 9, 30, 0, 123_000_000, time.UTC)
	profile := json.RawMessage(`{"id":"u1","display_name":"Ms Frizzle"}`)

	token, err := s.Sign(jwtx.NewSessionClaims("u1", "teacher", "", profile, now))
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	got, err := s.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "u1", got.Subject)
	require.Equal(t, "teacher", got.Role)
	require.Equal(t, "rollcall", got.Issuer)
	require.True(t, now.Equal(got.IssuedAtTime()), "millisecond precision is kept")
	require.JSONEq(t, string(profile), string(got.Profile))
	require.Nil(t, got.ExpiresAt)
}

func TestVerifyRejects(t *testing.T) {
	s := newSigner(t, "rollcall")
	now := time.Now()

	valid, err := s.Sign(jwtx.NewSessionClaims("u1", "admin", "", nil, now))
	require.NoError(t, err)

	t.Run("malformed", func(t *testing.T) {
		_, err := s.Verify("not-a-jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("tampered signature", func(t *testing.T) {
		parts := strings.Split(valid, ".")
		parts[2] = strings.Repeat("A", len(parts[2]))
		_, err := s.Verify(strings.Join(parts, "."))
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("other key", func(t *testing.T) {
		other, err := jwtx.NewHS256([]byte("fedcba9876543210fedcba9876543210"), "rollcall")
		require.NoError(t, err)
		_, err = other.Verify(valid)
		require.Error(t, err)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		_, err := newSigner(t, "elsewhere").Verify(valid)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("missing role", func(t *testing.T) {
		token, err := s.Sign(jwtx.NewSessionClaims("u1", "", "", nil, now))
		require.NoError(t, err)
		_, err = s.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		c := jwtx.NewSessionClaims("u1", "admin", "rollcall", nil, now)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString(testKey)
		require.NoError(t, err)
		_, err = s.Verify(token)
		require.Error(t, err)
	})
}
