package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "cryptox-test")
	if err != nil {
		panic(err)
	}
	SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestHashPasswordFormat(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	parts := strings.Split(hash, "$")
	require.Len(t, parts, 6)
	require.Equal(t, "argon2id", parts[1])
	require.Equal(t, "v=19", parts[2])
	require.Equal(t, "m=19456,t=2,p=1", parts[3])
	require.NotEmpty(t, parts[4])
	require.NotEmpty(t, parts[5])

	again, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NotEqual(t, hash, again, "salts should differ")
}

func TestVerifyPassword(t *testing.T) {
	passwords := []string{"password123", "P@ssw0rd!#$%", strings.Repeat("a", 100), "", "пароль🔒"}

	for _, pw := range passwords {
		t.Run(pw, func(t *testing.T) {
			hash, err := HashPassword(pw)
			require.NoError(t, err)
			require.NoError(t, VerifyPassword(pw, hash))
			require.ErrorIs(t, VerifyPassword(pw+"x", hash), ErrPasswordMismatch)
		})
	}
}

func TestVerifyPasswordInvalidHash(t *testing.T) {
	tests := map[string]string{
		"empty":           "",
		"wrong algorithm": "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"missing parts":   "$argon2id$v=19$m=19456",
		"bad parameters":  "$argon2id$v=19$invalid$c2FsdA$aGFzaA",
		"bad salt":        "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
		"bad key":         "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!",
		"wrong version":   "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	}

	for name, hash := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, VerifyPassword("pw", hash), ErrInvalidHash)
		})
	}
}

func TestDummyVerifyDoesNotPanic(t *testing.T) {
	DummyVerify("anything")
	DummyVerify("")
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		pw, err := GeneratePassword()
		require.NoError(t, err)
		require.Len(t, pw, 12)
		for _, c := range pw {
			require.True(t, (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'))
		}
		require.False(t, seen[pw], "duplicate password")
		seen[pw] = true
	}
}
