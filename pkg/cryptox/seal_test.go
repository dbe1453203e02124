package cryptox_test

import (
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T, info string) []byte {
	t.Helper()
	key, err := cryptox.DeriveKey([]byte("device-secret-for-tests"), info)
	require.NoError(t, err)
	return key
}

func TestSealOpen(t *testing.T) {
	t.Parallel()
	key := testKey(t, "session")
	data := []byte("role=teacher;user=frizzle")

	first, err := cryptox.Seal(key, data)
	require.NoError(t, err)
	second, err := cryptox.Seal(key, data)
	require.NoError(t, err)
	require.NotEqual(t, first, second, "nonce should differ per seal")

	for _, sealed := range [][]byte{first, second} {
		got, err := cryptox.Open(key, sealed)
		require.NoError(t, err)
		require.Equal(t, data, got)
	}
}

func TestOpenRejects(t *testing.T) {
	t.Parallel()
	key := testKey(t, "session")

	sealed, err := cryptox.Seal(key, []byte("original"))
	require.NoError(t, err)

	t.Run("tampered", func(t *testing.T) {
		tampered := append([]byte(nil), sealed...)
		tampered[len(tampered)-1] ^= 0xFF
		_, err := cryptox.Open(key, tampered)
		require.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := cryptox.Open(key, []byte("short"))
		require.ErrorIs(t, err, cryptox.ErrSealedTooShort)
	})

	t.Run("other key", func(t *testing.T) {
		_, err := cryptox.Open(testKey(t, "other"), sealed)
		require.Error(t, err)
	})
}

func TestDeriveKey(t *testing.T) {
	t.Parallel()

	a := testKey(t, "a")
	require.Len(t, a, cryptox.SealKeySize)
	require.Equal(t, a, testKey(t, "a"))
	require.NotEqual(t, a, testKey(t, "b"))

	_, err := cryptox.DeriveKey(nil, "a")
	require.Error(t, err)
}

func TestLoadOrCreateSecret(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "device.key")

	created, err := cryptox.LoadOrCreateSecret(path, 32)
	require.NoError(t, err)
	require.Len(t, created, 32)

	loaded, err := cryptox.LoadOrCreateSecret(path, 32)
	require.NoError(t, err)
	require.Equal(t, created, loaded)
}
