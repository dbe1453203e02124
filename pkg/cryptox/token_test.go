package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	for _, size := range []int{TokenSize128, TokenSize256, 24} {
		a, err := GenerateToken(size)
		require.NoError(t, err)
		b, err := GenerateToken(size)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	}

	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprintSecret(t *testing.T) {
	a := FingerprintSecret("123456")
	require.Equal(t, a, FingerprintSecret("123456"))
	require.NotEqual(t, a, FingerprintSecret("123457"))
	require.Len(t, a, 43)
}
