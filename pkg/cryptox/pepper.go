package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the generated hash
	saltLength  = 16        // Length of the salt
)

var (
	pepperMu   sync.Mutex
	pepper     string
	pepperFile = "pepper"
)

// SetPepperPath sets the file the pepper is read from (or created in). It
// must be called before the first hash.
func SetPepperPath(file string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	pepperFile = file
	pepper = ""
}

// GetPepper returns the process pepper, loading or creating it on first use.
// The process exits if the pepper cannot be established since every stored
// hash depends on it.
func GetPepper() string {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	if pepper != "" {
		return pepper
	}

	secret, err := LoadOrCreateSecret(pepperFile, keyLength)
	if err != nil {
		slog.Error("failed to load or generate pepper", slog.Any("error", err))
		os.Exit(1)
	}
	pepper = base64.RawURLEncoding.EncodeToString(secret)
	return pepper
}

// LoadOrCreateSecret returns the secret stored at path. When the file does
// not exist a new random secret of size bytes is written with 0600
// permissions. Secrets are stored base64url encoded.
func LoadOrCreateSecret(path string, size int) ([]byte, error) {
	path = filepath.Clean(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		secret, decErr := base64.RawURLEncoding.DecodeString(string(data))
		if decErr != nil {
			return nil, fmt.Errorf("cryptox: decode secret %s: %w", path, decErr)
		}
		return secret, nil
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("cryptox: read secret %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	secret := make([]byte, size)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(base64.RawURLEncoding.EncodeToString(secret)), 0600); err != nil {
		return nil, fmt.Errorf("cryptox: write secret %s: %w", path, err)
	}
	return secret, nil
}
