// Package credstore defines the device-local key/value store that holds the
// active session slot and the small routing flags.
package credstore

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("credstore: key not found")

// Persisted keys.
const (
	KeyCurrentRole        = "session.currentRole"
	KeyOnboardingComplete = "flag.onboardingComplete"
	KeyLastRole           = "hint.lastRole"

	SessionPrefix = "session."
	HintPrefix    = "hint."
)

// SessionKey returns the key holding the session blob for role.
func SessionKey(role string) string {
	return SessionPrefix + role
}

// IsSessionBlobKey reports whether key holds a session blob rather than the
// current role pointer.
func IsSessionBlobKey(key string) bool {
	return strings.HasPrefix(key, SessionPrefix) && key != KeyCurrentRole
}

// Reader reads keys inside a transaction.
type Reader interface {
	// Get returns ErrNotFound when key is absent.
	Get(key string) ([]byte, error)
	// Keys lists keys starting with prefix in byte order.
	Keys(prefix string) ([]string, error)
}

// Writer mutates keys inside a transaction.
type Writer interface {
	Reader
	Put(key string, value []byte) error
	// Delete is a no-op for absent keys.
	Delete(key string) error
}

// Store runs read and read/write transactions. An Update either applies
// every write made by fn or none of them.
type Store interface {
	View(ctx context.Context, fn func(Reader) error) error
	Update(ctx context.Context, fn func(Writer) error) error
	Ping(ctx context.Context) error
	Close() error
}
