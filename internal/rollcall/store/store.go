package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for the directory. Drivers expose
// sub-repositories rather than flat methods so a Tx-scoped Store can be handed
// to multi-step operations without nesting transactions.
type Store interface {
	Users() Users
	ResetRequests() ResetRequests

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It commits when fn returns nil
	// and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Now returns the storage clock. Reset expiry is always judged against
	// this rather than the caller's clock.
	Now(ctx context.Context) (time.Time, error)

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is the per-role user directory. Every lookup is scoped to a single
// role's collection; DeptHead lookups only match flagged teacher records.
type Users interface {
	GetUserByID(ctx context.Context, role domain.Role, id string) (domain.User, error)
	GetUserByUsername(ctx context.Context, role domain.Role, username string) (domain.User, error)
	GetUserByEmail(ctx context.Context, role domain.Role, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID). Returns
	// ErrAlreadyExists if the username or email is taken within the collection.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, role domain.Role, userID string, newHash string) error

	// UpdateProfile writes display name, email and attributes and bumps updated_at.
	UpdateProfile(ctx context.Context, u domain.User) error

	// SetResetToken stores the token fingerprint and expiry on the record.
	SetResetToken(ctx context.Context, role domain.Role, userID, tokenHash string, expiresAt time.Time) error

	// GetUserByResetToken finds the record carrying tokenHash.
	GetUserByResetToken(ctx context.Context, role domain.Role, tokenHash string) (domain.User, error)

	// ClearResetToken nulls both token fields.
	ClearResetToken(ctx context.Context, role domain.Role, userID string) error

	// ClearExpiredResetTokens nulls token fields whose expiry is before now
	// across every collection (housekeeping).
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)

	// Count returns the number of records in role's collection.
	Count(ctx context.Context, role domain.Role) (int, error)
}

// ResetRequests is the code protocol's request log.
type ResetRequests interface {
	CreateResetRequest(ctx context.Context, r domain.ResetRequest) error

	// ListResetRequestsByEmailAndCode returns requests for email whose code
	// fingerprint matches, newest first, used or not.
	ListResetRequestsByEmailAndCode(ctx context.Context, email, codeHash string) ([]domain.ResetRequest, error)

	// MarkResetRequestUsed flips used 0→1. Returns ErrNotFound if the request
	// does not exist or was already used.
	MarkResetRequestUsed(ctx context.Context, id string) error

	// DeleteExpiredResetRequests removes requests that expired before now.
	DeleteExpiredResetRequests(ctx context.Context, now time.Time) (int64, error)
}
