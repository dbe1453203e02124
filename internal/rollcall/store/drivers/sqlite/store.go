package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	dsn string
}

// FileDSN returns a DSN for the database file at path with WAL journaling,
// a busy timeout and foreign keys enabled on every pooled connection.
func FileDSN(path string) string {
	return "file:" + path +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// An in-memory database lives per connection, keep a single one.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Now reads the storage clock with millisecond precision.
func (s *Store) Now(ctx context.Context) (time.Time, error) {
	return storageNow(ctx, s.db)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Ensure rollback is called if we panic or return early with error
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Users() store.Users                 { return &usersRepo{db: s.db} }
func (s *Store) ResetRequests() store.ResetRequests { return &resetRequestsRepo{db: s.db} }

func storageNow(ctx context.Context, db DBTX) (time.Time, error) {
	var ms int64
	err := db.QueryRowContext(ctx,
		`SELECT CAST(ROUND((julianday('now') - 2440587.5) * 86400000.0) AS INTEGER)`,
	).Scan(&ms)
	if err != nil {
		return time.Time{}, err
	}
	return fromMillis(ms), nil
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint turns sqlite UNIQUE violations into store.ErrAlreadyExists.
func mapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func mapNullMillisPtr(n sql.NullInt64) *time.Time {
	if n.Valid {
		val := fromMillis(n.Int64)
		return &val
	}
	return nil
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func encodeAttributes(attrs map[string]string) (string, error) {
	if len(attrs) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeAttributes(s string) map[string]string {
	if s == "" || s == "{}" {
		return nil
	}
	var attrs map[string]string
	if err := json.Unmarshal([]byte(s), &attrs); err != nil {
		return nil
	}
	return attrs
}

func mapUser(role domain.Role, row userRow) domain.User {
	collectionRole := role
	if role == domain.RoleDeptHead {
		collectionRole = domain.RoleTeacher
	}

	return domain.User{
		ID:               row.ID,
		Role:             collectionRole,
		DisplayName:      row.DisplayName,
		Username:         mapNullString(row.Username),
		Email:            mapNullString(row.Email),
		PasswordHash:     row.PasswordHash,
		DepartmentHead:   row.DepartmentHead,
		Attributes:       decodeAttributes(row.Attributes),
		ResetTokenHash:   mapNullStringPtr(row.ResetTokenHash),
		ResetTokenExpiry: mapNullMillisPtr(row.ResetTokenExpiry),
		CreatedAt:        fromMillis(row.CreatedAt),
		UpdatedAt:        fromMillis(row.UpdatedAt),
	}
}

func mapResetRequest(row resetRequestRow) domain.ResetRequest {
	return domain.ResetRequest{
		ID:        row.ID,
		UserID:    row.UserID,
		Role:      domain.Role(row.Role),
		Email:     row.Email,
		CodeHash:  row.CodeHash,
		CreatedAt: fromMillis(row.CreatedAt),
		ExpiresAt: fromMillis(row.ExpiresAt),
		Used:      row.Used,
	}
}
