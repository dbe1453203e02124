package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories run
// unchanged inside and outside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// userColumns is shared by every collection. Admins and students have no
// department_head column so it is selected as a constant there.
func userColumns(c domain.Collection) string {
	head := "0"
	if c == domain.CollectionTeachers {
		head = "department_head"
	}
	return fmt.Sprintf(`id, display_name, username, email, password_hash, %s,
		attributes, reset_token_hash, reset_token_expiry, created_at, updated_at`, head)
}

// scope returns the table for role and an extra predicate restricting
// department-head lookups to flagged teachers.
func scope(role domain.Role) (string, string, error) {
	c := role.Collection()
	if c == "" {
		return "", "", fmt.Errorf("sqlite: no collection for role %q", role)
	}
	if role == domain.RoleDeptHead {
		return string(c), " AND department_head = 1", nil
	}
	return string(c), "", nil
}

type userRow struct {
	ID               string
	DisplayName      string
	Username         sql.NullString
	Email            sql.NullString
	PasswordHash     string
	DepartmentHead   bool
	Attributes       string
	ResetTokenHash   sql.NullString
	ResetTokenExpiry sql.NullInt64
	CreatedAt        int64
	UpdatedAt        int64
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (userRow, error) {
	var r userRow
	err := s.Scan(
		&r.ID,
		&r.DisplayName,
		&r.Username,
		&r.Email,
		&r.PasswordHash,
		&r.DepartmentHead,
		&r.Attributes,
		&r.ResetTokenHash,
		&r.ResetTokenExpiry,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

type resetRequestRow struct {
	ID        string
	UserID    string
	Role      string
	Email     string
	CodeHash  string
	CreatedAt int64
	ExpiresAt int64
	Used      bool
}

const resetRequestColumns = `id, user_id, role, email, code_hash, created_at, expires_at, used`

func scanResetRequest(s rowScanner) (resetRequestRow, error) {
	var r resetRequestRow
	err := s.Scan(
		&r.ID,
		&r.UserID,
		&r.Role,
		&r.Email,
		&r.CodeHash,
		&r.CreatedAt,
		&r.ExpiresAt,
		&r.Used,
	)
	return r, err
}
