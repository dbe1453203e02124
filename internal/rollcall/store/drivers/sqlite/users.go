package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
)

type usersRepo struct {
	db DBTX
}

func (r *usersRepo) getOne(ctx context.Context, role domain.Role, where string, arg any) (domain.User, error) {
	table, extra, err := scope(role)
	if err != nil {
		return domain.User{}, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s%s LIMIT 1`,
		userColumns(role.Collection()), table, where, extra)

	row, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(role, row), nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, role domain.Role, id string) (domain.User, error) {
	return r.getOne(ctx, role, "id = ?", id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, role domain.Role, username string) (domain.User, error) {
	if username == "" {
		return domain.User{}, store.ErrNotFound
	}
	return r.getOne(ctx, role, "username = ?", username)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, role domain.Role, email string) (domain.User, error) {
	if email == "" {
		return domain.User{}, store.ErrNotFound
	}
	return r.getOne(ctx, role, "email = ?", email)
}

func (r *usersRepo) GetUserByResetToken(ctx context.Context, role domain.Role, tokenHash string) (domain.User, error) {
	if tokenHash == "" {
		return domain.User{}, store.ErrNotFound
	}
	return r.getOne(ctx, role, "reset_token_hash = ?", tokenHash)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	table, _, err := scope(u.Role)
	if err != nil {
		return err
	}

	attrs, err := encodeAttributes(u.Attributes)
	if err != nil {
		return fmt.Errorf("sqlite: encode attributes: %w", err)
	}

	now := toMillis(time.Now())
	args := []any{
		u.ID,
		u.DisplayName,
		mapStringNull(u.Username),
		mapStringNull(u.Email),
		u.PasswordHash,
		attrs,
		now,
		now,
	}

	var query string
	if u.Role.Collection() == domain.CollectionTeachers {
		query = `INSERT INTO teachers (id, display_name, username, email, password_hash,
			attributes, created_at, updated_at, department_head)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		args = append(args, u.DepartmentHead || u.Role == domain.RoleDeptHead)
	} else {
		query = fmt.Sprintf(`INSERT INTO %s (id, display_name, username, email, password_hash,
			attributes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, table)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, role domain.Role, userID string, newHash string) error {
	table, _, err := scope(role)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET password_hash = ?, updated_at = ? WHERE id = ?`, table)
	return r.execOne(ctx, query, newHash, toMillis(time.Now()), userID)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, u domain.User) error {
	table, _, err := scope(u.Role)
	if err != nil {
		return err
	}

	attrs, err := encodeAttributes(u.Attributes)
	if err != nil {
		return fmt.Errorf("sqlite: encode attributes: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET display_name = ?, email = ?, attributes = ?, updated_at = ?
		WHERE id = ?`, table)
	return mapConstraint(r.execOne(ctx, query,
		u.DisplayName, mapStringNull(u.Email), attrs, toMillis(time.Now()), u.ID))
}

func (r *usersRepo) SetResetToken(
	ctx context.Context,
	role domain.Role,
	userID, tokenHash string,
	expiresAt time.Time,
) error {
	table, _, err := scope(role)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET reset_token_hash = ?, reset_token_expiry = ?, updated_at = ?
		WHERE id = ?`, table)
	return mapConstraint(r.execOne(ctx, query,
		tokenHash, toMillis(expiresAt), toMillis(time.Now()), userID))
}

func (r *usersRepo) ClearResetToken(ctx context.Context, role domain.Role, userID string) error {
	table, _, err := scope(role)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = ?
		WHERE id = ?`, table)
	return r.execOne(ctx, query, toMillis(time.Now()), userID)
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, c := range []domain.Collection{
		domain.CollectionAdmins,
		domain.CollectionTeachers,
		domain.CollectionStudents,
	} {
		query := fmt.Sprintf(`UPDATE %s SET reset_token_hash = NULL, reset_token_expiry = NULL
			WHERE reset_token_expiry IS NOT NULL AND reset_token_expiry < ?`, c)
		res, err := r.db.ExecContext(ctx, query, toMillis(now))
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (r *usersRepo) Count(ctx context.Context, role domain.Role) (int, error) {
	table, extra, err := scope(role)
	if err != nil {
		return 0, err
	}

	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE 1 = 1%s`, table, extra)
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// execOne runs an UPDATE and reports store.ErrNotFound when no row matched.
func (r *usersRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
