package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

type resetRequestsRepo struct {
	db DBTX
}

func (r *resetRequestsRepo) CreateResetRequest(ctx context.Context, req domain.ResetRequest) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO reset_requests
		(id, user_id, role, email, code_hash, created_at, expires_at, used)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.UserID,
		string(req.Role),
		req.Email,
		req.CodeHash,
		toMillis(req.CreatedAt),
		toMillis(req.ExpiresAt),
		req.Used,
	)
	return mapConstraint(err)
}

func (r *resetRequestsRepo) ListResetRequestsByEmailAndCode(
	ctx context.Context,
	email, codeHash string,
) ([]domain.ResetRequest, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+resetRequestColumns+`
		FROM reset_requests
		WHERE email = ? AND code_hash = ?
		ORDER BY created_at DESC, id DESC`,
		email, codeHash,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ResetRequest
	for rows.Next() {
		row, err := scanResetRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mapResetRequest(row))
	}
	return out, rows.Err()
}

func (r *resetRequestsRepo) MarkResetRequestUsed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reset_requests SET used = 1 WHERE id = ? AND used = 0`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *resetRequestsRepo) DeleteExpiredResetRequests(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reset_requests WHERE expires_at < ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
