package postgres

import (
	"context"
	"database/sql"
	"errors"

	"phillyrising/domain"
)

func (r *Repository) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (token, profile_id, expires_at)
VALUES ($1, $2, $3)`, s.Token, s.ProfileID, s.ExpiresAt)
	return err
}

func (r *Repository) LookupSession(ctx context.Context, token string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT token, profile_id, created_at, expires_at
  FROM sessions WHERE token = $1 AND expires_at > now()`, token)
	var s domain.Session
	err := row.Scan(&s.Token, &s.ProfileID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}
