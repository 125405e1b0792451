package postgres

import (
	"context"
	"database/sql"
	"errors"

	"phillyrising/domain"
)

func (r *Repository) CreateShortURL(ctx context.Context, code, target string) (domain.ShortURL, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO short_urls (code, target_url)
VALUES ($1, $2)
ON CONFLICT (code) DO NOTHING
RETURNING id, created_at`, code, target)
	s := domain.ShortURL{Code: code, TargetURL: target}
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ShortURL{}, domain.ErrAlreadyExists
		}
		return domain.ShortURL{}, err
	}
	return s, nil
}

// ResolveShortURL bumps the hit counter and returns the mapping in one
// statement, so concurrent redirects never lose a count.
func (r *Repository) ResolveShortURL(ctx context.Context, code string) (domain.ShortURL, error) {
	row := r.db.QueryRowContext(ctx, `
UPDATE short_urls SET hits = hits + 1
 WHERE code = $1
RETURNING id, created_at, code, target_url, hits`, code)
	var s domain.ShortURL
	err := row.Scan(&s.ID, &s.CreatedAt, &s.Code, &s.TargetURL, &s.Hits)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ShortURL{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ShortURL{}, err
	}
	return s, nil
}

func (r *Repository) ListShortURLs(ctx context.Context, limit int) ([]domain.ShortURL, error) {
	q := `SELECT id, created_at, code, target_url, hits FROM short_urls ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		args = append(args, limit)
		q += ` LIMIT $1`
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.ShortURL
	for rows.Next() {
		var s domain.ShortURL
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.Code, &s.TargetURL, &s.Hits); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
