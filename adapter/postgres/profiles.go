package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/lib/pq"

	"phillyrising/domain"
)

func itoa(n int) string { return strconv.Itoa(n) }

// scoreWindow is the trailing window for leaderboard point totals.
const scoreWindow = `interval '30 days'`

func (r *Repository) UpsertProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO profiles (username, email, avatar_url, provider, provider_uid, neighborhood_tag)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (provider, provider_uid) DO UPDATE SET
    email = EXCLUDED.email,
    avatar_url = EXCLUDED.avatar_url,
    neighborhood_tag = CASE WHEN EXCLUDED.neighborhood_tag <> '' THEN EXCLUDED.neighborhood_tag ELSE profiles.neighborhood_tag END,
    updated_at = now()
RETURNING id, created_at, updated_at, username, neighborhood_tag`,
		p.Username, p.Email, p.AvatarURL, p.Provider, p.ProviderUID, p.NeighborhoodTag)
	err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.Username, &p.NeighborhoodTag)
	if err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

const profileScoreQuery = `
SELECT p.id, p.created_at, p.updated_at, p.username, p.email, p.avatar_url,
       p.provider, p.provider_uid, p.neighborhood_tag,
       COALESCE(SUM(a.points) FILTER (WHERE a.created_at >= now() - ` + scoreWindow + `), 0)
  FROM profiles p
  LEFT JOIN actions a ON a.profile_id = p.id
`

func (r *Repository) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, profileScoreQuery+` WHERE p.id = $1 GROUP BY p.id`, id)
	return scanProfileRow(row)
}

func (r *Repository) GetProfileByUsername(ctx context.Context, username string) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, profileScoreQuery+` WHERE p.username = $1 GROUP BY p.id`, username)
	return scanProfileRow(row)
}

func (r *Repository) ListProfiles(ctx context.Context, f domain.ProfileFilter) ([]domain.Profile, error) {
	q := profileScoreQuery
	args := []any{}
	if len(f.NeighborhoodTags) > 0 {
		args = append(args, pq.Array(f.NeighborhoodTags))
		q += ` WHERE p.neighborhood_tag = ANY($` + itoa(len(args)) + `)`
	}
	q += ` GROUP BY p.id ORDER BY p.created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += ` LIMIT $` + itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += ` OFFSET $` + itoa(len(args))
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Profile
	for rows.Next() {
		p, err := scanProfileRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) SetNeighborhood(ctx context.Context, profileID, tag string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET neighborhood_tag = $2, updated_at = now() WHERE id = $1`, profileID, tag)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) InsertAction(ctx context.Context, a domain.Action) (domain.Action, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO actions (profile_id, action_type, points, item_id, detail)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`,
		a.ProfileID, a.Type, a.Points, a.ItemID, a.Detail)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return domain.Action{}, err
	}
	return a, nil
}

func (r *Repository) ListActions(ctx context.Context, f domain.ActionFilter) ([]domain.Action, error) {
	q := `SELECT id, created_at, profile_id, action_type, points, item_id, detail FROM actions`
	args := []any{}
	if f.ProfileID != "" {
		args = append(args, f.ProfileID)
		q += ` WHERE profile_id = $` + itoa(len(args))
	}
	q += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += ` LIMIT $` + itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += ` OFFSET $` + itoa(len(args))
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Action
	for rows.Next() {
		var a domain.Action
		if err := rows.Scan(&a.ID, &a.CreatedAt, &a.ProfileID, &a.Type, &a.Points, &a.ItemID, &a.Detail); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanProfileRow(s scanner) (domain.Profile, error) {
	var p domain.Profile
	err := s.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.Username, &p.Email, &p.AvatarURL,
		&p.Provider, &p.ProviderUID, &p.NeighborhoodTag, &p.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}
