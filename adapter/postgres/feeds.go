package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"phillyrising/domain"
)

func (r *Repository) AddFeed(ctx context.Context, f domain.Feed) (domain.Feed, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO feeds (name, url, category, neighborhood_tag)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO NOTHING
RETURNING id, created_at, updated_at`,
		f.Name, f.URL, f.Category, f.NeighborhoodTag)
	if err := row.Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Feed{}, domain.ErrAlreadyExists
		}
		return domain.Feed{}, err
	}
	return f, nil
}

func (r *Repository) DeleteFeed(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feeds WHERE name = $1`, name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const feedColumns = `id, created_at, updated_at, name, url, category, neighborhood_tag, etag, last_modified, failures, last_polled_at, last_success_at`

func (r *Repository) ListFeeds(ctx context.Context, limit int) ([]domain.Feed, error) {
	q := `SELECT ` + feedColumns + ` FROM feeds ORDER BY created_at DESC`
	if limit > 0 {
		q += ` LIMIT $1`
		return scanFeeds(r.db.QueryContext(ctx, q, limit))
	}
	return scanFeeds(r.db.QueryContext(ctx, q))
}

func (r *Repository) GetFeedByName(ctx context.Context, name string) (domain.Feed, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE name = $1`, name)
	f, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Feed{}, domain.ErrNotFound
	}
	return f, err
}

// GetStaleFeeds selects feeds due for polling. A feed with N consecutive
// failures is only due after interval * 2^min(N, 6) since its last poll.
func (r *Repository) GetStaleFeeds(ctx context.Context, interval time.Duration, limit int) ([]domain.Feed, error) {
	return scanFeeds(r.db.QueryContext(ctx, `
SELECT `+feedColumns+` FROM feeds
WHERE last_polled_at IS NULL
   OR last_polled_at + make_interval(secs => $1 * power(2, LEAST(failures, 6))) <= now()
ORDER BY last_polled_at ASC NULLS FIRST, created_at ASC
LIMIT $2`, interval.Seconds(), limit))
}

func (r *Repository) MarkFeedPolled(ctx context.Context, feedID string, out domain.PollOutcome) error {
	var err error
	switch {
	case !out.Success:
		_, err = r.db.ExecContext(ctx, `UPDATE feeds SET failures = failures + 1, last_polled_at = now(), updated_at = now() WHERE id = $1`, feedID)
	case out.NotModified:
		_, err = r.db.ExecContext(ctx, `UPDATE feeds SET failures = 0, last_polled_at = now(), last_success_at = now(), updated_at = now() WHERE id = $1`, feedID)
	default:
		_, err = r.db.ExecContext(ctx, `UPDATE feeds SET failures = 0, last_polled_at = now(), last_success_at = now(), etag = $2, last_modified = $3, updated_at = now() WHERE id = $1`, feedID, out.ETag, out.LastModified)
	}
	return err
}

func (r *Repository) UpsertItem(ctx context.Context, it domain.Item) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO items (feed_id, guid, title, link, summary, category, neighborhood_tag, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (feed_id, guid) DO UPDATE SET
    title = EXCLUDED.title,
    link = EXCLUDED.link,
    summary = EXCLUDED.summary,
    published_at = EXCLUDED.published_at,
    updated_at = now()`,
		it.FeedID, it.GUID, it.Title, it.Link, it.Summary, it.Category, it.NeighborhoodTag, it.PublishedAt)
	return err
}

func (r *Repository) ListItems(ctx context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	q := `SELECT id, created_at, updated_at, feed_id, guid, title, link, summary, category, neighborhood_tag, published_at FROM items WHERE 1=1`
	args := []any{}
	if f.FeedID != "" {
		args = append(args, f.FeedID)
		q += ` AND feed_id = $` + itoa(len(args))
	}
	if f.NeighborhoodTag != "" {
		args = append(args, f.NeighborhoodTag)
		q += ` AND neighborhood_tag = $` + itoa(len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		q += ` AND category = $` + itoa(len(args))
	}
	q += ` ORDER BY published_at DESC, created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += ` LIMIT $` + itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += ` OFFSET $` + itoa(len(args))
	}
	return scanItems(r.db.QueryContext(ctx, q, args...))
}

func scanFeeds(rows *sql.Rows, err error) ([]domain.Feed, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Feed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanFeed(s scanner) (domain.Feed, error) {
	var f domain.Feed
	var polled, succeeded sql.NullTime
	err := s.Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt, &f.Name, &f.URL, &f.Category, &f.NeighborhoodTag,
		&f.ETag, &f.LastModified, &f.Failures, &polled, &succeeded)
	if err != nil {
		return domain.Feed{}, err
	}
	f.LastPolledAt = polled.Time
	f.LastSuccessAt = succeeded.Time
	return f, nil
}

func scanItems(rows *sql.Rows, err error) ([]domain.Item, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt, &it.FeedID, &it.GUID, &it.Title,
			&it.Link, &it.Summary, &it.Category, &it.NeighborhoodTag, &it.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
