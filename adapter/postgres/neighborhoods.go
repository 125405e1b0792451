package postgres

import (
	"context"
	"database/sql"
	"errors"

	"phillyrising/domain"
)

func (r *Repository) AddNeighborhood(ctx context.Context, n domain.Neighborhood) (domain.Neighborhood, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO neighborhoods (tag, name, description, lat, lng)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tag) DO NOTHING
RETURNING id, created_at, updated_at`,
		n.Tag, n.Name, n.Description, n.Lat, n.Lng)
	if err := row.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Neighborhood{}, domain.ErrAlreadyExists
		}
		return domain.Neighborhood{}, err
	}
	return n, nil
}

func (r *Repository) GetNeighborhood(ctx context.Context, tag string) (domain.Neighborhood, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, created_at, updated_at, tag, name, description, lat, lng
  FROM neighborhoods WHERE tag = $1`, tag)
	var n domain.Neighborhood
	err := row.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt, &n.Tag, &n.Name, &n.Description, &n.Lat, &n.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Neighborhood{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Neighborhood{}, err
	}
	return n, nil
}

// ListNeighborhoods returns every neighborhood ordered by tag, each with
// its members' trailing 30-day point total.
func (r *Repository) ListNeighborhoods(ctx context.Context) ([]domain.Neighborhood, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT n.id, n.created_at, n.updated_at, n.tag, n.name, n.description, n.lat, n.lng,
       COALESCE(SUM(a.points) FILTER (WHERE a.created_at >= now() - `+scoreWindow+`), 0)
  FROM neighborhoods n
  LEFT JOIN profiles p ON p.neighborhood_tag = n.tag
  LEFT JOIN actions a ON a.profile_id = p.id
 GROUP BY n.id
 ORDER BY n.tag`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Neighborhood
	for rows.Next() {
		var n domain.Neighborhood
		if err := rows.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt, &n.Tag, &n.Name, &n.Description,
			&n.Lat, &n.Lng, &n.Points); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
