package postgres

import (
	"context"

	"phillyrising/domain"
)

func (r *Repository) RecordRevision(ctx context.Context, rev domain.Revision) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO revisions (kind, entity_id, op, actor, snapshot)
VALUES ($1, $2, $3, $4, $5)`,
		rev.Kind, rev.EntityID, rev.Op, rev.Actor, []byte(rev.Snapshot))
	return err
}

func (r *Repository) ListRevisions(ctx context.Context, kind, entityID string, limit int) ([]domain.Revision, error) {
	q := `SELECT id, created_at, kind, entity_id, op, actor, snapshot FROM revisions WHERE kind = $1 AND entity_id = $2 ORDER BY created_at DESC`
	args := []any{kind, entityID}
	if limit > 0 {
		args = append(args, limit)
		q += ` LIMIT $3`
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Revision
	for rows.Next() {
		var rev domain.Revision
		var snapshot []byte
		if err := rows.Scan(&rev.ID, &rev.CreatedAt, &rev.Kind, &rev.EntityID, &rev.Op, &rev.Actor, &snapshot); err != nil {
			return nil, err
		}
		rev.Snapshot = snapshot
		out = append(out, rev)
	}
	return out, rows.Err()
}
