package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stewardhq/steward/internal/storage"
)

// GetWatermark returns storage.ErrNotFound when no stamp exists for key.
func (s *Store) GetWatermark(ctx context.Context, key string) (storage.ProjectionWatermark, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT key, applied_seq, updated_at FROM projection_watermarks WHERE key = ?`,
		key,
	)
	var wm storage.ProjectionWatermark
	var updatedAtMillis int64
	err := row.Scan(&wm.Key, &wm.AppliedSeq, &updatedAtMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ProjectionWatermark{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ProjectionWatermark{}, fmt.Errorf("get projection watermark: %w", err)
	}
	wm.UpdatedAt = fromMillis(updatedAtMillis)
	return wm, nil
}

// SaveWatermark upserts the stamp for one projection key.
func (s *Store) SaveWatermark(ctx context.Context, wm storage.ProjectionWatermark) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO projection_watermarks (key, applied_seq, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
		     applied_seq = excluded.applied_seq,
		     updated_at = excluded.updated_at`,
		wm.Key, int64(wm.AppliedSeq), toMillis(wm.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save projection watermark: %w", err)
	}
	return nil
}

// ListWatermarks returns all stamps ordered by key.
func (s *Store) ListWatermarks(ctx context.Context) ([]storage.ProjectionWatermark, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT key, applied_seq, updated_at FROM projection_watermarks ORDER BY key`,
	)
	if err != nil {
		return nil, fmt.Errorf("list projection watermarks: %w", err)
	}
	defer rows.Close()

	var watermarks []storage.ProjectionWatermark
	for rows.Next() {
		var wm storage.ProjectionWatermark
		var updatedAtMillis int64
		if err := rows.Scan(&wm.Key, &wm.AppliedSeq, &updatedAtMillis); err != nil {
			return nil, fmt.Errorf("scan projection watermark: %w", err)
		}
		wm.UpdatedAt = fromMillis(updatedAtMillis)
		watermarks = append(watermarks, wm)
	}
	return watermarks, rows.Err()
}
