package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stewardhq/steward/internal/roster"
	"github.com/stewardhq/steward/internal/storage"
)

// PutRosterEntry upserts one projection row.
func (s *Store) PutRosterEntry(ctx context.Context, entry roster.Entry) error {
	skillsJSON, err := json.Marshal(entry.Skills)
	if err != nil {
		return fmt.Errorf("marshal roster skills: %w", err)
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT INTO roster_entries (context_id, subject_id, skills_json, eligible, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (context_id, subject_id) DO UPDATE SET
		     skills_json = excluded.skills_json,
		     eligible = excluded.eligible,
		     updated_at = excluded.updated_at`,
		entry.ContextID, entry.SubjectID, string(skillsJSON), boolToInt(entry.Eligible), toMillis(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save roster entry: %w", err)
	}
	return nil
}

// GetRosterEntry returns storage.ErrNotFound for an unknown (context, subject).
func (s *Store) GetRosterEntry(ctx context.Context, contextID, subjectID string) (roster.Entry, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT context_id, subject_id, skills_json, eligible, updated_at FROM roster_entries
		 WHERE context_id = ? AND subject_id = ?`,
		contextID, subjectID,
	)
	entry, err := scanRosterEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Entry{}, storage.ErrNotFound
	}
	if err != nil {
		return roster.Entry{}, fmt.Errorf("get roster entry: %w", err)
	}
	return entry, nil
}

// DeleteRosterEntry removes an entry; deleting a missing entry is a no-op.
func (s *Store) DeleteRosterEntry(ctx context.Context, contextID, subjectID string) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM roster_entries WHERE context_id = ? AND subject_id = ?`,
		contextID, subjectID,
	)
	if err != nil {
		return fmt.Errorf("delete roster entry: %w", err)
	}
	return nil
}

// ListRosterEntries returns a context's entries ordered by subject id.
func (s *Store) ListRosterEntries(ctx context.Context, contextID string) ([]roster.Entry, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT context_id, subject_id, skills_json, eligible, updated_at FROM roster_entries
		 WHERE context_id = ? ORDER BY subject_id`,
		contextID,
	)
	if err != nil {
		return nil, fmt.Errorf("list roster entries: %w", err)
	}
	defer rows.Close()

	var entries []roster.Entry
	for rows.Next() {
		entry, err := scanRosterEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// PutContextStats upserts one per-context summary row.
func (s *Store) PutContextStats(ctx context.Context, stats roster.ContextStats) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO context_stats (context_id, member_count, last_activity_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (context_id) DO UPDATE SET
		     member_count = excluded.member_count,
		     last_activity_at = excluded.last_activity_at,
		     updated_at = excluded.updated_at`,
		stats.ContextID, stats.MemberCount, toMillis(stats.LastActivityAt), toMillis(stats.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save context stats: %w", err)
	}
	return nil
}

// GetContextStats returns storage.ErrNotFound for an unknown context.
func (s *Store) GetContextStats(ctx context.Context, contextID string) (roster.ContextStats, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT context_id, member_count, last_activity_at, updated_at FROM context_stats
		 WHERE context_id = ?`,
		contextID,
	)
	var stats roster.ContextStats
	var lastActivityMillis, updatedAtMillis int64
	err := row.Scan(&stats.ContextID, &stats.MemberCount, &lastActivityMillis, &updatedAtMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.ContextStats{}, storage.ErrNotFound
	}
	if err != nil {
		return roster.ContextStats{}, fmt.Errorf("get context stats: %w", err)
	}
	stats.LastActivityAt = fromMillis(lastActivityMillis)
	stats.UpdatedAt = fromMillis(updatedAtMillis)
	return stats, nil
}

func scanRosterEntry(scan func(...any) error) (roster.Entry, error) {
	var entry roster.Entry
	var skillsJSON string
	var eligible int
	var updatedAtMillis int64
	if err := scan(&entry.ContextID, &entry.SubjectID, &skillsJSON, &eligible, &updatedAtMillis); err != nil {
		return roster.Entry{}, err
	}
	if err := json.Unmarshal([]byte(skillsJSON), &entry.Skills); err != nil {
		return roster.Entry{}, fmt.Errorf("unmarshal roster skills: %w", err)
	}
	if entry.Skills == nil {
		entry.Skills = make(map[string]int)
	}
	entry.Eligible = eligible != 0
	entry.UpdatedAt = fromMillis(updatedAtMillis)
	return entry, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
