package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/stewardhq/steward/internal/skill"
	"github.com/stewardhq/steward/internal/storage"
)

// GetSkillRecord returns the XP aggregate for one (subject, skill) pair.
// Returns storage.ErrNotFound when no record exists yet.
func (s *Store) GetSkillRecord(ctx context.Context, subjectID, skillID string) (skill.Record, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT subject_id, skill_id, xp, version, updated_at FROM skill_records
		 WHERE subject_id = ? AND skill_id = ?`,
		subjectID, skillID,
	)
	var record skill.Record
	var updatedAtMillis int64
	err := row.Scan(&record.SubjectID, &record.SkillID, &record.XP, &record.Version, &updatedAtMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return skill.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return skill.Record{}, fmt.Errorf("get skill record: %w", err)
	}
	record.UpdatedAt = fromMillis(updatedAtMillis)
	return record, nil
}

// PutSkillRecord writes the aggregate conditionally on the stored version.
// A mismatch, including inserting over an existing row, fails with
// storage.ErrVersionConflict.
func (s *Store) PutSkillRecord(ctx context.Context, record skill.Record, expectedVersion uint64) error {
	if expectedVersion == 0 {
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO skill_records (subject_id, skill_id, xp, version, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			record.SubjectID, record.SkillID, record.XP, int64(record.Version), toMillis(record.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrVersionConflict
			}
			return fmt.Errorf("insert skill record: %w", err)
		}
		return nil
	}

	result, err := s.q.ExecContext(ctx,
		`UPDATE skill_records SET xp = ?, version = ?, updated_at = ?
		 WHERE subject_id = ? AND skill_id = ? AND version = ?`,
		record.XP, int64(record.Version), toMillis(record.UpdatedAt),
		record.SubjectID, record.SkillID, int64(expectedVersion),
	)
	if err != nil {
		return fmt.Errorf("update skill record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update skill record: %w", err)
	}
	if affected == 0 {
		return storage.ErrVersionConflict
	}
	return nil
}

// AppendLedgerEntry appends one immutable audit record.
func (s *Store) AppendLedgerEntry(ctx context.Context, entry skill.LedgerEntry) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO skill_ledger (subject_id, skill_id, delta, reason, source_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.SubjectID, entry.SkillID, entry.Delta, entry.Reason, entry.SourceID, toMillis(entry.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// ListLedgerEntries returns all entries for a pair in append order.
func (s *Store) ListLedgerEntries(ctx context.Context, subjectID, skillID string) ([]skill.LedgerEntry, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT subject_id, skill_id, delta, reason, source_id, created_at FROM skill_ledger
		 WHERE subject_id = ? AND skill_id = ? ORDER BY id`,
		subjectID, skillID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []skill.LedgerEntry
	for rows.Next() {
		var entry skill.LedgerEntry
		var createdAtMillis int64
		if err := rows.Scan(&entry.SubjectID, &entry.SkillID, &entry.Delta, &entry.Reason, &entry.SourceID, &createdAtMillis); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entry.Timestamp = fromMillis(createdAtMillis)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// isUniqueViolation reports whether err is a primary-key or unique
// constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint") || strings.Contains(value, "constraint failed")
}
