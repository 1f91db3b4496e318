// Package service maintains and queries the eligible-member projection.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	perrors "github.com/stewardhq/steward/internal/platform/errors"
	"github.com/stewardhq/steward/internal/roster"
	"github.com/stewardhq/steward/internal/storage"
)

// Applier applies projection updates to the roster store. Every operation is
// an idempotent upsert or delete, so replaying the same event sequence
// reproduces the same projection state.
type Applier struct {
	store storage.RosterStore
	clock func() time.Time
}

// NewApplier creates a roster applier.
func NewApplier(store storage.RosterStore) *Applier {
	return &Applier{store: store, clock: time.Now}
}

// WithClock overrides the clock for tests.
func (a *Applier) WithClock(clock func() time.Time) *Applier {
	if clock != nil {
		a.clock = clock
	}
	return a
}

// InitEntry creates the projection row for a subject joining a context. An
// existing row is left untouched so re-applying the same join is a no-op.
func (a *Applier) InitEntry(ctx context.Context, contextID, subjectID string) error {
	if err := validateEntryIDs(contextID, subjectID); err != nil {
		return err
	}

	_, err := a.store.GetRosterEntry(ctx, contextID, subjectID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("read roster entry: %w", err)
	}

	return a.store.PutRosterEntry(ctx, roster.Entry{
		ContextID: contextID,
		SubjectID: subjectID,
		Skills:    map[string]int{},
		Eligible:  true,
		UpdatedAt: a.clock().UTC(),
	})
}

// RemoveEntry deletes the projection row for a subject leaving a context.
// Removing an absent row is a no-op.
func (a *Applier) RemoveEntry(ctx context.Context, contextID, subjectID string) error {
	if err := validateEntryIDs(contextID, subjectID); err != nil {
		return err
	}
	return a.store.DeleteRosterEntry(ctx, contextID, subjectID)
}

// ApplySkillXP overwrites the projected XP for one skill. It never touches
// the eligibility flag. XP events for subjects no longer on the roster are
// skipped; the projection only tracks current members.
func (a *Applier) ApplySkillXP(ctx context.Context, contextID, subjectID, skillID string, newXP int) error {
	if err := validateEntryIDs(contextID, subjectID); err != nil {
		return err
	}
	if strings.TrimSpace(skillID) == "" {
		return perrors.New(perrors.CodeSkillEmptySkillID, "skill id is required")
	}

	entry, err := a.store.GetRosterEntry(ctx, contextID, subjectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read roster entry: %w", err)
	}

	if entry.Skills == nil {
		entry.Skills = map[string]int{}
	}
	entry.Skills[skillID] = newXP
	entry.UpdatedAt = a.clock().UTC()
	return a.store.PutRosterEntry(ctx, entry)
}

// SetEligible flips the availability flag for one subject. The row must
// exist; eligibility has no meaning for subjects outside the context.
func (a *Applier) SetEligible(ctx context.Context, contextID, subjectID string, eligible bool) error {
	if err := validateEntryIDs(contextID, subjectID); err != nil {
		return err
	}

	entry, err := a.store.GetRosterEntry(ctx, contextID, subjectID)
	if errors.Is(err, storage.ErrNotFound) {
		return perrors.WithMetadata(perrors.CodeRosterEntryMissing, "roster entry not found", map[string]string{
			"context_id": contextID,
			"subject_id": subjectID,
		})
	}
	if err != nil {
		return fmt.Errorf("read roster entry: %w", err)
	}

	if entry.Eligible == eligible {
		return nil
	}
	entry.Eligible = eligible
	entry.UpdatedAt = a.clock().UTC()
	return a.store.PutRosterEntry(ctx, entry)
}

func validateEntryIDs(contextID, subjectID string) error {
	if strings.TrimSpace(contextID) == "" {
		return perrors.New(perrors.CodeRosterEmptyContextID, "context id is required")
	}
	if strings.TrimSpace(subjectID) == "" {
		return perrors.New(perrors.CodeRosterEmptySubjectID, "subject id is required")
	}
	return nil
}
