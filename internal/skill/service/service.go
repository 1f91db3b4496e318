// Package service implements the ledger-guarded XP command operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/stewardhq/steward/internal/bus"
	"github.com/stewardhq/steward/internal/event"
	perrors "github.com/stewardhq/steward/internal/platform/errors"
	"github.com/stewardhq/steward/internal/skill"
	"github.com/stewardhq/steward/internal/storage"
)

const conflictRetryMaxElapsed = 2 * time.Second

// Service owns add/deduct mutations of the XP aggregate. Every mutation
// appends a ledger entry before the aggregate write and publishes the
// resulting absolute XP.
type Service struct {
	store storage.SkillStore
	bus   *bus.Bus
	clock func() time.Time
}

// New creates the XP service. The bus may be nil in replay-only tooling.
func New(store storage.SkillStore, b *bus.Bus) *Service {
	return &Service{store: store, bus: b, clock: time.Now}
}

// WithClock overrides the clock for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// ChangeInput describes one requested XP change. Delta is always positive;
// the operation decides the sign.
type ChangeInput struct {
	SubjectID string
	ContextID string
	SkillID   string
	Delta     int
	Reason    string
	// SourceID optionally links the change to its originating record.
	SourceID string
}

// AddXP credits XP to one (subject, skill) pair.
func (s *Service) AddXP(ctx context.Context, input ChangeInput) (skill.Result, error) {
	return s.apply(ctx, input, +1)
}

// DeductXP debits XP from one (subject, skill) pair.
func (s *Service) DeductXP(ctx context.Context, input ChangeInput) (skill.Result, error) {
	return s.apply(ctx, input, -1)
}

func (s *Service) apply(ctx context.Context, input ChangeInput, sign int) (skill.Result, error) {
	if err := validateChangeInput(input); err != nil {
		return skill.Result{}, err
	}

	var result skill.Result
	operation := func() error {
		err := s.store.Transact(ctx, func(tx storage.SkillTx) error {
			current, err := tx.GetSkillRecord(ctx, input.SubjectID, input.SkillID)
			if errors.Is(err, storage.ErrNotFound) {
				current = skill.Record{SubjectID: input.SubjectID, SkillID: input.SkillID}
			} else if err != nil {
				return fmt.Errorf("read skill record: %w", err)
			}

			target := skill.ClampXP(current.XP + sign*input.Delta)
			applied := target - current.XP
			now := s.clock().UTC()

			// The ledger entry is appended before the aggregate write;
			// on a crash between the two the ledger is the
			// reconciliation source of truth.
			entry := skill.LedgerEntry{
				SubjectID: input.SubjectID,
				SkillID:   input.SkillID,
				Delta:     applied,
				Reason:    input.Reason,
				SourceID:  input.SourceID,
				Timestamp: now,
			}
			if err := tx.AppendLedgerEntry(ctx, entry); err != nil {
				return fmt.Errorf("append ledger entry: %w", err)
			}

			next := skill.Record{
				SubjectID: input.SubjectID,
				SkillID:   input.SkillID,
				XP:        target,
				Version:   current.Version + 1,
				UpdatedAt: now,
			}
			if err := tx.PutSkillRecord(ctx, next, current.Version); err != nil {
				return err
			}

			result = skill.Result{NewXP: target, AppliedDelta: applied}
			return nil
		})
		if err == nil {
			return nil
		}
		// Only a lost conditional write is worth retrying; everything
		// else surfaces to the caller unchanged.
		if errors.Is(err, storage.ErrVersionConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, backoff.WithContext(newConflictBackoff(), ctx)); err != nil {
		return skill.Result{}, err
	}

	s.publish(ctx, input, result, sign)
	return result, nil
}

func (s *Service) publish(ctx context.Context, input ChangeInput, result skill.Result, sign int) {
	if s.bus == nil {
		return
	}
	if sign > 0 {
		s.bus.Publish(ctx, event.New(event.SkillXPAddedPayload{
			SubjectID: input.SubjectID,
			ContextID: input.ContextID,
			SkillID:   input.SkillID,
			XPDelta:   result.AppliedDelta,
			NewXP:     result.NewXP,
			Reason:    input.Reason,
		}))
		return
	}
	s.bus.Publish(ctx, event.New(event.SkillXPDeductedPayload{
		SubjectID: input.SubjectID,
		ContextID: input.ContextID,
		SkillID:   input.SkillID,
		XPDelta:   result.AppliedDelta,
		NewXP:     result.NewXP,
		Reason:    input.Reason,
	}))
}

// Record returns the current aggregate for one pair. An absent record reads
// as zero XP, version zero.
func (s *Service) Record(ctx context.Context, subjectID, skillID string) (skill.Record, error) {
	record, err := s.store.GetSkillRecord(ctx, subjectID, skillID)
	if errors.Is(err, storage.ErrNotFound) {
		return skill.Record{SubjectID: subjectID, SkillID: skillID}, nil
	}
	if err != nil {
		return skill.Record{}, fmt.Errorf("read skill record: %w", err)
	}
	return record, nil
}

// Ledger returns the pair's audit trail in timestamp order.
func (s *Service) Ledger(ctx context.Context, subjectID, skillID string) ([]skill.LedgerEntry, error) {
	return s.store.ListLedgerEntries(ctx, subjectID, skillID)
}

func validateChangeInput(input ChangeInput) error {
	if strings.TrimSpace(input.SubjectID) == "" {
		return perrors.New(perrors.CodeSkillEmptySubjectID, "subject id is required")
	}
	if strings.TrimSpace(input.SkillID) == "" {
		return perrors.New(perrors.CodeSkillEmptySkillID, "skill id is required")
	}
	if strings.TrimSpace(input.ContextID) == "" {
		return perrors.New(perrors.CodeSkillEmptyContextID, "context id is required")
	}
	if input.Delta <= 0 {
		return perrors.New(perrors.CodeSkillDeltaNotPositive, "xp delta must be positive")
	}
	return nil
}

// newConflictBackoff returns a fresh retry policy for version conflicts.
// BackOff implementations are stateful; always return a new instance.
func newConflictBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Millisecond
	bo.MaxElapsedTime = conflictRetryMaxElapsed
	return bo
}
