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

// StatsApplier maintains the per-context summary read model. Counts are
// re-derived from the roster projection on every apply rather than
// incremented, which keeps re-application of the same event idempotent.
type StatsApplier struct {
	roster storage.RosterStore
	stats  storage.StatsStore
	clock  func() time.Time
}

// NewStatsApplier creates a stats applier.
func NewStatsApplier(rosterStore storage.RosterStore, statsStore storage.StatsStore) *StatsApplier {
	return &StatsApplier{roster: rosterStore, stats: statsStore, clock: time.Now}
}

// WithClock overrides the clock for tests.
func (a *StatsApplier) WithClock(clock func() time.Time) *StatsApplier {
	if clock != nil {
		a.clock = clock
	}
	return a
}

// SyncContext re-derives the summary row for one context. activityAt stamps
// the last observed activity; a zero time keeps the previous stamp.
func (a *StatsApplier) SyncContext(ctx context.Context, contextID string, activityAt time.Time) error {
	if err := validateContextID(contextID); err != nil {
		return err
	}

	entries, err := a.roster.ListRosterEntries(ctx, contextID)
	if err != nil {
		return fmt.Errorf("list roster entries: %w", err)
	}

	stats, err := a.stats.GetContextStats(ctx, contextID)
	if errors.Is(err, storage.ErrNotFound) {
		stats = roster.ContextStats{ContextID: contextID}
	} else if err != nil {
		return fmt.Errorf("read context stats: %w", err)
	}

	stats.MemberCount = len(entries)
	if !activityAt.IsZero() && activityAt.After(stats.LastActivityAt) {
		stats.LastActivityAt = activityAt.UTC()
	}
	stats.UpdatedAt = a.clock().UTC()
	return a.stats.PutContextStats(ctx, stats)
}

func validateContextID(contextID string) error {
	if strings.TrimSpace(contextID) == "" {
		return perrors.New(perrors.CodeRosterEmptyContextID, "context id is required")
	}
	return nil
}
