package service

import (
	"context"
	"fmt"

	"github.com/stewardhq/steward/internal/roster"
	"github.com/stewardhq/steward/internal/storage"
)

// Queries is the read side of the eligible-member projection. Views are
// tier-enriched on read; tiers are never cached or written back. Readers may
// observe values slightly behind the XP aggregate while funnel updates are
// in flight.
type Queries struct {
	store storage.RosterStore
}

// NewQueries creates the roster read service.
func NewQueries(store storage.RosterStore) *Queries {
	return &Queries{store: store}
}

// Entry returns the tier-enriched view of one subject in a context.
func (q *Queries) Entry(ctx context.Context, contextID, subjectID string) (roster.View, error) {
	if err := validateEntryIDs(contextID, subjectID); err != nil {
		return roster.View{}, err
	}
	entry, err := q.store.GetRosterEntry(ctx, contextID, subjectID)
	if err != nil {
		return roster.View{}, err
	}
	return roster.ViewOf(entry), nil
}

// EntriesByContext returns tier-enriched views for every subject in a
// context, ordered by subject id.
func (q *Queries) EntriesByContext(ctx context.Context, contextID string) ([]roster.View, error) {
	entries, err := q.store.ListRosterEntries(ctx, contextID)
	if err != nil {
		return nil, fmt.Errorf("list roster entries: %w", err)
	}
	views := make([]roster.View, 0, len(entries))
	for _, entry := range entries {
		views = append(views, roster.ViewOf(entry))
	}
	return views, nil
}
