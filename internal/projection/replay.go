package projection

import (
	"context"
	"fmt"

	"github.com/stewardhq/steward/internal/event"
	"github.com/stewardhq/steward/internal/storage"
)

const replayPageSize = 200

// ReplayOptions configures event replay behavior.
type ReplayOptions struct {
	AfterSeq uint64
	UntilSeq uint64
	Filter   func(event.Event) bool
}

// Replay reapplies stored events through the funnel in sequence order and
// returns the last sequence visited. Appliers are idempotent, so replaying a
// prefix that was already applied incrementally reproduces the same
// projection state.
func Replay(ctx context.Context, eventStore storage.EventStore, funnel *Funnel, options ReplayOptions) (uint64, error) {
	if eventStore == nil {
		return 0, fmt.Errorf("event store is not configured")
	}
	if funnel == nil {
		return 0, fmt.Errorf("funnel is not configured")
	}

	lastSeq := options.AfterSeq
	for {
		events, err := eventStore.ListEvents(ctx, lastSeq, replayPageSize)
		if err != nil {
			return lastSeq, err
		}
		if len(events) == 0 {
			return lastSeq, nil
		}
		for _, evt := range events {
			if options.UntilSeq > 0 && evt.Seq > options.UntilSeq {
				return lastSeq, nil
			}
			lastSeq = evt.Seq
			if options.Filter != nil && !options.Filter(evt) {
				continue
			}
			if err := funnel.Apply(ctx, evt); err != nil {
				return lastSeq, err
			}
		}
	}
}

// ReplayContext replays events for a single context.
func ReplayContext(ctx context.Context, eventStore storage.EventStore, funnel *Funnel, contextID string) (uint64, error) {
	return Replay(ctx, eventStore, funnel, ReplayOptions{
		Filter: func(evt event.Event) bool {
			id, err := contextIDOf(evt)
			return err == nil && id == contextID
		},
	})
}
