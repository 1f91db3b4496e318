package projection

import (
	"context"
	"log"

	"github.com/stewardhq/steward/internal/bus"
	"github.com/stewardhq/steward/internal/event"
	"github.com/stewardhq/steward/internal/storage"
)

// Recorder appends every published event to the journal so the replay
// utility has a stored sequence to rebuild projections from. Recording is
// best-effort: an append failure is logged and never reaches the publisher.
type Recorder struct {
	store storage.EventStore
	logf  func(format string, args ...any)
}

// NewRecorder creates a journal recorder.
func NewRecorder(store storage.EventStore) *Recorder {
	return &Recorder{store: store, logf: log.Printf}
}

// WithLogf overrides the logger for append failures.
func (r *Recorder) WithLogf(logf func(format string, args ...any)) *Recorder {
	if logf != nil {
		r.logf = logf
	}
	return r
}

// Attach subscribes the recorder to every event type on b and returns a
// detach function.
func (r *Recorder) Attach(b *bus.Bus) (detach func()) {
	var unsubscribes []func()
	for _, t := range event.Types() {
		unsubscribes = append(unsubscribes, b.Subscribe(t, func(ctx context.Context, evt event.Event) {
			if _, err := r.store.AppendEvent(ctx, evt); err != nil {
				r.logf("projection: journal %s: %v", evt.Type, err)
			}
		}))
	}
	return func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}
}
