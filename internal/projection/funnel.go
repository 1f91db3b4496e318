// Package projection routes domain events into read-model appliers.
//
// The funnel is purely a routing and bookkeeping layer: it composes
// projection appliers and stamps a monotonic read-model version per
// projection after each apply. Business validity is decided by the aggregate
// and the saga, never here.
package projection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stewardhq/steward/internal/bus"
	"github.com/stewardhq/steward/internal/event"
	rostersvc "github.com/stewardhq/steward/internal/roster/service"
	"github.com/stewardhq/steward/internal/storage"
)

// Projection version keys stamped after each apply.
const (
	KeyRoster       = "roster"
	KeyContextStats = "context_stats"
)

// handlerEntry declares the apply function and version key for one projection
// interested in an event type.
type handlerEntry struct {
	versionKey string
	apply      func(f *Funnel, ctx context.Context, evt event.Event) error
}

// handlers maps each routed event type to its projection appliers, in apply
// order. The stats projection derives from the roster projection and is
// listed after it.
var handlers = map[event.Type][]handlerEntry{
	event.TypeMemberJoined: {
		{KeyRoster, (*Funnel).applyMemberJoined},
		{KeyContextStats, (*Funnel).applyContextActivity},
	},
	event.TypeMemberLeft: {
		{KeyRoster, (*Funnel).applyMemberLeft},
		{KeyContextStats, (*Funnel).applyContextActivity},
	},
	event.TypeSkillXPAdded: {
		{KeyRoster, (*Funnel).applySkillXPAdded},
		{KeyContextStats, (*Funnel).applyContextActivity},
	},
	event.TypeSkillXPDeducted: {
		{KeyRoster, (*Funnel).applySkillXPDeducted},
		{KeyContextStats, (*Funnel).applyContextActivity},
	},
}

// Funnel wires events from one or more buses into projection appliers.
type Funnel struct {
	roster     *rostersvc.Applier
	stats      *rostersvc.StatsApplier
	watermarks storage.WatermarkStore
	clock      func() time.Time
	logf       func(format string, args ...any)
}

// Option configures a Funnel.
type Option func(*Funnel)

// WithLogf overrides the logger used for detached apply failures.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(f *Funnel) {
		if logf != nil {
			f.logf = logf
		}
	}
}

// WithClock overrides the clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(f *Funnel) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// NewFunnel creates a funnel over the given appliers and watermark store.
func NewFunnel(roster *rostersvc.Applier, stats *rostersvc.StatsApplier, watermarks storage.WatermarkStore, opts ...Option) *Funnel {
	f := &Funnel{
		roster:     roster,
		stats:      stats,
		watermarks: watermarks,
		clock:      time.Now,
		logf:       log.Printf,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Attach subscribes the funnel to every routed event type on b and returns a
// detach function. A funnel may be attached to several buses at once.
func (f *Funnel) Attach(b *bus.Bus) (detach func()) {
	var unsubscribes []func()
	for t := range handlers {
		unsubscribes = append(unsubscribes, b.Subscribe(t, func(ctx context.Context, evt event.Event) {
			if err := f.Apply(ctx, evt); err != nil {
				f.logf("projection: apply %s: %v", evt.Type, err)
			}
		}))
	}
	return func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}
}

// Apply routes one event through every registered projection applier and
// stamps the projection's watermark after each successful apply. Events with
// no registered projection are ignored.
func (f *Funnel) Apply(ctx context.Context, evt event.Event) error {
	for _, entry := range handlers[evt.Type] {
		if err := entry.apply(f, ctx, evt); err != nil {
			return fmt.Errorf("apply %s to %s: %w", evt.Type, entry.versionKey, err)
		}
		if err := f.stamp(ctx, entry.versionKey, evt.Seq); err != nil {
			return fmt.Errorf("stamp %s watermark: %w", entry.versionKey, err)
		}
	}
	return nil
}

// stamp advances the projection watermark. Stamps never regress: a journaled
// event at or below the applied sequence leaves the stored stamp untouched.
func (f *Funnel) stamp(ctx context.Context, key string, seq uint64) error {
	wm, err := f.watermarks.GetWatermark(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		wm = storage.ProjectionWatermark{Key: key}
	} else if err != nil {
		return err
	}

	next := wm.AppliedSeq + 1
	if seq > 0 {
		if seq <= wm.AppliedSeq {
			return nil
		}
		next = seq
	}

	wm.AppliedSeq = next
	wm.UpdatedAt = f.clock().UTC()
	return f.watermarks.SaveWatermark(ctx, wm)
}

func (f *Funnel) applyMemberJoined(ctx context.Context, evt event.Event) error {
	payload, err := payloadOf[event.MemberJoinedPayload](evt)
	if err != nil {
		return err
	}
	return f.roster.InitEntry(ctx, payload.ContextID, payload.SubjectID)
}

func (f *Funnel) applyMemberLeft(ctx context.Context, evt event.Event) error {
	payload, err := payloadOf[event.MemberLeftPayload](evt)
	if err != nil {
		return err
	}
	return f.roster.RemoveEntry(ctx, payload.ContextID, payload.SubjectID)
}

func (f *Funnel) applySkillXPAdded(ctx context.Context, evt event.Event) error {
	payload, err := payloadOf[event.SkillXPAddedPayload](evt)
	if err != nil {
		return err
	}
	return f.roster.ApplySkillXP(ctx, payload.ContextID, payload.SubjectID, payload.SkillID, payload.NewXP)
}

func (f *Funnel) applySkillXPDeducted(ctx context.Context, evt event.Event) error {
	payload, err := payloadOf[event.SkillXPDeductedPayload](evt)
	if err != nil {
		return err
	}
	return f.roster.ApplySkillXP(ctx, payload.ContextID, payload.SubjectID, payload.SkillID, payload.NewXP)
}

func (f *Funnel) applyContextActivity(ctx context.Context, evt event.Event) error {
	contextID, err := contextIDOf(evt)
	if err != nil {
		return err
	}
	return f.stats.SyncContext(ctx, contextID, evt.Timestamp)
}

func contextIDOf(evt event.Event) (string, error) {
	switch payload := evt.Payload.(type) {
	case event.MemberJoinedPayload:
		return payload.ContextID, nil
	case event.MemberLeftPayload:
		return payload.ContextID, nil
	case event.SkillXPAddedPayload:
		return payload.ContextID, nil
	case event.SkillXPDeductedPayload:
		return payload.ContextID, nil
	default:
		return "", fmt.Errorf("no context id on %s payload", evt.Type)
	}
}

func payloadOf[T event.Payload](evt event.Event) (T, error) {
	payload, ok := evt.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected payload %T for %s", evt.Payload, evt.Type)
	}
	return payload, nil
}
