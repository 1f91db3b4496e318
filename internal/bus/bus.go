// Package bus provides an in-process publish/subscribe engine.
//
// A Bus is an explicit instance owned by one scope and injected where needed,
// so independent scopes cannot leak subscriptions into each other. Delivery is
// best-effort and fire-and-forget: the bus never persists events and never
// fails a publisher because of a subscriber.
package bus

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stewardhq/steward/internal/event"
)

// Handler consumes one published event. Handlers run synchronously on the
// publisher's goroutine; a handler that needs asynchronous work detaches its
// own goroutine and the publisher does not wait for it.
type Handler func(ctx context.Context, evt event.Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus dispatches events to subscribers in registration order.
type Bus struct {
	mu     sync.Mutex
	subs   map[event.Type][]subscription
	nextID uint64

	counts    sync.Map // event.Type → *atomic.Uint64
	published metric.Int64Counter
	logf      func(format string, args ...any)
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogf overrides the logger used for handler failures.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(b *Bus) {
		if logf != nil {
			b.logf = logf
		}
	}
}

// WithMeter attaches an OpenTelemetry meter for publish counters. Instrument
// creation failures are logged and the bus falls back to in-process counters
// only; metrics can never break a publish.
func WithMeter(meter metric.Meter) Option {
	return func(b *Bus) {
		counter, err := meter.Int64Counter("steward.bus.published",
			metric.WithDescription("Events published per event type."),
		)
		if err != nil {
			b.logf("bus: create publish counter: %v", err)
			return
		}
		b.published = counter
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs: make(map[event.Type][]subscription),
		logf: log.Printf,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe registers handler for events of type t and returns an unsubscribe
// function. Unsubscribing during a dispatch does not affect handlers already
// captured for that dispatch pass.
func (b *Bus) Subscribe(t event.Type, handler Handler) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[t] = append(b.subs[t], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			current := b.subs[t]
			for i, sub := range current {
				if sub.id == id {
					replacement := make([]subscription, 0, len(current)-1)
					replacement = append(replacement, current[:i]...)
					replacement = append(replacement, current[i+1:]...)
					b.subs[t] = replacement
					return
				}
			}
		})
	}
}

// Publish dispatches evt to every subscriber of its type, in registration
// order. A panicking handler is recovered and logged; remaining handlers still
// run and the publisher always returns normally. Publishing to a type with no
// subscribers only counts the publish.
func (b *Bus) Publish(ctx context.Context, evt event.Event) {
	b.count(ctx, evt.Type)

	b.mu.Lock()
	snapshot := make([]subscription, len(b.subs[evt.Type]))
	copy(snapshot, b.subs[evt.Type])
	b.mu.Unlock()

	for _, sub := range snapshot {
		b.dispatch(ctx, sub.handler, evt)
	}
}

// PublishedCount returns the number of publishes observed for t.
func (b *Bus) PublishedCount(t event.Type) uint64 {
	value, ok := b.counts.Load(t)
	if !ok {
		return 0
	}
	return value.(*atomic.Uint64).Load()
}

func (b *Bus) dispatch(ctx context.Context, handler Handler, evt event.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logf("bus: handler for %s panicked: %v", evt.Type, r)
		}
	}()
	handler(ctx, evt)
}

func (b *Bus) count(ctx context.Context, t event.Type) {
	defer func() {
		// Counting is an observability side effect and must never
		// reach the publisher.
		if r := recover(); r != nil {
			b.logf("bus: publish counter for %s panicked: %v", t, r)
		}
	}()

	value, _ := b.counts.LoadOrStore(t, new(atomic.Uint64))
	value.(*atomic.Uint64).Add(1)

	if b.published != nil {
		b.published.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event.type", string(t)),
		))
	}
}
