// Package service routes schedule outcome events into notification records.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stewardhq/steward/internal/bus"
	"github.com/stewardhq/steward/internal/event"
	"github.com/stewardhq/steward/internal/notify"
	"github.com/stewardhq/steward/internal/platform/id"
	"github.com/stewardhq/steward/internal/storage"
)

// Router records per-recipient notifications for schedule outcomes. Routing
// is best-effort: a failure is logged and never reaches the publisher.
// Delivery transport is out of scope; downstream workers read the store.
type Router struct {
	notifications storage.NotificationStore
	proposals     storage.ProposalStore
	clock         func() time.Time
	newID         func() (string, error)
	logf          func(format string, args ...any)
}

// NewRouter creates the notification router. Proposals are read to resolve
// the proposing party as a rejection recipient.
func NewRouter(notifications storage.NotificationStore, proposals storage.ProposalStore) *Router {
	return &Router{
		notifications: notifications,
		proposals:     proposals,
		clock:         time.Now,
		newID:         id.NewID,
		logf:          log.Printf,
	}
}

// WithClock overrides the clock for tests.
func (r *Router) WithClock(clock func() time.Time) *Router {
	if clock != nil {
		r.clock = clock
	}
	return r
}

// WithLogf overrides the logger for routing failures.
func (r *Router) WithLogf(logf func(format string, args ...any)) *Router {
	if logf != nil {
		r.logf = logf
	}
	return r
}

// Attach subscribes the router to schedule outcome events on b and returns a
// detach function.
func (r *Router) Attach(b *bus.Bus) (detach func()) {
	unsubscribeConfirmed := b.Subscribe(event.TypeScheduleConfirmed, func(ctx context.Context, evt event.Event) {
		if err := r.routeConfirmed(ctx, evt); err != nil {
			r.logf("notify: route %s: %v", evt.Type, err)
		}
	})
	unsubscribeRejected := b.Subscribe(event.TypeScheduleAssignRejected, func(ctx context.Context, evt event.Event) {
		if err := r.routeRejected(ctx, evt); err != nil {
			r.logf("notify: route %s: %v", evt.Type, err)
		}
	})
	return func() {
		unsubscribeConfirmed()
		unsubscribeRejected()
	}
}

// routeConfirmed notifies every assigned subject plus the proposing party.
func (r *Router) routeConfirmed(ctx context.Context, evt event.Event) error {
	payload, ok := evt.Payload.(event.ScheduleConfirmedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", evt.Payload, evt.Type)
	}

	recipients := append([]string(nil), payload.AssignedSubjects...)
	if proposedBy := r.proposedBy(ctx, payload.ProposalID); proposedBy != "" {
		recipients = append(recipients, proposedBy)
	}
	return r.record(ctx, evt, recipients, notify.TopicScheduleConfirmed, payload.ProposalID)
}

// routeRejected notifies the proposing party only; no assignment happened.
func (r *Router) routeRejected(ctx context.Context, evt event.Event) error {
	payload, ok := evt.Payload.(event.ScheduleAssignRejectedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", evt.Payload, evt.Type)
	}

	proposedBy := r.proposedBy(ctx, payload.ProposalID)
	if proposedBy == "" {
		return nil
	}
	return r.record(ctx, evt, []string{proposedBy}, notify.TopicScheduleRejected, payload.ProposalID)
}

func (r *Router) record(ctx context.Context, evt event.Event, recipients []string, topic, proposalID string) error {
	raw, err := event.MarshalPayload(evt.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	for _, recipientID := range recipients {
		notificationID, err := r.newID()
		if err != nil {
			return fmt.Errorf("generate notification id: %w", err)
		}
		notification := notify.Notification{
			ID:          notificationID,
			RecipientID: recipientID,
			Topic:       topic,
			PayloadJSON: string(raw),
			DedupeKey:   fmt.Sprintf("%s:%s", topic, proposalID),
			CreatedAt:   r.clock().UTC(),
		}
		if err := r.notifications.PutNotification(ctx, notification); err != nil {
			return fmt.Errorf("save notification for %s: %w", recipientID, err)
		}
	}
	return nil
}

func (r *Router) proposedBy(ctx context.Context, proposalID string) string {
	proposal, err := r.proposals.GetProposal(ctx, proposalID)
	if err != nil {
		r.logf("notify: resolve proposal %s: %v", proposalID, err)
		return ""
	}
	return proposal.ProposedBy
}
