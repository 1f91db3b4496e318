package service

import (
	"context"
	"testing"

	"github.com/stewardhq/steward/internal/bus"
	"github.com/stewardhq/steward/internal/event"
	"github.com/stewardhq/steward/internal/notify"
	"github.com/stewardhq/steward/internal/schedule"
	"github.com/stewardhq/steward/internal/storage/memory"
)

func seedProposal(t *testing.T, store *memory.Store, id, proposedBy string) {
	t.Helper()
	err := store.PutProposal(context.Background(), schedule.Proposal{
		ID:         id,
		ContextID:  "c1",
		ProposedBy: proposedBy,
		Status:     schedule.StatusProposed,
	})
	if err != nil {
		t.Fatalf("seed proposal: %v", err)
	}
}

func TestRouterRecordsConfirmedForAssigneesAndProposer(t *testing.T) {
	store := memory.New()
	seedProposal(t, store, "p1", "lead-1")
	router := NewRouter(store, store).WithLogf(func(string, ...any) {})
	b := bus.New()
	defer router.Attach(b)()
	ctx := context.Background()

	b.Publish(ctx, event.New(event.ScheduleConfirmedPayload{
		ProposalID:       "p1",
		ContextID:        "c1",
		AssignedSubjects: []string{"s1", "s2"},
	}))

	for _, recipientID := range []string{"s1", "s2", "lead-1"} {
		notifications, err := store.ListNotifications(ctx, recipientID)
		if err != nil {
			t.Fatalf("list notifications for %s: %v", recipientID, err)
		}
		if len(notifications) != 1 {
			t.Fatalf("notifications for %s = %d, want 1", recipientID, len(notifications))
		}
		got := notifications[0]
		if got.Topic != notify.TopicScheduleConfirmed {
			t.Fatalf("topic = %q", got.Topic)
		}
		if got.DedupeKey != "schedule.confirmed:p1" {
			t.Fatalf("dedupe key = %q", got.DedupeKey)
		}
		if got.PayloadJSON == "" {
			t.Fatal("payload json is empty")
		}
	}
}

func TestRouterRecordsRejectionForProposerOnly(t *testing.T) {
	store := memory.New()
	seedProposal(t, store, "p1", "lead-1")
	router := NewRouter(store, store).WithLogf(func(string, ...any) {})
	b := bus.New()
	defer router.Attach(b)()
	ctx := context.Background()

	b.Publish(ctx, event.New(event.ScheduleAssignRejectedPayload{
		ProposalID: "p1",
		Reason:     "tier shortfall",
	}))

	notifications, err := store.ListNotifications(ctx, "lead-1")
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifications))
	}
	if notifications[0].Topic != notify.TopicScheduleRejected {
		t.Fatalf("topic = %q", notifications[0].Topic)
	}
}

func TestRouterDedupesRepeatedOutcome(t *testing.T) {
	store := memory.New()
	seedProposal(t, store, "p1", "lead-1")
	router := NewRouter(store, store).WithLogf(func(string, ...any) {})
	b := bus.New()
	defer router.Attach(b)()
	ctx := context.Background()

	payload := event.ScheduleAssignRejectedPayload{ProposalID: "p1", Reason: "tier shortfall"}
	b.Publish(ctx, event.New(payload))
	b.Publish(ctx, event.New(payload))

	notifications, err := store.ListNotifications(ctx, "lead-1")
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("notifications = %d, want 1 after dedupe", len(notifications))
	}
}

func TestRouterUnknownProposalRejectionIsDropped(t *testing.T) {
	store := memory.New()
	router := NewRouter(store, store).WithLogf(func(string, ...any) {})

	err := router.routeRejected(context.Background(), event.New(event.ScheduleAssignRejectedPayload{
		ProposalID: "missing",
		Reason:     "tier shortfall",
	}))
	if err != nil {
		t.Fatalf("route rejected: %v", err)
	}
	notifications, err := store.ListNotifications(context.Background(), "lead-1")
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 0 {
		t.Fatalf("notifications = %d, want 0", len(notifications))
	}
}
