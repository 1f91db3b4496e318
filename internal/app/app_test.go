package app

import (
	"context"
	"testing"

	"github.com/stewardhq/steward/internal/event"
	skillsvc "github.com/stewardhq/steward/internal/skill/service"
)

func memberJoined(contextID, subjectID string) event.Event {
	return event.New(event.MemberJoinedPayload{ContextID: contextID, SubjectID: subjectID})
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(Config{StorageDriver: "memory"})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return a
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(Config{StorageDriver: "etcd"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestWiringProjectsSkillChangesIntoRoster(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	if err := a.Funnel.Apply(ctx, memberJoined("c1", "s1")); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	result, err := a.Skills.AddXP(ctx, skillsvc.ChangeInput{
		SubjectID: "s1",
		ContextID: "c1",
		SkillID:   "welding",
		Delta:     160,
		Reason:    "certification",
	})
	if err != nil {
		t.Fatalf("add xp: %v", err)
	}
	if result.NewXP != 160 {
		t.Fatalf("new xp = %d, want 160", result.NewXP)
	}

	view, err := a.Roster.Entry(ctx, "c1", "s1")
	if err != nil {
		t.Fatalf("roster entry: %v", err)
	}
	if len(view.Skills) != 1 || view.Skills[0].XP != 160 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Skills[0].Tier != "expert" {
		t.Fatalf("tier = %q, want expert", view.Skills[0].Tier)
	}

	// The recorder journaled the event.
	events, err := a.Store.ListEvents(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("no events journaled")
	}
}
