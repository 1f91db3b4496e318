package projection

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stewardhq/steward/internal/bus"
	"github.com/stewardhq/steward/internal/event"
	"github.com/stewardhq/steward/internal/storage"
	"github.com/stewardhq/steward/internal/storage/memory"
)

func journalEvents(t *testing.T, store *memory.Store, payloads ...event.Payload) {
	t.Helper()
	for _, payload := range payloads {
		if _, err := store.AppendEvent(context.Background(), event.New(payload)); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}
}

func TestReplayReproducesIncrementalState(t *testing.T) {
	ctx := context.Background()
	payloads := []event.Payload{
		event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s1"},
		event.SkillXPAddedPayload{ContextID: "c1", SubjectID: "s1", SkillID: "welding", XPDelta: 160, NewXP: 160},
		event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s2"},
		event.SkillXPDeductedPayload{ContextID: "c1", SubjectID: "s1", SkillID: "welding", XPDelta: -30, NewXP: 130},
		event.MemberLeftPayload{ContextID: "c1", SubjectID: "s2"},
	}

	// Incremental: events flow through the funnel live.
	liveStore := memory.New()
	liveFunnel := newTestFunnel(liveStore)
	for _, payload := range payloads {
		if err := liveFunnel.Apply(ctx, event.New(payload)); err != nil {
			t.Fatalf("live apply: %v", err)
		}
	}

	// Replay: the same events come back out of the journal.
	replayStore := memory.New()
	journalEvents(t, replayStore, payloads...)
	replayFunnel := newTestFunnel(replayStore)
	lastSeq, err := Replay(ctx, replayStore, replayFunnel, ReplayOptions{})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if lastSeq != 5 {
		t.Fatalf("last seq = %d, want 5", lastSeq)
	}

	liveEntries, err := liveStore.ListRosterEntries(ctx, "c1")
	if err != nil {
		t.Fatalf("list live entries: %v", err)
	}
	replayEntries, err := replayStore.ListRosterEntries(ctx, "c1")
	if err != nil {
		t.Fatalf("list replay entries: %v", err)
	}
	for i := range liveEntries {
		liveEntries[i].UpdatedAt = replayEntries[i].UpdatedAt
	}
	if !reflect.DeepEqual(liveEntries, replayEntries) {
		t.Fatalf("replayed roster differs:\nlive:   %+v\nreplay: %+v", liveEntries, replayEntries)
	}
	if len(replayEntries) != 1 || replayEntries[0].Skills["welding"] != 130 {
		t.Fatalf("unexpected replayed roster: %+v", replayEntries)
	}
}

func TestReplayStampsJournalSequence(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	journalEvents(t, store,
		event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s1"},
		event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s2"},
		event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s3"},
	)

	funnel := newTestFunnel(store)
	if _, err := Replay(ctx, store, funnel, ReplayOptions{}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	wm, err := store.GetWatermark(ctx, KeyRoster)
	if err != nil {
		t.Fatalf("get watermark: %v", err)
	}
	if wm.AppliedSeq != 3 {
		t.Fatalf("watermark = %d, want 3", wm.AppliedSeq)
	}

	// A second full replay skips already-applied sequences.
	if _, err := Replay(ctx, store, funnel, ReplayOptions{}); err != nil {
		t.Fatalf("second replay: %v", err)
	}
	wm, err = store.GetWatermark(ctx, KeyRoster)
	if err != nil {
		t.Fatalf("get watermark: %v", err)
	}
	if wm.AppliedSeq != 3 {
		t.Fatalf("watermark after second replay = %d, want 3", wm.AppliedSeq)
	}
}

func TestReplayWindow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	journalEvents(t, store,
		event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s1"},
		event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s2"},
		event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s3"},
	)

	funnel := newTestFunnel(store)
	lastSeq, err := Replay(ctx, store, funnel, ReplayOptions{AfterSeq: 1, UntilSeq: 2})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if lastSeq != 2 {
		t.Fatalf("last seq = %d, want 2", lastSeq)
	}
	if _, err := store.GetRosterEntry(ctx, "c1", "s1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("s1 should be outside the window, got %v", err)
	}
	if _, err := store.GetRosterEntry(ctx, "c1", "s2"); err != nil {
		t.Fatalf("s2 should be applied: %v", err)
	}
	if _, err := store.GetRosterEntry(ctx, "c1", "s3"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("s3 should be outside the window, got %v", err)
	}
}

func TestReplayContextFiltersOtherContexts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	journalEvents(t, store,
		event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s1"},
		event.MemberJoinedPayload{ContextID: "c2", SubjectID: "s2"},
	)

	funnel := newTestFunnel(store)
	if _, err := ReplayContext(ctx, store, funnel, "c1"); err != nil {
		t.Fatalf("replay context: %v", err)
	}
	if _, err := store.GetRosterEntry(ctx, "c1", "s1"); err != nil {
		t.Fatalf("c1 entry missing: %v", err)
	}
	if _, err := store.GetRosterEntry(ctx, "c2", "s2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("c2 entry should be filtered out, got %v", err)
	}
}

func TestRecorderJournalsPublishedEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	b := bus.New()
	recorder := NewRecorder(store).WithLogf(func(string, ...any) {})
	detach := recorder.Attach(b)

	b.Publish(ctx, event.New(event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s1"}))
	b.Publish(ctx, event.New(event.ScheduleCancelledPayload{ProposalID: "p1"}))
	detach()
	b.Publish(ctx, event.New(event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s2"}))

	events, err := store.ListEvents(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("journaled events = %d, want 2", len(events))
	}
	if events[0].Seq != 1 || events[1].Seq != 2 {
		t.Fatalf("unexpected sequences: %d, %d", events[0].Seq, events[1].Seq)
	}
	if events[0].Type != event.TypeMemberJoined || events[1].Type != event.TypeScheduleCancelled {
		t.Fatalf("unexpected types: %s, %s", events[0].Type, events[1].Type)
	}
}
