package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stewardhq/steward/internal/event"
	"github.com/stewardhq/steward/internal/notify"
	"github.com/stewardhq/steward/internal/roster"
	"github.com/stewardhq/steward/internal/skill"
	"github.com/stewardhq/steward/internal/storage"
)

func TestSkillRecordVersionConflicts(t *testing.T) {
	store := New()
	ctx := context.Background()

	record := skill.Record{SubjectID: "s1", SkillID: "welding", XP: 100, Version: 1}
	if err := store.PutSkillRecord(ctx, record, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.PutSkillRecord(ctx, record, 0); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("reinsert: expected ErrVersionConflict, got %v", err)
	}

	record.XP = 130
	record.Version = 2
	if err := store.PutSkillRecord(ctx, record, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.PutSkillRecord(ctx, record, 1); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("stale update: expected ErrVersionConflict, got %v", err)
	}
	if err := store.PutSkillRecord(ctx, skill.Record{SubjectID: "s2", SkillID: "welding", Version: 1}, 3); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("missing record update: expected ErrVersionConflict, got %v", err)
	}
}

func TestTransactDiscardsStagedWritesOnError(t *testing.T) {
	store := New()
	ctx := context.Background()

	wantErr := errors.New("boom")
	err := store.Transact(ctx, func(tx storage.SkillTx) error {
		if err := tx.AppendLedgerEntry(ctx, skill.LedgerEntry{SubjectID: "s1", SkillID: "welding", Delta: 50}); err != nil {
			return err
		}
		if err := tx.PutSkillRecord(ctx, skill.Record{SubjectID: "s1", SkillID: "welding", XP: 50, Version: 1}, 0); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("transact err = %v, want %v", err, wantErr)
	}

	if _, err := store.GetSkillRecord(ctx, "s1", "welding"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("record leaked: %v", err)
	}
	entries, err := store.ListLedgerEntries(ctx, "s1", "welding")
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("ledger entries leaked: %d", len(entries))
	}
}

func TestTransactReadsStagedRecord(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.Transact(ctx, func(tx storage.SkillTx) error {
		if err := tx.PutSkillRecord(ctx, skill.Record{SubjectID: "s1", SkillID: "welding", XP: 50, Version: 1}, 0); err != nil {
			return err
		}
		record, err := tx.GetSkillRecord(ctx, "s1", "welding")
		if err != nil {
			return err
		}
		if record.XP != 50 {
			t.Fatalf("staged xp = %d, want 50", record.XP)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}

	record, err := store.GetSkillRecord(ctx, "s1", "welding")
	if err != nil {
		t.Fatalf("get after commit: %v", err)
	}
	if record.XP != 50 || record.Version != 1 {
		t.Fatalf("unexpected committed record: %+v", record)
	}
}

func TestRosterEntryIsolation(t *testing.T) {
	store := New()
	ctx := context.Background()

	entry := roster.Entry{
		ContextID: "c1",
		SubjectID: "s1",
		Skills:    map[string]int{"welding": 100},
		Eligible:  true,
	}
	if err := store.PutRosterEntry(ctx, entry); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Mutating the caller's map must not reach the stored entry.
	entry.Skills["welding"] = 999
	got, err := store.GetRosterEntry(ctx, "c1", "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Skills["welding"] != 100 {
		t.Fatalf("stored entry aliased caller map: %d", got.Skills["welding"])
	}

	// Same for the returned copy.
	got.Skills["welding"] = 42
	again, err := store.GetRosterEntry(ctx, "c1", "s1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Skills["welding"] != 100 {
		t.Fatalf("returned entry aliased stored map: %d", again.Skills["welding"])
	}
}

func eventFixture() event.Event {
	return event.New(event.MemberJoinedPayload{ContextID: "c1", SubjectID: "s1"})
}

func TestEventSequenceIsMonotonic(t *testing.T) {
	store := New()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		seq, err := store.AppendEvent(ctx, eventFixture())
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if seq != uint64(i) {
			t.Fatalf("seq = %d, want %d", seq, i)
		}
	}

	page, err := store.ListEvents(ctx, 1, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 1 || page[0].Seq != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestNotificationDedupeReplaces(t *testing.T) {
	store := New()
	ctx := context.Background()

	first := notify.Notification{
		ID: "n1", RecipientID: "lead-1", Topic: notify.TopicScheduleRejected,
		DedupeKey: "schedule.rejected:p1", PayloadJSON: "one", CreatedAt: time.Now(),
	}
	if err := store.PutNotification(ctx, first); err != nil {
		t.Fatalf("put: %v", err)
	}
	second := first
	second.ID = "n2"
	second.PayloadJSON = "two"
	if err := store.PutNotification(ctx, second); err != nil {
		t.Fatalf("put duplicate: %v", err)
	}

	notifications, err := store.ListNotifications(ctx, "lead-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notifications) != 1 || notifications[0].PayloadJSON != "two" {
		t.Fatalf("unexpected notifications: %+v", notifications)
	}
}
