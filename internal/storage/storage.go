// Package storage defines the collaborator interfaces the core consumes.
//
// The document store itself is external; the core only depends on these
// contracts. Two adapters ship with the repo: a mutex-guarded in-memory store
// and a sqlite store.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/stewardhq/steward/internal/event"
	"github.com/stewardhq/steward/internal/notify"
	"github.com/stewardhq/steward/internal/roster"
	"github.com/stewardhq/steward/internal/schedule"
	"github.com/stewardhq/steward/internal/skill"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict indicates a conditional write observed a concurrent
// mutation of the same record.
var ErrVersionConflict = errors.New("record version conflict")

// SkillTx is the read-modify-write surface available inside one skill
// transaction.
type SkillTx interface {
	// GetSkillRecord returns the aggregate for one (subject, skill) pair.
	// Returns ErrNotFound when no record exists yet.
	GetSkillRecord(ctx context.Context, subjectID, skillID string) (skill.Record, error)
	// PutSkillRecord writes the aggregate conditionally: expectedVersion
	// must match the stored version (0 for a new record) or the write
	// fails with ErrVersionConflict.
	PutSkillRecord(ctx context.Context, record skill.Record, expectedVersion uint64) error
	// AppendLedgerEntry appends one immutable audit record.
	AppendLedgerEntry(ctx context.Context, entry skill.LedgerEntry) error
}

// SkillStore persists XP aggregates and their ledger.
type SkillStore interface {
	SkillTx
	// Transact runs fn atomically with respect to other Transact calls.
	// Writes inside fn are discarded when fn returns an error.
	Transact(ctx context.Context, fn func(tx SkillTx) error) error
	// ListLedgerEntries returns all entries for a pair in timestamp order.
	ListLedgerEntries(ctx context.Context, subjectID, skillID string) ([]skill.LedgerEntry, error)
}

// RosterStore persists eligible-member projection entries.
type RosterStore interface {
	PutRosterEntry(ctx context.Context, entry roster.Entry) error
	// GetRosterEntry returns ErrNotFound for an unknown (context, subject).
	GetRosterEntry(ctx context.Context, contextID, subjectID string) (roster.Entry, error)
	// DeleteRosterEntry removes an entry; deleting a missing entry is a no-op.
	DeleteRosterEntry(ctx context.Context, contextID, subjectID string) error
	// ListRosterEntries returns a context's entries ordered by subject id.
	ListRosterEntries(ctx context.Context, contextID string) ([]roster.Entry, error)
}

// StatsStore persists per-context roster summaries.
type StatsStore interface {
	PutContextStats(ctx context.Context, stats roster.ContextStats) error
	// GetContextStats returns ErrNotFound for an unknown context.
	GetContextStats(ctx context.Context, contextID string) (roster.ContextStats, error)
}

// ProposalStore persists schedule proposals.
type ProposalStore interface {
	PutProposal(ctx context.Context, proposal schedule.Proposal) error
	// GetProposal returns ErrNotFound for an unknown proposal id.
	GetProposal(ctx context.Context, proposalID string) (schedule.Proposal, error)
	// ListProposalsByContext returns proposals ordered by creation time.
	ListProposalsByContext(ctx context.Context, contextID string) ([]schedule.Proposal, error)
}

// EventStore is the best-effort journal the replay utility reads. Sequence
// numbers are assigned on append and are strictly increasing.
type EventStore interface {
	// AppendEvent records evt and returns its assigned sequence number.
	AppendEvent(ctx context.Context, evt event.Event) (uint64, error)
	// ListEvents returns up to limit events with Seq > afterSeq, in
	// ascending sequence order.
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
}

// ProjectionWatermark is the monotonic read-model version stamp for one
// logical projection.
type ProjectionWatermark struct {
	Key        string
	AppliedSeq uint64
	UpdatedAt  time.Time
}

// WatermarkStore persists projection watermarks.
type WatermarkStore interface {
	// GetWatermark returns ErrNotFound when no stamp exists for key.
	GetWatermark(ctx context.Context, key string) (ProjectionWatermark, error)
	SaveWatermark(ctx context.Context, wm ProjectionWatermark) error
	ListWatermarks(ctx context.Context) ([]ProjectionWatermark, error)
}

// Store is the full surface the application bootstrap wires. Both shipped
// adapters implement it.
type Store interface {
	SkillStore
	RosterStore
	StatsStore
	ProposalStore
	EventStore
	WatermarkStore
	NotificationStore
}

// NotificationStore persists routed notification records.
type NotificationStore interface {
	// PutNotification records one notification. A record with the same
	// (recipient, dedupe key) replaces the previous one.
	PutNotification(ctx context.Context, notification notify.Notification) error
	// ListNotifications returns a recipient's notifications in creation order.
	ListNotifications(ctx context.Context, recipientID string) ([]notify.Notification, error)
}
