// Package memory provides a mutex-guarded in-memory implementation of the
// storage interfaces. It is the reference collaborator used by tests and
// local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/stewardhq/steward/internal/event"
	"github.com/stewardhq/steward/internal/notify"
	"github.com/stewardhq/steward/internal/roster"
	"github.com/stewardhq/steward/internal/schedule"
	"github.com/stewardhq/steward/internal/skill"
	"github.com/stewardhq/steward/internal/storage"
)

type pairKey struct {
	subjectID string
	skillID   string
}

type entryKey struct {
	contextID string
	subjectID string
}

// Store implements every storage interface in memory.
type Store struct {
	mu            sync.Mutex
	skills        map[pairKey]skill.Record
	ledger        []skill.LedgerEntry
	roster        map[entryKey]roster.Entry
	stats         map[string]roster.ContextStats
	proposals     map[string]schedule.Proposal
	events        []event.Event
	nextSeq       uint64
	watermarks    map[string]storage.ProjectionWatermark
	notifications map[string][]notify.Notification
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		skills:        make(map[pairKey]skill.Record),
		roster:        make(map[entryKey]roster.Entry),
		stats:         make(map[string]roster.ContextStats),
		proposals:     make(map[string]schedule.Proposal),
		watermarks:    make(map[string]storage.ProjectionWatermark),
		notifications: make(map[string][]notify.Notification),
	}
}

// --- SkillStore ---

// GetSkillRecord implements storage.SkillTx.
func (s *Store) GetSkillRecord(ctx context.Context, subjectID, skillID string) (skill.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSkillRecordLocked(subjectID, skillID)
}

// PutSkillRecord implements storage.SkillTx.
func (s *Store) PutSkillRecord(ctx context.Context, record skill.Record, expectedVersion uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putSkillRecordLocked(record, expectedVersion)
}

// AppendLedgerEntry implements storage.SkillTx.
func (s *Store) AppendLedgerEntry(ctx context.Context, entry skill.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, entry)
	return nil
}

// Transact runs fn as one critical section. Ledger appends and record writes
// made inside fn are staged and discarded when fn fails.
func (s *Store) Transact(ctx context.Context, fn func(tx storage.SkillTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		store:  s,
		skills: make(map[pairKey]skill.Record),
	}
	if err := fn(tx); err != nil {
		return err
	}

	for key, record := range tx.skills {
		s.skills[key] = record
	}
	s.ledger = append(s.ledger, tx.ledger...)
	return nil
}

// ListLedgerEntries returns all entries for a pair in append order.
func (s *Store) ListLedgerEntries(ctx context.Context, subjectID, skillID string) ([]skill.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []skill.LedgerEntry
	for _, entry := range s.ledger {
		if entry.SubjectID == subjectID && entry.SkillID == skillID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *Store) getSkillRecordLocked(subjectID, skillID string) (skill.Record, error) {
	record, ok := s.skills[pairKey{subjectID, skillID}]
	if !ok {
		return skill.Record{}, storage.ErrNotFound
	}
	return record, nil
}

func (s *Store) putSkillRecordLocked(record skill.Record, expectedVersion uint64) error {
	key := pairKey{record.SubjectID, record.SkillID}
	current, exists := s.skills[key]
	if exists && current.Version != expectedVersion {
		return storage.ErrVersionConflict
	}
	if !exists && expectedVersion != 0 {
		return storage.ErrVersionConflict
	}
	s.skills[key] = record
	return nil
}

// memoryTx stages skill writes against the already-locked store.
type memoryTx struct {
	store  *Store
	skills map[pairKey]skill.Record
	ledger []skill.LedgerEntry
}

func (tx *memoryTx) GetSkillRecord(ctx context.Context, subjectID, skillID string) (skill.Record, error) {
	if record, ok := tx.skills[pairKey{subjectID, skillID}]; ok {
		return record, nil
	}
	return tx.store.getSkillRecordLocked(subjectID, skillID)
}

func (tx *memoryTx) PutSkillRecord(ctx context.Context, record skill.Record, expectedVersion uint64) error {
	key := pairKey{record.SubjectID, record.SkillID}
	current, staged := tx.skills[key]
	if !staged {
		var exists bool
		current, exists = tx.store.skills[key]
		if !exists {
			if expectedVersion != 0 {
				return storage.ErrVersionConflict
			}
			tx.skills[key] = record
			return nil
		}
	}
	if current.Version != expectedVersion {
		return storage.ErrVersionConflict
	}
	tx.skills[key] = record
	return nil
}

func (tx *memoryTx) AppendLedgerEntry(ctx context.Context, entry skill.LedgerEntry) error {
	tx.ledger = append(tx.ledger, entry)
	return nil
}

// --- RosterStore ---

// PutRosterEntry upserts one projection row.
func (s *Store) PutRosterEntry(ctx context.Context, entry roster.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster[entryKey{entry.ContextID, entry.SubjectID}] = cloneEntry(entry)
	return nil
}

// GetRosterEntry returns one projection row.
func (s *Store) GetRosterEntry(ctx context.Context, contextID, subjectID string) (roster.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.roster[entryKey{contextID, subjectID}]
	if !ok {
		return roster.Entry{}, storage.ErrNotFound
	}
	return cloneEntry(entry), nil
}

// DeleteRosterEntry removes one projection row.
func (s *Store) DeleteRosterEntry(ctx context.Context, contextID, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roster, entryKey{contextID, subjectID})
	return nil
}

// ListRosterEntries returns a context's rows ordered by subject id.
func (s *Store) ListRosterEntries(ctx context.Context, contextID string) ([]roster.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []roster.Entry
	for key, entry := range s.roster {
		if key.contextID == contextID {
			entries = append(entries, cloneEntry(entry))
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SubjectID < entries[j].SubjectID
	})
	return entries, nil
}

func cloneEntry(entry roster.Entry) roster.Entry {
	cloned := entry
	cloned.Skills = make(map[string]int, len(entry.Skills))
	for skillID, xp := range entry.Skills {
		cloned.Skills[skillID] = xp
	}
	return cloned
}

// --- StatsStore ---

// PutContextStats upserts one context summary.
func (s *Store) PutContextStats(ctx context.Context, stats roster.ContextStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[stats.ContextID] = stats
	return nil
}

// GetContextStats returns one context summary.
func (s *Store) GetContextStats(ctx context.Context, contextID string) (roster.ContextStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.stats[contextID]
	if !ok {
		return roster.ContextStats{}, storage.ErrNotFound
	}
	return stats, nil
}

// --- ProposalStore ---

// PutProposal upserts one proposal.
func (s *Store) PutProposal(ctx context.Context, proposal schedule.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[proposal.ID] = proposal
	return nil
}

// GetProposal returns one proposal.
func (s *Store) GetProposal(ctx context.Context, proposalID string) (schedule.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, ok := s.proposals[proposalID]
	if !ok {
		return schedule.Proposal{}, storage.ErrNotFound
	}
	return proposal, nil
}

// ListProposalsByContext returns a context's proposals in creation order.
func (s *Store) ListProposalsByContext(ctx context.Context, contextID string) ([]schedule.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var proposals []schedule.Proposal
	for _, proposal := range s.proposals {
		if proposal.ContextID == contextID {
			proposals = append(proposals, proposal)
		}
	}
	sort.Slice(proposals, func(i, j int) bool {
		if proposals[i].CreatedAt.Equal(proposals[j].CreatedAt) {
			return proposals[i].ID < proposals[j].ID
		}
		return proposals[i].CreatedAt.Before(proposals[j].CreatedAt)
	})
	return proposals, nil
}

// --- EventStore ---

// AppendEvent records evt with the next sequence number.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	evt.Seq = s.nextSeq
	s.events = append(s.events, evt)
	return evt.Seq, nil
}

// ListEvents returns up to limit events after afterSeq.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []event.Event
	for _, evt := range s.events {
		if evt.Seq <= afterSeq {
			continue
		}
		events = append(events, evt)
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

// --- WatermarkStore ---

// GetWatermark returns the stamp for one projection key.
func (s *Store) GetWatermark(ctx context.Context, key string) (storage.ProjectionWatermark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wm, ok := s.watermarks[key]
	if !ok {
		return storage.ProjectionWatermark{}, storage.ErrNotFound
	}
	return wm, nil
}

// SaveWatermark upserts the stamp for one projection key.
func (s *Store) SaveWatermark(ctx context.Context, wm storage.ProjectionWatermark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermarks[wm.Key] = wm
	return nil
}

// ListWatermarks returns all stamps ordered by key.
func (s *Store) ListWatermarks(ctx context.Context) ([]storage.ProjectionWatermark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var watermarks []storage.ProjectionWatermark
	for _, wm := range s.watermarks {
		watermarks = append(watermarks, wm)
	}
	sort.Slice(watermarks, func(i, j int) bool {
		return watermarks[i].Key < watermarks[j].Key
	})
	return watermarks, nil
}

// --- NotificationStore ---

// PutNotification records one notification, replacing an earlier record with
// the same recipient and dedupe key.
func (s *Store) PutNotification(ctx context.Context, notification notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.notifications[notification.RecipientID]
	if notification.DedupeKey != "" {
		for i, candidate := range existing {
			if candidate.DedupeKey == notification.DedupeKey {
				existing[i] = notification
				return nil
			}
		}
	}
	s.notifications[notification.RecipientID] = append(existing, notification)
	return nil
}

// ListNotifications returns a recipient's notifications in insertion order.
func (s *Store) ListNotifications(ctx context.Context, recipientID string) ([]notify.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Notification(nil), s.notifications[recipientID]...), nil
}
