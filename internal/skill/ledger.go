package skill

import "time"

// LedgerEntry is one immutable audit record of an XP change. Entries are
// append-only and are written before the corresponding aggregate update, so
// after a crash between the two writes the ledger is the reconciliation
// source of truth.
type LedgerEntry struct {
	SubjectID string
	SkillID   string
	// Delta is the applied (clamped) change, not the requested one.
	Delta  int
	Reason string
	// SourceID optionally links the entry to the task, review, or schedule
	// item that caused the change.
	SourceID  string
	Timestamp time.Time
}

// ReplayLedger sums applied deltas in order from MinXP. For a complete ledger
// of one (subject, skill) pair this reproduces the aggregate's current value,
// because every stored delta is already clamped.
func ReplayLedger(entries []LedgerEntry) int {
	xp := MinXP
	for _, entry := range entries {
		xp += entry.Delta
	}
	return xp
}
