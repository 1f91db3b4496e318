// Package skill holds the XP aggregate vocabulary: records, ledger entries,
// the XP clamp, and the pure tier derivation.
package skill

import "time"

// XP bounds for one (subject, skill) pair. Every write clamps into this range.
const (
	MinXP = 0
	MaxXP = 525
)

// ClampXP bounds an XP value into [MinXP, MaxXP].
func ClampXP(value int) int {
	if value < MinXP {
		return MinXP
	}
	if value > MaxXP {
		return MaxXP
	}
	return value
}

// Record is the authoritative XP aggregate for one (subject, skill) pair.
type Record struct {
	SubjectID string
	SkillID   string
	XP        int
	// Version is a monotonic counter bumped on every write. Conditional
	// writes key on it to detect concurrent mutation.
	Version uint64
	UpdatedAt time.Time
}

// Tier derives the record's proficiency label on read.
func (r Record) Tier() Tier {
	return ResolveTier(r.XP)
}

// Result reports the outcome of one add or deduct operation. AppliedDelta is
// the actual clamped change, which may be smaller in magnitude than requested.
type Result struct {
	NewXP        int
	AppliedDelta int
}
