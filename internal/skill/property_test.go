package skill

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestClampXPBoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("clamped XP stays within [MinXP, MaxXP]", prop.ForAll(
		func(value int) bool {
			clamped := ClampXP(value)
			return clamped >= MinXP && clamped <= MaxXP
		},
		gen.Int(),
	))

	properties.Property("in-range values pass through unchanged", prop.ForAll(
		func(value int) bool {
			return ClampXP(value) == value
		},
		gen.IntRange(MinXP, MaxXP),
	))

	properties.TestingRun(t)
}

func TestResolveTierMonotonicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("tier rank never decreases as XP grows", prop.ForAll(
		func(a, b int) bool {
			lo, hi := a, b
			if lo > hi {
				lo, hi = hi, lo
			}
			return TierRank(ResolveTier(lo)) <= TierRank(ResolveTier(hi))
		},
		gen.IntRange(MinXP, MaxXP),
		gen.IntRange(MinXP, MaxXP),
	))

	properties.Property("every XP value resolves to a ranked tier", prop.ForAll(
		func(xp int) bool {
			return TierRank(ResolveTier(xp)) >= 1
		},
		gen.IntRange(MinXP, MaxXP),
	))

	properties.TestingRun(t)
}

func TestAppliedDeltaSequencesStayBoundedProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// Fold arbitrary signed deltas the way add/deduct does: clamp at every
	// step and record the applied change. The running XP must stay bounded
	// and the ledger replay must reproduce it.
	properties.Property("clamp-per-write keeps XP bounded and ledger-consistent", prop.ForAll(
		func(deltas []int) bool {
			xp := MinXP
			var entries []LedgerEntry
			for _, delta := range deltas {
				target := ClampXP(xp + delta)
				entries = append(entries, LedgerEntry{Delta: target - xp})
				xp = target
				if xp < MinXP || xp > MaxXP {
					return false
				}
			}
			return ReplayLedger(entries) == xp
		},
		gen.SliceOf(gen.IntRange(-600, 600)),
	))

	properties.TestingRun(t)
}
