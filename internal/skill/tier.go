package skill

import "strings"

// Tier is a derived proficiency label. It is a pure function of XP and is
// never persisted; readers recompute it from the stored XP value.
type Tier string

const (
	TierUnspecified Tier = ""
	TierNovice      Tier = "novice"
	TierApprentice  Tier = "apprentice"
	TierJourneyman  Tier = "journeyman"
	TierExpert      Tier = "expert"
	TierVeteran     Tier = "veteran"
	TierMaster      Tier = "master"
	TierGrandmaster Tier = "grandmaster"
)

// tierBound pairs a tier with its exclusive upper XP bound. The last tier is
// open-ended; its bound is never consulted.
type tierBound struct {
	tier  Tier
	upper int
}

// tierTable orders the seven tiers by ascending rank. An XP value exactly at
// a bound belongs to the next tier (bounds are exclusive on the lower tier).
var tierTable = []tierBound{
	{TierNovice, 25},
	{TierApprentice, 75},
	{TierJourneyman, 150},
	{TierExpert, 250},
	{TierVeteran, 350},
	{TierMaster, 450},
	{TierGrandmaster, 0},
}

// ResolveTier derives the tier for an XP value. The result is total,
// deterministic, and monotonic non-decreasing in xp.
func ResolveTier(xp int) Tier {
	for i, bound := range tierTable {
		if i == len(tierTable)-1 {
			break
		}
		if xp < bound.upper {
			return bound.tier
		}
	}
	return tierTable[len(tierTable)-1].tier
}

// TierRank returns the fixed 1-7 ordinal for a tier, or 0 for an unknown label.
func TierRank(t Tier) int {
	for i, bound := range tierTable {
		if bound.tier == t {
			return i + 1
		}
	}
	return 0
}

// ParseTier canonicalizes a tier label.
func ParseTier(value string) (Tier, bool) {
	label := Tier(strings.ToLower(strings.TrimSpace(value)))
	if TierRank(label) == 0 {
		return TierUnspecified, false
	}
	return label, true
}

// TierSatisfies reports whether a granted tier meets a minimum requirement.
// It holds iff rank(granted) >= rank(minimum); unknown labels never satisfy.
func TierSatisfies(granted, minimum Tier) bool {
	grantedRank := TierRank(granted)
	minimumRank := TierRank(minimum)
	if grantedRank == 0 || minimumRank == 0 {
		return false
	}
	return grantedRank >= minimumRank
}
