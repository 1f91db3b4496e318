// Package roster holds the eligible-member read model vocabulary.
//
// Roster entries are a projection rebuilt from events. They are eventually
// consistent with the XP aggregate: between an aggregate write and the
// funnel-driven update a reader may observe slightly stale XP or eligibility.
// Scheduling reads this projection and nothing else.
package roster

import (
	"time"

	"github.com/stewardhq/steward/internal/skill"
)

// Entry is the per-context projection row for one subject.
type Entry struct {
	ContextID string
	SubjectID string
	// Skills maps skill id to the last projected XP value.
	Skills map[string]int
	// Eligible marks whether the subject may currently take new assignments.
	Eligible  bool
	UpdatedAt time.Time
}

// SkillView is a tier-enriched read of one skill. Tier is computed on read
// via skill.ResolveTier and never written back.
type SkillView struct {
	SkillID string
	XP      int
	Tier    skill.Tier
}

// View is the tier-enriched query shape for one entry.
type View struct {
	ContextID string
	SubjectID string
	Skills    []SkillView
	Eligible  bool
}

// ViewOf derives the tier-enriched view of an entry.
func ViewOf(entry Entry) View {
	view := View{
		ContextID: entry.ContextID,
		SubjectID: entry.SubjectID,
		Eligible:  entry.Eligible,
	}
	for skillID, xp := range entry.Skills {
		view.Skills = append(view.Skills, SkillView{
			SkillID: skillID,
			XP:      xp,
			Tier:    skill.ResolveTier(xp),
		})
	}
	return view
}

// SkillTier resolves the tier an entry grants for one skill. An absent skill
// counts as zero XP.
func SkillTier(entry Entry, skillID string) skill.Tier {
	return skill.ResolveTier(entry.Skills[skillID])
}
