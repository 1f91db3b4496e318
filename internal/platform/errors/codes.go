// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Skill errors
	CodeSkillEmptySubjectID   Code = "SKILL_EMPTY_SUBJECT_ID"
	CodeSkillEmptySkillID     Code = "SKILL_EMPTY_SKILL_ID"
	CodeSkillEmptyContextID   Code = "SKILL_EMPTY_CONTEXT_ID"
	CodeSkillDeltaNotPositive Code = "SKILL_DELTA_NOT_POSITIVE"
	CodeSkillUnknownTier      Code = "SKILL_UNKNOWN_TIER"

	// Roster errors
	CodeRosterEmptyContextID Code = "ROSTER_EMPTY_CONTEXT_ID"
	CodeRosterEmptySubjectID Code = "ROSTER_EMPTY_SUBJECT_ID"
	CodeRosterEntryMissing   Code = "ROSTER_ENTRY_MISSING"

	// Schedule errors
	CodeScheduleEmptyProposalID  Code = "SCHEDULE_EMPTY_PROPOSAL_ID"
	CodeScheduleProposalMissing  Code = "SCHEDULE_PROPOSAL_MISSING"
	CodeScheduleNoRequirements   Code = "SCHEDULE_NO_REQUIREMENTS"
	CodeScheduleNoCandidates     Code = "SCHEDULE_NO_CANDIDATES"
	CodeScheduleInvalidTierLabel Code = "SCHEDULE_INVALID_TIER_LABEL"

	// Notification errors
	CodeNotifyEmptyRecipient Code = "NOTIFY_EMPTY_RECIPIENT"
	CodeNotifyEmptyTopic     Code = "NOTIFY_EMPTY_TOPIC"
)
