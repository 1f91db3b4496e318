package event

// SkillXPAddedPayload captures the payload for skill.xp_added events.
// NewXP carries the absolute value after the write; consumers derive tier
// themselves and must never receive a precomputed one.
type SkillXPAddedPayload struct {
	SubjectID string `json:"subjectId"`
	ContextID string `json:"contextId"`
	SkillID   string `json:"skillId"`
	XPDelta   int    `json:"xpDelta"`
	NewXP     int    `json:"newXp"`
	Reason    string `json:"reason,omitempty"`
}

// EventType binds the payload to skill.xp_added.
func (SkillXPAddedPayload) EventType() Type { return TypeSkillXPAdded }

// SkillXPDeductedPayload captures the payload for skill.xp_deducted events.
type SkillXPDeductedPayload struct {
	SubjectID string `json:"subjectId"`
	ContextID string `json:"contextId"`
	SkillID   string `json:"skillId"`
	XPDelta   int    `json:"xpDelta"`
	NewXP     int    `json:"newXp"`
	Reason    string `json:"reason,omitempty"`
}

// EventType binds the payload to skill.xp_deducted.
func (SkillXPDeductedPayload) EventType() Type { return TypeSkillXPDeducted }

// MemberJoinedPayload captures the payload for member.joined events.
type MemberJoinedPayload struct {
	ContextID string `json:"contextId"`
	SubjectID string `json:"subjectId"`
}

// EventType binds the payload to member.joined.
func (MemberJoinedPayload) EventType() Type { return TypeMemberJoined }

// MemberLeftPayload captures the payload for member.left events.
type MemberLeftPayload struct {
	ContextID string `json:"contextId"`
	SubjectID string `json:"subjectId"`
}

// EventType binds the payload to member.left.
func (MemberLeftPayload) EventType() Type { return TypeMemberLeft }

// SkillRequirement describes one staffing requirement on a proposal.
type SkillRequirement struct {
	SkillID     string `json:"skillId"`
	MinimumTier string `json:"minimumTier"`
	Quantity    int    `json:"quantity"`
}

// ScheduleProposedPayload captures the payload for schedule.proposed events.
type ScheduleProposedPayload struct {
	ProposalID        string             `json:"proposalId"`
	WorkspaceID       string             `json:"workspaceId"`
	ContextID         string             `json:"contextId"`
	Title             string             `json:"title"`
	StartDate         string             `json:"startDate"`
	EndDate           string             `json:"endDate"`
	ProposedBy        string             `json:"proposedBy"`
	SkillRequirements []SkillRequirement `json:"skillRequirements"`
}

// EventType binds the payload to schedule.proposed.
func (ScheduleProposedPayload) EventType() Type { return TypeScheduleProposed }

// ScheduleConfirmedPayload captures the payload for schedule.confirmed events.
type ScheduleConfirmedPayload struct {
	ProposalID       string   `json:"proposalId"`
	ContextID        string   `json:"contextId"`
	AssignedSubjects []string `json:"assignedSubjects"`
}

// EventType binds the payload to schedule.confirmed.
func (ScheduleConfirmedPayload) EventType() Type { return TypeScheduleConfirmed }

// ScheduleAssignRejectedPayload captures the payload for the compensating
// schedule.assign_rejected event.
type ScheduleAssignRejectedPayload struct {
	ProposalID string `json:"proposalId"`
	Reason     string `json:"reason"`
}

// EventType binds the payload to schedule.assign_rejected.
func (ScheduleAssignRejectedPayload) EventType() Type { return TypeScheduleAssignRejected }

// ScheduleCancelledPayload captures the payload for schedule.cancelled events.
type ScheduleCancelledPayload struct {
	ProposalID string `json:"proposalId"`
	Reason     string `json:"reason,omitempty"`
}

// EventType binds the payload to schedule.cancelled.
func (ScheduleCancelledPayload) EventType() Type { return TypeScheduleCancelled }
