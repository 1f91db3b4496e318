// Package schedule holds the scheduling proposal state machine.
package schedule

import (
	"time"

	"github.com/stewardhq/steward/internal/skill"
)

// Status describes the proposal lifecycle label.
type Status string

const (
	StatusUnspecified Status = ""
	StatusProposed    Status = "proposed"
	StatusConfirmed   Status = "confirmed"
	StatusCancelled   Status = "cancelled"
	StatusRejected    Status = "rejected"
)

// IsTerminal reports whether a status accepts no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// isStatusTransitionAllowed enforces the proposal lifecycle: a proposal
// transitions exactly once from proposed to a terminal status.
func isStatusTransitionAllowed(from, to Status) bool {
	if from != StatusProposed {
		return false
	}
	return to.IsTerminal()
}

// IsStatusTransitionAllowed reports whether a status transition is permitted.
func IsStatusTransitionAllowed(from, to Status) bool {
	return isStatusTransitionAllowed(from, to)
}

// Requirement is one staffing requirement on a proposal.
type Requirement struct {
	SkillID     string
	MinimumTier skill.Tier
	Quantity    int
}

// Proposal is one cross-context scheduling workflow instance. Once a proposal
// reaches a terminal status it is immutable.
type Proposal struct {
	ID           string
	WorkspaceID  string
	ContextID    string
	Title        string
	StartDate    string
	EndDate      string
	ProposedBy   string
	Requirements []Requirement
	Status       Status
	// AssignedSubjects is populated when the proposal is confirmed.
	AssignedSubjects []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
