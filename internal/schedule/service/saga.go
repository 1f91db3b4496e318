// Package service orchestrates the scheduling proposal saga.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stewardhq/steward/internal/bus"
	"github.com/stewardhq/steward/internal/event"
	"github.com/stewardhq/steward/internal/platform/id"
	"github.com/stewardhq/steward/internal/roster"
	rostersvc "github.com/stewardhq/steward/internal/roster/service"
	perrors "github.com/stewardhq/steward/internal/platform/errors"
	"github.com/stewardhq/steward/internal/schedule"
	"github.com/stewardhq/steward/internal/skill"
	"github.com/stewardhq/steward/internal/storage"
)

// Saga drives a proposal through its lifecycle. Approval reads the
// eligible-member projection and nothing else; a staffing shortfall is a
// business outcome, not an error, and its only side effect is the
// compensating rejection event.
type Saga struct {
	proposals storage.ProposalStore
	roster    storage.RosterStore
	eligible  *rostersvc.Applier
	bus       *bus.Bus
	clock     func() time.Time
	newID     func() (string, error)
}

// NewSaga creates the scheduling saga service.
func NewSaga(proposals storage.ProposalStore, rosterStore storage.RosterStore, eligible *rostersvc.Applier, b *bus.Bus) *Saga {
	return &Saga{
		proposals: proposals,
		roster:    rosterStore,
		eligible:  eligible,
		bus:       b,
		clock:     time.Now,
		newID:     id.NewID,
	}
}

// WithClock overrides the clock for tests.
func (s *Saga) WithClock(clock func() time.Time) *Saga {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// ProposeInput describes a new scheduling proposal.
type ProposeInput struct {
	WorkspaceID  string
	ContextID    string
	Title        string
	StartDate    string
	EndDate      string
	ProposedBy   string
	Requirements []schedule.Requirement
}

// Outcome is the business result of an approval attempt. A rejected outcome
// carries the first unmet requirement's reason; a confirmed one carries the
// assignment set.
type Outcome struct {
	Rejected         bool
	Reason           string
	AssignedSubjects []string
}

// Propose creates a proposal in the proposed status and publishes
// schedule.proposed.
func (s *Saga) Propose(ctx context.Context, input ProposeInput) (schedule.Proposal, error) {
	if err := validateProposeInput(input); err != nil {
		return schedule.Proposal{}, err
	}

	proposalID, err := s.newID()
	if err != nil {
		return schedule.Proposal{}, fmt.Errorf("generate proposal id: %w", err)
	}

	now := s.clock().UTC()
	proposal := schedule.Proposal{
		ID:           proposalID,
		WorkspaceID:  input.WorkspaceID,
		ContextID:    input.ContextID,
		Title:        input.Title,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		ProposedBy:   input.ProposedBy,
		Requirements: input.Requirements,
		Status:       schedule.StatusProposed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.proposals.PutProposal(ctx, proposal); err != nil {
		return schedule.Proposal{}, fmt.Errorf("save proposal: %w", err)
	}

	s.publish(ctx, event.ScheduleProposedPayload{
		ProposalID:        proposal.ID,
		WorkspaceID:       proposal.WorkspaceID,
		ContextID:         proposal.ContextID,
		Title:             proposal.Title,
		StartDate:         proposal.StartDate,
		EndDate:           proposal.EndDate,
		ProposedBy:        proposal.ProposedBy,
		SkillRequirements: requirementPayloads(proposal.Requirements),
	})
	return proposal, nil
}

// Approve validates the proposed assignment set against the eligible-member
// projection. When every requirement is staffed the proposal is confirmed and
// the assignees are marked unavailable. A shortfall leaves the proposal and
// the roster untouched, publishes the compensating schedule.assign_rejected
// event, and reports the rejection as a plain outcome.
//
// Approving a proposal already in a terminal status is a no-op that reports
// the recorded state without publishing anything.
func (s *Saga) Approve(ctx context.Context, proposalID string, candidateIDs []string) (Outcome, error) {
	proposal, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return Outcome{}, err
	}
	if proposal.Status.IsTerminal() {
		return terminalOutcome(proposal), nil
	}
	if len(candidateIDs) == 0 {
		return Outcome{}, perrors.New(perrors.CodeScheduleNoCandidates, "no candidates proposed for assignment")
	}

	assigned, reason, err := s.selectAssignment(ctx, proposal, candidateIDs)
	if err != nil {
		return Outcome{}, err
	}
	if reason != "" {
		s.publish(ctx, event.ScheduleAssignRejectedPayload{
			ProposalID: proposal.ID,
			Reason:     reason,
		})
		return Outcome{Rejected: true, Reason: reason}, nil
	}

	proposal.Status = schedule.StatusConfirmed
	proposal.AssignedSubjects = assigned
	proposal.UpdatedAt = s.clock().UTC()
	if err := s.proposals.PutProposal(ctx, proposal); err != nil {
		return Outcome{}, fmt.Errorf("save proposal: %w", err)
	}
	for _, subjectID := range assigned {
		if err := s.eligible.SetEligible(ctx, proposal.ContextID, subjectID, false); err != nil {
			return Outcome{}, fmt.Errorf("mark %s unavailable: %w", subjectID, err)
		}
	}

	s.publish(ctx, event.ScheduleConfirmedPayload{
		ProposalID:       proposal.ID,
		ContextID:        proposal.ContextID,
		AssignedSubjects: assigned,
	})
	return Outcome{AssignedSubjects: assigned}, nil
}

// Reject records a governance decline of a proposed proposal and publishes
// the compensating schedule.assign_rejected event. Terminal proposals are
// left untouched.
func (s *Saga) Reject(ctx context.Context, proposalID, reason string) error {
	proposal, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	if proposal.Status.IsTerminal() {
		return nil
	}

	proposal.Status = schedule.StatusRejected
	proposal.UpdatedAt = s.clock().UTC()
	if err := s.proposals.PutProposal(ctx, proposal); err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}

	s.publish(ctx, event.ScheduleAssignRejectedPayload{
		ProposalID: proposal.ID,
		Reason:     reason,
	})
	return nil
}

// Cancel transitions a non-terminal proposal to cancelled and publishes
// schedule.cancelled. Cancelling a terminal proposal is a no-op with no
// event; cancellation has no roster side effects.
func (s *Saga) Cancel(ctx context.Context, proposalID, reason string) error {
	proposal, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	if proposal.Status.IsTerminal() {
		return nil
	}

	proposal.Status = schedule.StatusCancelled
	proposal.UpdatedAt = s.clock().UTC()
	if err := s.proposals.PutProposal(ctx, proposal); err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}

	s.publish(ctx, event.ScheduleCancelledPayload{
		ProposalID: proposal.ID,
		Reason:     reason,
	})
	return nil
}

// Complete releases a confirmed proposal's assignees back to the eligible
// pool. Completing a proposal in any other status is a no-op.
func (s *Saga) Complete(ctx context.Context, proposalID string) error {
	proposal, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	if proposal.Status != schedule.StatusConfirmed {
		return nil
	}

	for _, subjectID := range proposal.AssignedSubjects {
		err := s.eligible.SetEligible(ctx, proposal.ContextID, subjectID, true)
		if err != nil && perrors.CodeOf(err) != perrors.CodeRosterEntryMissing {
			return fmt.Errorf("release %s: %w", subjectID, err)
		}
	}
	return nil
}

// selectAssignment picks distinct candidates for each requirement in order.
// Candidates are considered in the order proposed and each one fills at most
// one requirement slot. A non-empty reason signals a staffing shortfall.
func (s *Saga) selectAssignment(ctx context.Context, proposal schedule.Proposal, candidateIDs []string) (assigned []string, reason string, err error) {
	used := make(map[string]bool, len(candidateIDs))

	for _, requirement := range proposal.Requirements {
		filled := 0
		for _, candidateID := range candidateIDs {
			if filled == requirement.Quantity || used[candidateID] {
				continue
			}
			entry, err := s.roster.GetRosterEntry(ctx, proposal.ContextID, candidateID)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, "", fmt.Errorf("read roster entry %s: %w", candidateID, err)
			}
			if !entry.Eligible {
				continue
			}
			if !skill.TierSatisfies(roster.SkillTier(entry, requirement.SkillID), requirement.MinimumTier) {
				continue
			}
			used[candidateID] = true
			assigned = append(assigned, candidateID)
			filled++
		}
		if filled < requirement.Quantity {
			return nil, fmt.Sprintf("requirement %s needs %d at tier %s or above, matched %d",
				requirement.SkillID, requirement.Quantity, requirement.MinimumTier, filled), nil
		}
	}
	return assigned, "", nil
}

func (s *Saga) loadProposal(ctx context.Context, proposalID string) (schedule.Proposal, error) {
	if strings.TrimSpace(proposalID) == "" {
		return schedule.Proposal{}, perrors.New(perrors.CodeScheduleEmptyProposalID, "proposal id is required")
	}
	proposal, err := s.proposals.GetProposal(ctx, proposalID)
	if errors.Is(err, storage.ErrNotFound) {
		return schedule.Proposal{}, perrors.WithMetadata(perrors.CodeScheduleProposalMissing,
			"proposal not found", map[string]string{"proposal_id": proposalID})
	}
	if err != nil {
		return schedule.Proposal{}, fmt.Errorf("read proposal: %w", err)
	}
	return proposal, nil
}

func (s *Saga) publish(ctx context.Context, payload event.Payload) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event.New(payload))
}

func terminalOutcome(proposal schedule.Proposal) Outcome {
	if proposal.Status == schedule.StatusConfirmed {
		return Outcome{AssignedSubjects: proposal.AssignedSubjects}
	}
	return Outcome{Rejected: true, Reason: fmt.Sprintf("proposal is %s", proposal.Status)}
}

func validateProposeInput(input ProposeInput) error {
	if strings.TrimSpace(input.ContextID) == "" {
		return perrors.New(perrors.CodeRosterEmptyContextID, "context id is required")
	}
	if len(input.Requirements) == 0 {
		return perrors.New(perrors.CodeScheduleNoRequirements, "at least one skill requirement is required")
	}
	for _, requirement := range input.Requirements {
		if strings.TrimSpace(requirement.SkillID) == "" {
			return perrors.New(perrors.CodeSkillEmptySkillID, "requirement skill id is required")
		}
		if _, ok := skill.ParseTier(string(requirement.MinimumTier)); !ok {
			return perrors.WithMetadata(perrors.CodeScheduleInvalidTierLabel,
				"unknown minimum tier", map[string]string{"tier": string(requirement.MinimumTier)})
		}
		if requirement.Quantity <= 0 {
			return perrors.New(perrors.CodeScheduleNoRequirements, "requirement quantity must be positive")
		}
	}
	return nil
}

func requirementPayloads(requirements []schedule.Requirement) []event.SkillRequirement {
	payloads := make([]event.SkillRequirement, 0, len(requirements))
	for _, requirement := range requirements {
		payloads = append(payloads, event.SkillRequirement{
			SkillID:     requirement.SkillID,
			MinimumTier: string(requirement.MinimumTier),
			Quantity:    requirement.Quantity,
		})
	}
	return payloads
}
