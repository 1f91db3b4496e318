package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stewardhq/steward/internal/schedule"
	"github.com/stewardhq/steward/internal/storage"
)

// PutProposal upserts one proposal row. Requirements and assignments are
// stored as JSON documents.
func (s *Store) PutProposal(ctx context.Context, proposal schedule.Proposal) error {
	requirementsJSON, err := json.Marshal(proposal.Requirements)
	if err != nil {
		return fmt.Errorf("marshal proposal requirements: %w", err)
	}
	assignedJSON, err := json.Marshal(proposal.AssignedSubjects)
	if err != nil {
		return fmt.Errorf("marshal proposal assignments: %w", err)
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT INTO schedule_proposals
		     (id, workspace_id, context_id, title, start_date, end_date, proposed_by,
		      requirements_json, status, assigned_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     status = excluded.status,
		     assigned_json = excluded.assigned_json,
		     updated_at = excluded.updated_at`,
		proposal.ID, proposal.WorkspaceID, proposal.ContextID, proposal.Title,
		proposal.StartDate, proposal.EndDate, proposal.ProposedBy,
		string(requirementsJSON), string(proposal.Status), string(assignedJSON),
		toMillis(proposal.CreatedAt), toMillis(proposal.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}
	return nil
}

// GetProposal returns storage.ErrNotFound for an unknown proposal id.
func (s *Store) GetProposal(ctx context.Context, proposalID string) (schedule.Proposal, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, workspace_id, context_id, title, start_date, end_date, proposed_by,
		        requirements_json, status, assigned_json, created_at, updated_at
		 FROM schedule_proposals WHERE id = ?`,
		proposalID,
	)
	proposal, err := scanProposal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Proposal{}, storage.ErrNotFound
	}
	if err != nil {
		return schedule.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}
	return proposal, nil
}

// ListProposalsByContext returns proposals ordered by creation time.
func (s *Store) ListProposalsByContext(ctx context.Context, contextID string) ([]schedule.Proposal, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, workspace_id, context_id, title, start_date, end_date, proposed_by,
		        requirements_json, status, assigned_json, created_at, updated_at
		 FROM schedule_proposals WHERE context_id = ? ORDER BY created_at, id`,
		contextID,
	)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []schedule.Proposal
	for rows.Next() {
		proposal, err := scanProposal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		proposals = append(proposals, proposal)
	}
	return proposals, rows.Err()
}

func scanProposal(scan func(...any) error) (schedule.Proposal, error) {
	var proposal schedule.Proposal
	var requirementsJSON, assignedJSON, status string
	var createdAtMillis, updatedAtMillis int64
	err := scan(
		&proposal.ID, &proposal.WorkspaceID, &proposal.ContextID, &proposal.Title,
		&proposal.StartDate, &proposal.EndDate, &proposal.ProposedBy,
		&requirementsJSON, &status, &assignedJSON, &createdAtMillis, &updatedAtMillis,
	)
	if err != nil {
		return schedule.Proposal{}, err
	}
	if err := json.Unmarshal([]byte(requirementsJSON), &proposal.Requirements); err != nil {
		return schedule.Proposal{}, fmt.Errorf("unmarshal proposal requirements: %w", err)
	}
	if err := json.Unmarshal([]byte(assignedJSON), &proposal.AssignedSubjects); err != nil {
		return schedule.Proposal{}, fmt.Errorf("unmarshal proposal assignments: %w", err)
	}
	proposal.Status = schedule.Status(status)
	proposal.CreatedAt = fromMillis(createdAtMillis)
	proposal.UpdatedAt = fromMillis(updatedAtMillis)
	return proposal, nil
}
