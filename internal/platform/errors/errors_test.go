package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeSkillDeltaNotPositive, "delta must be positive")
	target := New(CodeSkillDeltaNotPositive, "different message")

	if !stderrors.Is(err, target) {
		t.Fatal("expected errors with the same code to match")
	}

	other := New(CodeSkillEmptySubjectID, "subject id is required")
	if stderrors.Is(err, other) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "append ledger entry", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be found in chain")
	}
	if err.Error() != "append ledger entry" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrappedDomainErrorSurvivesFmtErrorf(t *testing.T) {
	inner := New(CodeScheduleProposalMissing, "proposal not found")
	outer := fmt.Errorf("approve proposal: %w", inner)

	if !stderrors.Is(outer, New(CodeScheduleProposalMissing, "")) {
		t.Fatal("expected code match through fmt.Errorf wrapping")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeRosterEntryMissing, "missing")); got != CodeRosterEntryMissing {
		t.Fatalf("CodeOf domain error = %q", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf plain error = %q", got)
	}
}
