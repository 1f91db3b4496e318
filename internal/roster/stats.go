package roster

import "time"

// ContextStats is a per-context summary read model. It is derived entirely
// from the roster projection, so re-deriving it after the same event is
// idempotent.
type ContextStats struct {
	ContextID      string
	MemberCount    int
	LastActivityAt time.Time
	UpdatedAt      time.Time
}
