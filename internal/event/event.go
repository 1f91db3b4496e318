// Package event defines the closed set of domain events and their envelope.
//
// Every published event belongs to one of the Type constants below, and each
// payload struct binds its type tag statically through the Payload interface.
// Components that carry events depend on this contract, not on bare strings,
// so an unknown event kind cannot be constructed outside this package.
package event

import (
	"strings"
	"time"
)

// Type identifies the kind of a domain event.
type Type string

// Skill events.
const (
	// TypeSkillXPAdded records an XP credit applied to a (subject, skill) pair.
	TypeSkillXPAdded Type = "skill.xp_added"
	// TypeSkillXPDeducted records an XP debit applied to a (subject, skill) pair.
	TypeSkillXPDeducted Type = "skill.xp_deducted"
)

// Membership events.
const (
	// TypeMemberJoined records a subject joining a governance context.
	TypeMemberJoined Type = "member.joined"
	// TypeMemberLeft records a subject leaving a governance context.
	TypeMemberLeft Type = "member.left"
)

// Schedule events.
const (
	// TypeScheduleProposed records a workspace proposing a schedule item.
	TypeScheduleProposed Type = "schedule.proposed"
	// TypeScheduleConfirmed records a proposal reaching its confirmed state.
	TypeScheduleConfirmed Type = "schedule.confirmed"
	// TypeScheduleAssignRejected is the compensating event for a failed assignment.
	TypeScheduleAssignRejected Type = "schedule.assign_rejected"
	// TypeScheduleCancelled records a proposal cancelled by the proposing party.
	TypeScheduleCancelled Type = "schedule.cancelled"
)

// Types lists every event type in this package.
func Types() []Type {
	return []Type{
		TypeSkillXPAdded,
		TypeSkillXPDeducted,
		TypeMemberJoined,
		TypeMemberLeft,
		TypeScheduleProposed,
		TypeScheduleConfirmed,
		TypeScheduleAssignRejected,
		TypeScheduleCancelled,
	}
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the event type (e.g., "skill", "schedule").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}

// Payload is the contract every event payload satisfies. EventType binds the
// payload shape to its type tag at compile time.
type Payload interface {
	EventType() Type
}

// Event is the immutable envelope carried by the bus and the journal.
type Event struct {
	// Seq is the event sequence number within the scope (starts at 1).
	// Assigned by the journal on append; zero for events not yet recorded.
	Seq uint64
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Type identifies the kind of event. It always equals Payload.EventType().
	Type Type
	// Payload holds the event-specific data.
	Payload Payload
}

// New builds an envelope around payload, stamping the type tag from the
// payload itself.
func New(payload Payload) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      payload.EventType(),
		Payload:   payload,
	}
}
