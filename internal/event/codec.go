package event

import (
	"encoding/json"
	"fmt"
)

// MarshalPayload encodes a payload to its JSON wire shape.
func MarshalPayload(payload Payload) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("event payload is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", payload.EventType(), err)
	}
	return raw, nil
}

// UnmarshalPayload decodes raw JSON into the payload struct bound to t. The
// switch is exhaustive over the closed type set; any other tag is an error.
func UnmarshalPayload(t Type, raw []byte) (Payload, error) {
	decode := func(target Payload) (Payload, error) {
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
		return target, nil
	}

	switch t {
	case TypeSkillXPAdded:
		payload, err := decode(&SkillXPAddedPayload{})
		if err != nil {
			return nil, err
		}
		return *payload.(*SkillXPAddedPayload), nil
	case TypeSkillXPDeducted:
		payload, err := decode(&SkillXPDeductedPayload{})
		if err != nil {
			return nil, err
		}
		return *payload.(*SkillXPDeductedPayload), nil
	case TypeMemberJoined:
		payload, err := decode(&MemberJoinedPayload{})
		if err != nil {
			return nil, err
		}
		return *payload.(*MemberJoinedPayload), nil
	case TypeMemberLeft:
		payload, err := decode(&MemberLeftPayload{})
		if err != nil {
			return nil, err
		}
		return *payload.(*MemberLeftPayload), nil
	case TypeScheduleProposed:
		payload, err := decode(&ScheduleProposedPayload{})
		if err != nil {
			return nil, err
		}
		return *payload.(*ScheduleProposedPayload), nil
	case TypeScheduleConfirmed:
		payload, err := decode(&ScheduleConfirmedPayload{})
		if err != nil {
			return nil, err
		}
		return *payload.(*ScheduleConfirmedPayload), nil
	case TypeScheduleAssignRejected:
		payload, err := decode(&ScheduleAssignRejectedPayload{})
		if err != nil {
			return nil, err
		}
		return *payload.(*ScheduleAssignRejectedPayload), nil
	case TypeScheduleCancelled:
		payload, err := decode(&ScheduleCancelledPayload{})
		if err != nil {
			return nil, err
		}
		return *payload.(*ScheduleCancelledPayload), nil
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}
}
