package sqlite

import (
	"context"
	"fmt"

	"github.com/stewardhq/steward/internal/event"
)

// AppendEvent journals evt and returns its assigned sequence number.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (uint64, error) {
	raw, err := event.MarshalPayload(evt.Payload)
	if err != nil {
		return 0, fmt.Errorf("marshal event payload: %w", err)
	}
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO events (event_type, payload, created_at) VALUES (?, ?, ?)`,
		string(evt.Type), string(raw), toMillis(evt.Timestamp),
	)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	return uint64(seq), nil
}

// ListEvents returns up to limit events with Seq > afterSeq in sequence order.
// A non-positive limit returns every remaining event.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	query := `SELECT seq, event_type, payload, created_at FROM events WHERE seq > ? ORDER BY seq`
	args := []any{int64(afterSeq)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var evt event.Event
		var eventType, payload string
		var createdAtMillis int64
		if err := rows.Scan(&evt.Seq, &eventType, &payload, &createdAtMillis); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Type = event.Type(eventType)
		evt.Timestamp = fromMillis(createdAtMillis)
		evt.Payload, err = event.UnmarshalPayload(evt.Type, []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("unmarshal event %d payload: %w", evt.Seq, err)
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}
