package sqlite

import (
	"context"
	"fmt"

	"github.com/stewardhq/steward/internal/notify"
)

// PutNotification records one notification. A record with the same
// (recipient, dedupe key) replaces the previous one.
func (s *Store) PutNotification(ctx context.Context, notification notify.Notification) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient_id, topic, payload_json, dedupe_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (recipient_id, dedupe_key) DO UPDATE SET
		     topic = excluded.topic,
		     payload_json = excluded.payload_json,
		     created_at = excluded.created_at`,
		notification.ID, notification.RecipientID, notification.Topic,
		notification.PayloadJSON, notification.DedupeKey, toMillis(notification.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

// ListNotifications returns a recipient's notifications in creation order.
func (s *Store) ListNotifications(ctx context.Context, recipientID string) ([]notify.Notification, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, recipient_id, topic, payload_json, dedupe_key, created_at FROM notifications
		 WHERE recipient_id = ? ORDER BY created_at, id`,
		recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []notify.Notification
	for rows.Next() {
		var notification notify.Notification
		var createdAtMillis int64
		err := rows.Scan(
			&notification.ID, &notification.RecipientID, &notification.Topic,
			&notification.PayloadJSON, &notification.DedupeKey, &createdAtMillis,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notification.CreatedAt = fromMillis(createdAtMillis)
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}
