// Package notify holds notification records routed from schedule outcomes.
// Delivery transport is out of scope; this package only records what should
// be delivered and to whom.
package notify

import "time"

// Topics routed by the notification router.
const (
	TopicScheduleConfirmed = "schedule.confirmed"
	TopicScheduleRejected  = "schedule.rejected"
)

// Notification captures one recipient-targeted notification item.
type Notification struct {
	ID          string
	RecipientID string
	Topic       string
	PayloadJSON string
	// DedupeKey collapses repeated routing of the same outcome.
	DedupeKey string
	CreatedAt time.Time
}
