package models

import "time"

// Reminder statuses. A reminder moves pending→sent exactly once, via the
// dispatch poller's conditional update, and sent→acknowledged only through
// the acknowledgement path.
const (
	ReminderStatusPending      = "pending"
	ReminderStatusSent         = "sent"
	ReminderStatusAcknowledged = "acknowledged"
)

// Reminder is one concrete, dated occurrence materialized from a Medicine.
// RemindAt is always a UTC instant; conversion to the scheduler's local
// timezone happens only at the display boundary.
type Reminder struct {
	ReminderID     int64      `json:"reminder_id"`
	UserID         int64      `json:"user_id"`
	MedicineID     int64      `json:"medicine_id"`
	RemindAt       time.Time  `json:"remind_at"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (r *Reminder) IsPending() bool {
	return r.Status == ReminderStatusPending
}
