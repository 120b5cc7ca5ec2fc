package models

import "time"

// Medicine statuses.
const (
	MedicineStatusActive    = "active"
	MedicineStatusPaused    = "paused"
	MedicineStatusCompleted = "completed"
)

// Medicine is a recurring medication schedule: one or more times of day,
// every day. The (UserID, Name, Dosage) tuple identifies "the same
// schedule" for merge-on-duplicate.
type Medicine struct {
	MedicineID   int64     `json:"medicine_id"`
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"`
	Times        []string  `json:"times"` // canonical "HH:MM", sorted, unique
	Status       string    `json:"status"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (m *Medicine) IsActive() bool {
	return m.Status == MedicineStatusActive
}
