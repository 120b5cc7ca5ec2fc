// Package storage defines the persistence interfaces consumed by the
// scheduler and the medicine service. The Postgres implementation lives in
// internal/repository; internal/storage/memory provides an in-memory
// implementation for tests.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/adnanqureshi/dosealert/internal/models"
)

// ErrNotFound is returned when a row does not exist. During dispatch a
// missing owner or medicine is a data-integrity fault: the instance is
// skipped and reported, never dispatched.
var ErrNotFound = errors.New("storage: not found")

// MedicineStore persists recurring medication schedules.
type MedicineStore interface {
	Create(ctx context.Context, med *models.Medicine) error
	GetByID(ctx context.Context, medicineID int64) (*models.Medicine, error)
	GetByUserID(ctx context.Context, userID int64, status string) ([]*models.Medicine, error)
	// FindActiveDuplicate looks up an active medicine with the same
	// (owner, name, dosage) identity tuple. Returns ErrNotFound when the
	// submission is genuinely new.
	FindActiveDuplicate(ctx context.Context, userID int64, name, dosage string) (*models.Medicine, error)
	FindActive(ctx context.Context) ([]*models.Medicine, error)
	Update(ctx context.Context, med *models.Medicine) error
	SetStatus(ctx context.Context, medicineID, userID int64, status string) error
	Delete(ctx context.Context, medicineID, userID int64) error
}

// ReminderStore persists materialized reminder instances.
type ReminderStore interface {
	// ReplacePending atomically discards the medicine's pending reminders
	// and inserts the given batch. Sent and acknowledged rows are never
	// touched: history is immutable.
	ReplacePending(ctx context.Context, medicineID int64, batch []*models.Reminder) error
	// FindPendingInWindow returns pending reminders with
	// start <= remind_at < end, ascending by remind_at.
	FindPendingInWindow(ctx context.Context, start, end time.Time) ([]*models.Reminder, error)
	FindPendingFor(ctx context.Context, medicineID int64) ([]*models.Reminder, error)
	DeletePending(ctx context.Context, medicineID int64) error
	// MarkSent transitions pending→sent. The update is conditional on the
	// row still being pending, so two overlapping poll cycles cannot both
	// claim the same reminder; false means another writer got there first.
	MarkSent(ctx context.Context, reminderID int64, at time.Time) (bool, error)
	// MarkAcknowledged transitions sent→acknowledged, conditionally.
	MarkAcknowledged(ctx context.Context, reminderID, userID int64, at time.Time) (bool, error)
	Upcoming(ctx context.Context, userID int64, from time.Time, limit int) ([]*models.Reminder, error)
}

// UserStore resolves reminder recipients.
type UserStore interface {
	GetByID(ctx context.Context, userID int64) (*models.User, error)
}
