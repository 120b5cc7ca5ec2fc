// Package scheduler turns recurring medication schedules into dated
// reminder instances and dispatches them when due. Reminders are stored as
// UTC instants; the configured local timezone is used to build them and to
// render user-facing labels.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/adnanqureshi/dosealert/internal/models"
	"github.com/adnanqureshi/dosealert/internal/storage"
	"github.com/adnanqureshi/dosealert/internal/timespec"
)

// EntryError records one time-of-day entry that could not be materialized.
type EntryError struct {
	Token string
	Err   error
}

// MaterializeResult distinguishes partial success from total failure: the
// entries that parsed are committed even when others fail.
type MaterializeResult struct {
	Created int
	Skipped bool
	Failed  []EntryError
}

// Materializer converts a medicine's time-of-day set into concrete pending
// reminders for the current reference date.
type Materializer struct {
	reminders storage.ReminderStore
	clock     Clock
	loc       *time.Location
	log       zerolog.Logger
}

func NewMaterializer(reminders storage.ReminderStore, clock Clock, loc *time.Location, log zerolog.Logger) *Materializer {
	return &Materializer{
		reminders: reminders,
		clock:     clock,
		loc:       loc,
		log:       log.With().Str("component", "materializer").Logger(),
	}
}

// Materialize replaces the medicine's pending reminders with freshly
// computed ones. A time-of-day that has already passed today targets
// tomorrow. The discard-then-recreate step makes repeated runs for the same
// day idempotent: at most one pending reminder exists per (medicine,
// time-of-day, day).
//
// Non-active medicines are skipped entirely; their previously materialized
// pending reminders are left to age out rather than being cancelled.
func (m *Materializer) Materialize(ctx context.Context, med *models.Medicine) (MaterializeResult, error) {
	if !med.IsActive() {
		return MaterializeResult{Skipped: true}, nil
	}

	now := m.clock.Now().In(m.loc)

	var (
		batch  []*models.Reminder
		result MaterializeResult
	)
	for _, raw := range med.Times {
		tod, err := timespec.Parse(raw)
		if err != nil {
			result.Failed = append(result.Failed, EntryError{Token: raw, Err: err})
			continue
		}

		candidate := tod.At(now, m.loc)
		if !candidate.After(now) {
			// Already passed today: target tomorrow.
			candidate = candidate.AddDate(0, 0, 1)
		}

		batch = append(batch, &models.Reminder{
			UserID:     med.UserID,
			MedicineID: med.MedicineID,
			RemindAt:   candidate.UTC(),
			Status:     models.ReminderStatusPending,
		})
	}

	// Committed even when some entries failed; an empty time set simply
	// clears the pending reminders.
	if err := m.reminders.ReplacePending(ctx, med.MedicineID, batch); err != nil {
		return result, err
	}
	result.Created = len(batch)

	for _, fe := range result.Failed {
		m.log.Warn().Int64("medicine_id", med.MedicineID).Str("entry", fe.Token).Msg("skipping unparsable time entry")
	}
	m.log.Debug().
		Int64("medicine_id", med.MedicineID).
		Int("created", result.Created).
		Int("failed", len(result.Failed)).
		Msg("materialized reminders")

	return result, nil
}

// InvalidatePending drops the medicine's pending reminders without
// recreating them, for completion and deletion paths.
func (m *Materializer) InvalidatePending(ctx context.Context, medicineID int64) error {
	return m.reminders.DeletePending(ctx, medicineID)
}
