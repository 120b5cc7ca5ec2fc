package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/adnanqureshi/dosealert/internal/notify"
	"github.com/adnanqureshi/dosealert/internal/storage"
)

// DispatchReport summarizes one poll cycle.
type DispatchReport struct {
	Due     int // pending reminders found in the window
	Sent    int // delivered and committed sent
	Failed  int // delivery failed, left pending for retry
	Skipped int // integrity faults or lost CAS races
}

// Dispatcher is the fixed-cadence poller. Each cycle it scans the current
// minute window for due pending reminders, hands them to the sender in
// ascending scheduled order, and commits the pending→sent transition per
// instance.
type Dispatcher struct {
	reminders storage.ReminderStore
	medicines storage.MedicineStore
	users     storage.UserStore
	sender    notify.Sender
	clock     Clock
	loc       *time.Location

	// grace bounds late delivery: a reminder whose minute was missed (the
	// process was down, or a delivery kept failing) is still dispatched for
	// up to grace past its instant, then left for regeneration to replace.
	grace         time.Duration
	notifyTimeout time.Duration

	log zerolog.Logger
}

func NewDispatcher(
	reminders storage.ReminderStore,
	medicines storage.MedicineStore,
	users storage.UserStore,
	sender notify.Sender,
	clock Clock,
	loc *time.Location,
	grace, notifyTimeout time.Duration,
	log zerolog.Logger,
) *Dispatcher {
	if grace < 0 {
		grace = 0
	}
	return &Dispatcher{
		reminders:     reminders,
		medicines:     medicines,
		users:         users,
		sender:        sender,
		clock:         clock,
		loc:           loc,
		grace:         grace,
		notifyTimeout: notifyTimeout,
		log:           log.With().Str("component", "dispatcher").Logger(),
	}
}

// Window returns the dispatch window for the given instant:
// [floor(now, minute) − grace, floor(now, minute) + 1m).
func (d *Dispatcher) Window(now time.Time) (start, end time.Time) {
	minute := now.UTC().Truncate(time.Minute)
	return minute.Add(-d.grace), minute.Add(time.Minute)
}

// RunCycle executes one poll. Only the initial window query can fail the
// cycle as a whole; per-reminder faults are logged, counted, and skipped so
// one bad row never blocks the rest of the batch.
func (d *Dispatcher) RunCycle(ctx context.Context) (DispatchReport, error) {
	now := d.clock.Now().UTC()
	start, end := d.Window(now)

	due, err := d.reminders.FindPendingInWindow(ctx, start, end)
	if err != nil {
		return DispatchReport{}, err
	}

	report := DispatchReport{Due: len(due)}
	for _, rem := range due {
		log := d.log.With().Int64("reminder_id", rem.ReminderID).Int64("medicine_id", rem.MedicineID).Logger()

		user, err := d.users.GetByID(ctx, rem.UserID)
		if err != nil {
			report.Skipped++
			if errors.Is(err, storage.ErrNotFound) {
				log.Warn().Int64("user_id", rem.UserID).Msg("reminder owner missing, skipping")
			} else {
				log.Error().Err(err).Msg("failed to resolve reminder owner")
			}
			continue
		}

		med, err := d.medicines.GetByID(ctx, rem.MedicineID)
		if err != nil {
			report.Skipped++
			if errors.Is(err, storage.ErrNotFound) {
				log.Warn().Msg("reminder medicine missing, skipping")
			} else {
				log.Error().Err(err).Msg("failed to resolve medicine")
			}
			continue
		}

		localTime := rem.RemindAt.In(d.loc).Format("15:04")

		sendCtx, cancel := context.WithTimeout(ctx, d.notifyTimeout)
		err = d.sender.Send(sendCtx, user, med.Name, med.Dosage, localTime)
		cancel()
		if err != nil {
			// Left pending: retried on later cycles while still inside the
			// grace window. Permanent failures are only louder in the log;
			// the reminder still ages out with its window.
			report.Failed++
			if notify.IsPermanent(err) {
				log.Error().Err(err).Msg("permanent delivery failure")
			} else {
				log.Warn().Err(err).Msg("delivery failed, will retry next cycle")
			}
			continue
		}

		// Commit per instance so a crash mid-batch leaves only the
		// unprocessed remainder pending.
		ok, err := d.reminders.MarkSent(ctx, rem.ReminderID, now)
		if err != nil {
			report.Failed++
			log.Error().Err(err).Msg("failed to commit sent transition")
			continue
		}
		if !ok {
			report.Skipped++
			log.Warn().Msg("reminder no longer pending, concurrent dispatch assumed")
			continue
		}

		report.Sent++
		log.Info().Str("medicine", med.Name).Str("time", localTime).Msg("reminder dispatched")
	}

	if report.Due > 0 {
		d.log.Info().
			Int("due", report.Due).
			Int("sent", report.Sent).
			Int("failed", report.Failed).
			Int("skipped", report.Skipped).
			Msg("dispatch cycle complete")
	}
	return report, nil
}
