// Package service implements the schedule-facing operations the API layer
// calls: create-or-merge, updates, lifecycle changes, and the reminder
// queries. Every mutation that changes the time set triggers immediate
// rematerialization instead of waiting for the daily job.
package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adnanqureshi/dosealert/internal/models"
	"github.com/adnanqureshi/dosealert/internal/scheduler"
	"github.com/adnanqureshi/dosealert/internal/storage"
	"github.com/adnanqureshi/dosealert/internal/timespec"
)

var (
	ErrNameRequired   = errors.New("service: medicine name is required")
	ErrDosageRequired = errors.New("service: dosage is required")
	ErrNoValidTimes   = errors.New("service: no valid reminder times")
	ErrInvalidStatus  = errors.New("service: invalid medicine status")
)

type MedicineService struct {
	medicines storage.MedicineStore
	reminders storage.ReminderStore
	mat       *scheduler.Materializer
	clock     scheduler.Clock
	loc       *time.Location
	log       zerolog.Logger
}

func NewMedicineService(
	medicines storage.MedicineStore,
	reminders storage.ReminderStore,
	mat *scheduler.Materializer,
	clock scheduler.Clock,
	loc *time.Location,
	log zerolog.Logger,
) *MedicineService {
	return &MedicineService{
		medicines: medicines,
		reminders: reminders,
		mat:       mat,
		clock:     clock,
		loc:       loc,
		log:       log.With().Str("component", "medicine_service").Logger(),
	}
}

type CreateInput struct {
	UserID       int64
	Name         string
	Dosage       string
	Instructions string
	Times        []string // free-form; each entry may itself be a list
}

// CreateResult reports what happened to a submission. InvalidTimes lists
// the exact entries that failed to parse; the valid ones are accepted and
// scheduled regardless.
type CreateResult struct {
	Medicine     *models.Medicine
	Merged       bool
	InvalidTimes []string
}

// CreateOrMerge submits a schedule. If an active medicine with the same
// (owner, name, dosage) already exists, the time sets are unioned onto it
// and the call behaves as an update — resubmitting the same medicine twice
// converges on one schedule, never two.
func (s *MedicineService) CreateOrMerge(ctx context.Context, in CreateInput) (CreateResult, error) {
	name := strings.TrimSpace(in.Name)
	dosage := strings.TrimSpace(in.Dosage)
	if name == "" {
		return CreateResult{}, ErrNameRequired
	}
	if dosage == "" {
		return CreateResult{}, ErrDosageRequired
	}

	times, invalid, err := normalizeTimes(in.Times)
	if err != nil {
		return CreateResult{InvalidTimes: invalid}, err
	}

	existing, err := s.medicines.FindActiveDuplicate(ctx, in.UserID, name, dosage)
	switch {
	case err == nil:
		existing.Times = unionTimes(existing.Times, times)
		if err := s.medicines.Update(ctx, existing); err != nil {
			return CreateResult{InvalidTimes: invalid}, err
		}
		if _, err := s.mat.Materialize(ctx, existing); err != nil {
			return CreateResult{InvalidTimes: invalid}, err
		}
		s.log.Info().Int64("medicine_id", existing.MedicineID).Strs("times", existing.Times).Msg("merged duplicate medicine")
		return CreateResult{Medicine: existing, Merged: true, InvalidTimes: invalid}, nil

	case errors.Is(err, storage.ErrNotFound):
		med := &models.Medicine{
			UserID:       in.UserID,
			Name:         name,
			Dosage:       dosage,
			Times:        times,
			Status:       models.MedicineStatusActive,
			Instructions: strings.TrimSpace(in.Instructions),
		}
		if err := s.medicines.Create(ctx, med); err != nil {
			return CreateResult{InvalidTimes: invalid}, err
		}
		if _, err := s.mat.Materialize(ctx, med); err != nil {
			return CreateResult{InvalidTimes: invalid}, err
		}
		s.log.Info().Int64("medicine_id", med.MedicineID).Strs("times", med.Times).Msg("created medicine")
		return CreateResult{Medicine: med, InvalidTimes: invalid}, nil

	default:
		return CreateResult{InvalidTimes: invalid}, err
	}
}

type UpdateInput struct {
	Name         *string
	Dosage       *string
	Instructions *string
	Times        []string // nil = unchanged
}

// Update edits a medicine. A changed time set discards the pending
// reminders and rematerializes immediately.
func (s *MedicineService) Update(ctx context.Context, userID, medicineID int64, in UpdateInput) (CreateResult, error) {
	med, err := s.medicines.GetByID(ctx, medicineID)
	if err != nil {
		return CreateResult{}, err
	}
	if med.UserID != userID {
		return CreateResult{}, storage.ErrNotFound
	}

	if in.Name != nil {
		med.Name = strings.TrimSpace(*in.Name)
		if med.Name == "" {
			return CreateResult{}, ErrNameRequired
		}
	}
	if in.Dosage != nil {
		med.Dosage = strings.TrimSpace(*in.Dosage)
		if med.Dosage == "" {
			return CreateResult{}, ErrDosageRequired
		}
	}
	if in.Instructions != nil {
		med.Instructions = strings.TrimSpace(*in.Instructions)
	}

	var invalid []string
	timesChanged := false
	if in.Times != nil {
		times, inv, err := normalizeTimes(in.Times)
		if err != nil {
			return CreateResult{InvalidTimes: inv}, err
		}
		med.Times = times
		invalid = inv
		timesChanged = true
	}

	if err := s.medicines.Update(ctx, med); err != nil {
		return CreateResult{InvalidTimes: invalid}, err
	}
	if timesChanged {
		if _, err := s.mat.Materialize(ctx, med); err != nil {
			return CreateResult{InvalidTimes: invalid}, err
		}
	}
	return CreateResult{Medicine: med, InvalidTimes: invalid}, nil
}

// SetStatus changes the lifecycle state. Pausing leaves existing pending
// reminders to age out; completing invalidates them; re-activating
// materializes fresh ones.
func (s *MedicineService) SetStatus(ctx context.Context, userID, medicineID int64, status string) error {
	switch status {
	case models.MedicineStatusActive, models.MedicineStatusPaused, models.MedicineStatusCompleted:
	default:
		return ErrInvalidStatus
	}

	if err := s.medicines.SetStatus(ctx, medicineID, userID, status); err != nil {
		return err
	}

	switch status {
	case models.MedicineStatusCompleted:
		return s.mat.InvalidatePending(ctx, medicineID)
	case models.MedicineStatusActive:
		med, err := s.medicines.GetByID(ctx, medicineID)
		if err != nil {
			return err
		}
		_, err = s.mat.Materialize(ctx, med)
		return err
	}
	return nil
}

func (s *MedicineService) Delete(ctx context.Context, userID, medicineID int64) error {
	return s.medicines.Delete(ctx, medicineID, userID)
}

func (s *MedicineService) List(ctx context.Context, userID int64, status string) ([]*models.Medicine, error) {
	return s.medicines.GetByUserID(ctx, userID, status)
}

// UpcomingReminder is a pending reminder localized for display.
type UpcomingReminder struct {
	ReminderID   int64  `json:"reminder_id"`
	MedicineName string `json:"medicine_name"`
	Dosage       string `json:"dosage"`
	RemindAt     string `json:"remind_at"` // local "2006-01-02 15:04"
	TimeOnly     string `json:"time_only"` // local "15:04"
}

// UpcomingReminders lists the user's next pending reminders from now,
// ascending, with times rendered in the scheduler's local timezone.
func (s *MedicineService) UpcomingReminders(ctx context.Context, userID int64, limit int) ([]UpcomingReminder, error) {
	now := s.clock.Now().UTC()
	reminders, err := s.reminders.Upcoming(ctx, userID, now, limit)
	if err != nil {
		return nil, err
	}

	out := make([]UpcomingReminder, 0, len(reminders))
	for _, rem := range reminders {
		med, err := s.medicines.GetByID(ctx, rem.MedicineID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		local := rem.RemindAt.In(s.loc)
		out = append(out, UpcomingReminder{
			ReminderID:   rem.ReminderID,
			MedicineName: med.Name,
			Dosage:       med.Dosage,
			RemindAt:     local.Format("2006-01-02 15:04"),
			TimeOnly:     local.Format("15:04"),
		})
	}
	return out, nil
}

// Acknowledge records the user's confirmation of a sent reminder. Returns
// false when the reminder is not in the sent state (already acknowledged,
// still pending, or not the user's).
func (s *MedicineService) Acknowledge(ctx context.Context, userID, reminderID int64) (bool, error) {
	return s.reminders.MarkAcknowledged(ctx, reminderID, userID, s.clock.Now().UTC())
}

// normalizeTimes parses the submitted entries into canonical sorted "HH:MM"
// strings. Invalid entries are collected, not fatal — unless nothing valid
// remains at all.
func normalizeTimes(entries []string) (times []string, invalid []string, err error) {
	parsed, perr := timespec.ParseEntries(entries)
	if perr != nil {
		var batch *timespec.BatchError
		if errors.As(perr, &batch) {
			invalid = batch.Tokens()
		} else {
			return nil, nil, perr
		}
	}
	if len(parsed) == 0 && len(invalid) > 0 {
		return nil, invalid, ErrNoValidTimes
	}
	return timespec.Strings(parsed), invalid, nil
}

// unionTimes merges two canonical time sets, sorted and unique. Canonical
// "HH:MM" strings order lexically in chronological order.
func unionTimes(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range append(append([]string{}, a...), b...) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
