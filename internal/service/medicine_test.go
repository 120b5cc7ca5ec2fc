package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adnanqureshi/dosealert/internal/models"
	"github.com/adnanqureshi/dosealert/internal/scheduler"
	"github.com/adnanqureshi/dosealert/internal/storage"
	"github.com/adnanqureshi/dosealert/internal/storage/memory"
)

var pkt = time.FixedZone("PKT", 5*3600)

func newTestService(store *memory.Store, now time.Time) *MedicineService {
	clock := scheduler.FixedClock{T: now}
	mat := scheduler.NewMaterializer(store.Reminders(), clock, pkt, zerolog.Nop())
	return NewMedicineService(store.Medicines(), store.Reminders(), mat, clock, pkt, zerolog.Nop())
}

func TestCreateOrMergeConvergesOnOneSchedule(t *testing.T) {
	store := memory.New()
	user := store.AddUser(&models.User{Email: "sana@example.com", Username: "sana"})
	now := time.Date(2024, 1, 10, 6, 0, 0, 0, pkt)
	svc := newTestService(store, now)
	ctx := context.Background()

	first, err := svc.CreateOrMerge(ctx, CreateInput{UserID: user.UserID, Name: "Panadol", Dosage: "500mg", Times: []string{"09:00"}})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.Merged {
		t.Fatal("first submission must not be a merge")
	}

	second, err := svc.CreateOrMerge(ctx, CreateInput{UserID: user.UserID, Name: "Panadol", Dosage: "500mg", Times: []string{"21:00"}})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !second.Merged {
		t.Fatal("duplicate submission must merge")
	}
	if second.Medicine.MedicineID != first.Medicine.MedicineID {
		t.Fatal("merge must reuse the existing schedule")
	}

	all, _ := store.Medicines().GetByUserID(ctx, user.UserID, "")
	if len(all) != 1 {
		t.Fatalf("expected exactly one schedule, got %d", len(all))
	}
	got := all[0].Times
	if len(got) != 2 || got[0] != "09:00" || got[1] != "21:00" {
		t.Fatalf("expected merged times [09:00 21:00], got %v", got)
	}

	// Reminder count equals the distinct time-of-day count, never more.
	pending, _ := store.Reminders().FindPendingFor(ctx, first.Medicine.MedicineID)
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending reminders after merge, got %d", len(pending))
	}
}

func TestCreateOrMergeDeduplicatesTimes(t *testing.T) {
	store := memory.New()
	user := store.AddUser(&models.User{Email: "sana@example.com", Username: "sana"})
	svc := newTestService(store, time.Date(2024, 1, 10, 6, 0, 0, 0, pkt))

	// 9:00 AM and 09:00 are the same time of day.
	result, err := svc.CreateOrMerge(context.Background(), CreateInput{
		UserID: user.UserID, Name: "Panadol", Dosage: "500mg",
		Times: []string{"9:00 AM", "09:00", "21:00"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(result.Medicine.Times) != 2 {
		t.Fatalf("expected deduplicated times, got %v", result.Medicine.Times)
	}
}

func TestCreateOrMergeAcceptsPartialTimes(t *testing.T) {
	store := memory.New()
	user := store.AddUser(&models.User{Email: "sana@example.com", Username: "sana"})
	svc := newTestService(store, time.Date(2024, 1, 10, 6, 0, 0, 0, pkt))

	result, err := svc.CreateOrMerge(context.Background(), CreateInput{
		UserID: user.UserID, Name: "Panadol", Dosage: "500mg",
		Times: []string{"09:00", "half past nine", "21:00"},
	})
	if err != nil {
		t.Fatalf("partial input must not fail the batch: %v", err)
	}
	if len(result.InvalidTimes) != 1 || result.InvalidTimes[0] != "half past nine" {
		t.Fatalf("expected the bad entry reported, got %v", result.InvalidTimes)
	}
	if len(result.Medicine.Times) != 2 {
		t.Fatalf("valid times must still be accepted, got %v", result.Medicine.Times)
	}
}

func TestCreateOrMergeRejectsAllInvalidTimes(t *testing.T) {
	store := memory.New()
	user := store.AddUser(&models.User{Email: "sana@example.com", Username: "sana"})
	svc := newTestService(store, time.Date(2024, 1, 10, 6, 0, 0, 0, pkt))

	result, err := svc.CreateOrMerge(context.Background(), CreateInput{
		UserID: user.UserID, Name: "Panadol", Dosage: "500mg",
		Times: []string{"morning", "night"},
	})
	if !errors.Is(err, ErrNoValidTimes) {
		t.Fatalf("expected ErrNoValidTimes, got %v", err)
	}
	if len(result.InvalidTimes) != 2 {
		t.Fatalf("expected both bad entries reported, got %v", result.InvalidTimes)
	}
}

func TestUpdateTimesRematerializes(t *testing.T) {
	store := memory.New()
	user := store.AddUser(&models.User{Email: "sana@example.com", Username: "sana"})
	now := time.Date(2024, 1, 10, 6, 0, 0, 0, pkt)
	svc := newTestService(store, now)
	ctx := context.Background()

	created, err := svc.CreateOrMerge(ctx, CreateInput{UserID: user.UserID, Name: "Panadol", Dosage: "500mg", Times: []string{"09:00", "21:00"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, user.UserID, created.Medicine.MedicineID, UpdateInput{Times: []string{"12:00"}}); err != nil {
		t.Fatalf("update: %v", err)
	}

	pending, _ := store.Reminders().FindPendingFor(ctx, created.Medicine.MedicineID)
	if len(pending) != 1 {
		t.Fatalf("expected old pending reminders replaced, got %d", len(pending))
	}
	want := time.Date(2024, 1, 10, 12, 0, 0, 0, pkt).UTC()
	if !pending[0].RemindAt.Equal(want) {
		t.Fatalf("reminder at %v, want %v", pending[0].RemindAt, want)
	}
}

func TestSetStatusLifecycle(t *testing.T) {
	store := memory.New()
	user := store.AddUser(&models.User{Email: "sana@example.com", Username: "sana"})
	now := time.Date(2024, 1, 10, 6, 0, 0, 0, pkt)
	svc := newTestService(store, now)
	ctx := context.Background()

	created, err := svc.CreateOrMerge(ctx, CreateInput{UserID: user.UserID, Name: "Panadol", Dosage: "500mg", Times: []string{"09:00"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	medID := created.Medicine.MedicineID

	// Pausing leaves the pending reminder to age out.
	if err := svc.SetStatus(ctx, user.UserID, medID, models.MedicineStatusPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}
	pending, _ := store.Reminders().FindPendingFor(ctx, medID)
	if len(pending) != 1 {
		t.Fatalf("pause must not cancel pending reminders, got %d", len(pending))
	}

	// Completion invalidates them.
	if err := svc.SetStatus(ctx, user.UserID, medID, models.MedicineStatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	pending, _ = store.Reminders().FindPendingFor(ctx, medID)
	if len(pending) != 0 {
		t.Fatalf("completion must invalidate pending reminders, got %d", len(pending))
	}

	// Re-activation materializes fresh ones.
	if err := svc.SetStatus(ctx, user.UserID, medID, models.MedicineStatusActive); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	pending, _ = store.Reminders().FindPendingFor(ctx, medID)
	if len(pending) != 1 {
		t.Fatalf("reactivation must rematerialize, got %d", len(pending))
	}

	if err := svc.SetStatus(ctx, user.UserID, medID, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestUpcomingRemindersLocalized(t *testing.T) {
	store := memory.New()
	user := store.AddUser(&models.User{Email: "sana@example.com", Username: "sana"})
	now := time.Date(2024, 1, 10, 6, 0, 0, 0, pkt)
	svc := newTestService(store, now)
	ctx := context.Background()

	if _, err := svc.CreateOrMerge(ctx, CreateInput{UserID: user.UserID, Name: "Panadol", Dosage: "500mg", Times: []string{"21:00", "09:00"}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	upcoming, err := svc.UpcomingReminders(ctx, user.UserID, 10)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(upcoming) != 2 {
		t.Fatalf("expected 2 upcoming reminders, got %d", len(upcoming))
	}
	if upcoming[0].TimeOnly != "09:00" || upcoming[1].TimeOnly != "21:00" {
		t.Fatalf("expected ascending localized times, got %+v", upcoming)
	}
	if upcoming[0].RemindAt != "2024-01-10 09:00" {
		t.Fatalf("unexpected localized timestamp %q", upcoming[0].RemindAt)
	}
	if upcoming[0].MedicineName != "Panadol" || upcoming[0].Dosage != "500mg" {
		t.Fatalf("unexpected payload %+v", upcoming[0])
	}
}

func TestAcknowledgeOnlySentReminders(t *testing.T) {
	store := memory.New()
	user := store.AddUser(&models.User{Email: "sana@example.com", Username: "sana"})
	now := time.Date(2024, 1, 10, 6, 0, 0, 0, pkt)
	svc := newTestService(store, now)
	ctx := context.Background()

	created, err := svc.CreateOrMerge(ctx, CreateInput{UserID: user.UserID, Name: "Panadol", Dosage: "500mg", Times: []string{"09:00"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pending, _ := store.Reminders().FindPendingFor(ctx, created.Medicine.MedicineID)
	remID := pending[0].ReminderID

	// Still pending: not acknowledgeable.
	if ok, err := svc.Acknowledge(ctx, user.UserID, remID); err != nil || ok {
		t.Fatalf("pending reminder must not acknowledge, ok=%v err=%v", ok, err)
	}

	if ok, _ := store.Reminders().MarkSent(ctx, remID, now.UTC()); !ok {
		t.Fatal("mark sent failed")
	}
	if ok, err := svc.Acknowledge(ctx, user.UserID, remID); err != nil || !ok {
		t.Fatalf("sent reminder must acknowledge, ok=%v err=%v", ok, err)
	}
	// Idempotence: a second acknowledge is a no-op.
	if ok, _ := svc.Acknowledge(ctx, user.UserID, remID); ok {
		t.Fatal("second acknowledge must report false")
	}

	got, _ := store.GetReminder(remID)
	if got.Status != models.ReminderStatusAcknowledged || got.AcknowledgedAt == nil {
		t.Fatalf("unexpected final state %+v", got)
	}
}

func TestUpdateVanishedMedicineReturnsNotFound(t *testing.T) {
	store := memory.New()
	user := store.AddUser(&models.User{Email: "sana@example.com", Username: "sana"})
	now := time.Date(2024, 1, 10, 6, 0, 0, 0, pkt)
	svc := newTestService(store, now)
	ctx := context.Background()

	created, err := svc.CreateOrMerge(ctx, CreateInput{UserID: user.UserID, Name: "Panadol", Dosage: "500mg", Times: []string{"09:00"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	medID := created.Medicine.MedicineID
	if err := store.Medicines().Delete(ctx, medID, user.UserID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	dosage := "250mg"
	if _, err := svc.Update(ctx, user.UserID, medID, UpdateInput{Dosage: &dosage}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want storage.ErrNotFound, got %v", err)
	}
	// Same contract for a medicine owned by someone else.
	other := store.AddUser(&models.User{Email: "omar@example.com", Username: "omar"})
	created2, err := svc.CreateOrMerge(ctx, CreateInput{UserID: other.UserID, Name: "Brufen", Dosage: "400mg", Times: []string{"21:00"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, user.UserID, created2.Medicine.MedicineID, UpdateInput{Dosage: &dosage}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want storage.ErrNotFound for foreign medicine, got %v", err)
	}
}
