// Package memory holds an in-memory implementation of the storage
// interfaces. It backs the scheduler and service tests so they can exercise
// the full materialize/dispatch paths without a database. Mirroring the
// repository package, each entity gets its own store view; all views share
// the same data and lock.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/adnanqureshi/dosealert/internal/models"
	"github.com/adnanqureshi/dosealert/internal/storage"
)

type Store struct {
	mu sync.Mutex

	users     map[int64]*models.User
	medicines map[int64]*models.Medicine
	reminders map[int64]*models.Reminder

	nextUserID     int64
	nextMedicineID int64
	nextReminderID int64
}

func New() *Store {
	return &Store{
		users:     map[int64]*models.User{},
		medicines: map[int64]*models.Medicine{},
		reminders: map[int64]*models.Reminder{},
	}
}

func (s *Store) Users() *Users         { return &Users{s: s} }
func (s *Store) Medicines() *Medicines { return &Medicines{s: s} }
func (s *Store) Reminders() *Reminders { return &Reminders{s: s} }

// AddUser seeds a recipient and assigns its ID.
func (s *Store) AddUser(user *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	user.UserID = s.nextUserID
	cp := *user
	s.users[cp.UserID] = &cp
	return user
}

// GetReminder exposes raw reminder state to tests.
func (s *Store) GetReminder(reminderID int64) (*models.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rem, ok := s.reminders[reminderID]
	if !ok {
		return nil, false
	}
	cp := *rem
	return &cp, true
}

// ---- Users (storage.UserStore) ----

type Users struct {
	s *Store
}

func (u *Users) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// ---- Medicines (storage.MedicineStore) ----

type Medicines struct {
	s *Store
}

func (m *Medicines) Create(ctx context.Context, med *models.Medicine) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.nextMedicineID++
	med.MedicineID = m.s.nextMedicineID
	if med.CreatedAt.IsZero() {
		med.CreatedAt = time.Now().UTC()
	}
	med.UpdatedAt = med.CreatedAt
	m.s.medicines[med.MedicineID] = copyMedicine(med)
	return nil
}

func (m *Medicines) GetByID(ctx context.Context, medicineID int64) (*models.Medicine, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	med, ok := m.s.medicines[medicineID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyMedicine(med), nil
}

func (m *Medicines) GetByUserID(ctx context.Context, userID int64, status string) ([]*models.Medicine, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Medicine
	for _, med := range m.s.medicines {
		if med.UserID == userID && (status == "" || med.Status == status) {
			out = append(out, copyMedicine(med))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MedicineID < out[j].MedicineID })
	return out, nil
}

func (m *Medicines) FindActiveDuplicate(ctx context.Context, userID int64, name, dosage string) (*models.Medicine, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var found *models.Medicine
	for _, med := range m.s.medicines {
		if med.UserID == userID && med.Name == name && med.Dosage == dosage && med.Status == models.MedicineStatusActive {
			if found == nil || med.MedicineID < found.MedicineID {
				found = med
			}
		}
	}
	if found == nil {
		return nil, storage.ErrNotFound
	}
	return copyMedicine(found), nil
}

func (m *Medicines) FindActive(ctx context.Context) ([]*models.Medicine, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Medicine
	for _, med := range m.s.medicines {
		if med.Status == models.MedicineStatusActive {
			out = append(out, copyMedicine(med))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MedicineID < out[j].MedicineID })
	return out, nil
}

func (m *Medicines) Update(ctx context.Context, med *models.Medicine) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.medicines[med.MedicineID]
	if !ok || existing.UserID != med.UserID {
		return storage.ErrNotFound
	}
	med.UpdatedAt = time.Now().UTC()
	m.s.medicines[med.MedicineID] = copyMedicine(med)
	return nil
}

func (m *Medicines) SetStatus(ctx context.Context, medicineID, userID int64, status string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	med, ok := m.s.medicines[medicineID]
	if !ok || med.UserID != userID {
		return storage.ErrNotFound
	}
	med.Status = status
	med.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Medicines) Delete(ctx context.Context, medicineID, userID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	med, ok := m.s.medicines[medicineID]
	if !ok || med.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.s.medicines, medicineID)
	for id, rem := range m.s.reminders {
		if rem.MedicineID == medicineID {
			delete(m.s.reminders, id)
		}
	}
	return nil
}

// ---- Reminders (storage.ReminderStore) ----

type Reminders struct {
	s *Store
}

func (r *Reminders) ReplacePending(ctx context.Context, medicineID int64, batch []*models.Reminder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, rem := range r.s.reminders {
		if rem.MedicineID == medicineID && rem.Status == models.ReminderStatusPending {
			delete(r.s.reminders, id)
		}
	}
	for _, rem := range batch {
		r.s.nextReminderID++
		rem.ReminderID = r.s.nextReminderID
		rem.Status = models.ReminderStatusPending
		if rem.CreatedAt.IsZero() {
			rem.CreatedAt = time.Now().UTC()
		}
		cp := *rem
		r.s.reminders[cp.ReminderID] = &cp
	}
	return nil
}

func (r *Reminders) FindPendingInWindow(ctx context.Context, start, end time.Time) ([]*models.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Reminder
	for _, rem := range r.s.reminders {
		if rem.Status != models.ReminderStatusPending {
			continue
		}
		if rem.RemindAt.Before(start) || !rem.RemindAt.Before(end) {
			continue
		}
		cp := *rem
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RemindAt.Equal(out[j].RemindAt) {
			return out[i].RemindAt.Before(out[j].RemindAt)
		}
		return out[i].ReminderID < out[j].ReminderID
	})
	return out, nil
}

func (r *Reminders) FindPendingFor(ctx context.Context, medicineID int64) ([]*models.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Reminder
	for _, rem := range r.s.reminders {
		if rem.MedicineID == medicineID && rem.Status == models.ReminderStatusPending {
			cp := *rem
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemindAt.Before(out[j].RemindAt) })
	return out, nil
}

func (r *Reminders) DeletePending(ctx context.Context, medicineID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, rem := range r.s.reminders {
		if rem.MedicineID == medicineID && rem.Status == models.ReminderStatusPending {
			delete(r.s.reminders, id)
		}
	}
	return nil
}

func (r *Reminders) MarkSent(ctx context.Context, reminderID int64, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rem, ok := r.s.reminders[reminderID]
	if !ok || rem.Status != models.ReminderStatusPending {
		return false, nil
	}
	rem.Status = models.ReminderStatusSent
	sentAt := at
	rem.SentAt = &sentAt
	return true, nil
}

func (r *Reminders) MarkAcknowledged(ctx context.Context, reminderID, userID int64, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rem, ok := r.s.reminders[reminderID]
	if !ok || rem.UserID != userID || rem.Status != models.ReminderStatusSent {
		return false, nil
	}
	rem.Status = models.ReminderStatusAcknowledged
	ackAt := at
	rem.AcknowledgedAt = &ackAt
	return true, nil
}

func (r *Reminders) Upcoming(ctx context.Context, userID int64, from time.Time, limit int) ([]*models.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Reminder
	for _, rem := range r.s.reminders {
		if rem.UserID == userID && rem.Status == models.ReminderStatusPending && !rem.RemindAt.Before(from) {
			cp := *rem
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemindAt.Before(out[j].RemindAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyMedicine(med *models.Medicine) *models.Medicine {
	cp := *med
	cp.Times = append([]string(nil), med.Times...)
	return &cp
}
