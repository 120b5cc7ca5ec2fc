package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adnanqureshi/dosealert/internal/database"
	"github.com/adnanqureshi/dosealert/internal/models"
)

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// ReplacePending discards the medicine's pending reminders and inserts the
// new batch in a single transaction, so regeneration can never leave the
// medicine half-replaced. Sent and acknowledged rows are untouched.
func (r *ReminderRepository) ReplacePending(ctx context.Context, medicineID int64, batch []*models.Reminder) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM reminders WHERE medicine_id = $1 AND status = 'pending'`,
		medicineID,
	); err != nil {
		return err
	}

	for _, rem := range batch {
		err := tx.QueryRow(ctx,
			`INSERT INTO reminders (user_id, medicine_id, remind_at, status)
			 VALUES ($1, $2, $3, 'pending')
			 RETURNING reminder_id, status, created_at`,
			rem.UserID, rem.MedicineID, rem.RemindAt,
		).Scan(&rem.ReminderID, &rem.Status, &rem.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ReminderRepository) FindPendingInWindow(ctx context.Context, start, end time.Time) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT reminder_id, user_id, medicine_id, remind_at, status, sent_at, acknowledged_at, created_at
		 FROM reminders
		 WHERE status = 'pending' AND remind_at >= $1 AND remind_at < $2
		 ORDER BY remind_at ASC, reminder_id ASC`,
		start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReminders(rows)
}

func (r *ReminderRepository) FindPendingFor(ctx context.Context, medicineID int64) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT reminder_id, user_id, medicine_id, remind_at, status, sent_at, acknowledged_at, created_at
		 FROM reminders WHERE medicine_id = $1 AND status = 'pending'
		 ORDER BY remind_at ASC`,
		medicineID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReminders(rows)
}

func (r *ReminderRepository) DeletePending(ctx context.Context, medicineID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminders WHERE medicine_id = $1 AND status = 'pending'`,
		medicineID,
	)
	return err
}

// MarkSent commits the pending→sent transition for one reminder. The status
// guard in the WHERE clause makes the update a compare-and-swap: a reminder
// already claimed by a concurrent cycle reports false and is not re-sent.
func (r *ReminderRepository) MarkSent(ctx context.Context, reminderID int64, at time.Time) (bool, error) {
	ct, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET status = 'sent', sent_at = $1
		 WHERE reminder_id = $2 AND status = 'pending'`,
		at, reminderID,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *ReminderRepository) MarkAcknowledged(ctx context.Context, reminderID, userID int64, at time.Time) (bool, error) {
	ct, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET status = 'acknowledged', acknowledged_at = $1
		 WHERE reminder_id = $2 AND user_id = $3 AND status = 'sent'`,
		at, reminderID, userID,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *ReminderRepository) Upcoming(ctx context.Context, userID int64, from time.Time, limit int) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT reminder_id, user_id, medicine_id, remind_at, status, sent_at, acknowledged_at, created_at
		 FROM reminders WHERE user_id = $1 AND status = 'pending' AND remind_at >= $2
		 ORDER BY remind_at ASC LIMIT $3`,
		userID, from, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReminders(rows)
}

func (r *ReminderRepository) scanReminders(rows pgx.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		rem := &models.Reminder{}
		if err := rows.Scan(&rem.ReminderID, &rem.UserID, &rem.MedicineID, &rem.RemindAt,
			&rem.Status, &rem.SentAt, &rem.AcknowledgedAt, &rem.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}
