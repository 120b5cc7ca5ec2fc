package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/adnanqureshi/dosealert/internal/database"
	"github.com/adnanqureshi/dosealert/internal/models"
	"github.com/adnanqureshi/dosealert/internal/storage"
)

type MedicineRepository struct {
	db *database.DB
}

func NewMedicineRepository(db *database.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

func (r *MedicineRepository) Create(ctx context.Context, med *models.Medicine) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO medicines (user_id, name, dosage, times, status, instructions)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING medicine_id, created_at, updated_at`,
		med.UserID, med.Name, med.Dosage, med.Times, med.Status, med.Instructions,
	).Scan(&med.MedicineID, &med.CreatedAt, &med.UpdatedAt)
}

func (r *MedicineRepository) GetByID(ctx context.Context, medicineID int64) (*models.Medicine, error) {
	med := &models.Medicine{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT medicine_id, user_id, name, dosage, times, status, instructions, created_at, updated_at
		 FROM medicines WHERE medicine_id = $1`,
		medicineID,
	).Scan(&med.MedicineID, &med.UserID, &med.Name, &med.Dosage, &med.Times,
		&med.Status, &med.Instructions, &med.CreatedAt, &med.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return med, nil
}

func (r *MedicineRepository) GetByUserID(ctx context.Context, userID int64, status string) ([]*models.Medicine, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT medicine_id, user_id, name, dosage, times, status, instructions, created_at, updated_at
		 FROM medicines WHERE user_id = $1 AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC`,
		userID, status,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanMedicines(rows)
}

func (r *MedicineRepository) FindActiveDuplicate(ctx context.Context, userID int64, name, dosage string) (*models.Medicine, error) {
	med := &models.Medicine{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT medicine_id, user_id, name, dosage, times, status, instructions, created_at, updated_at
		 FROM medicines WHERE user_id = $1 AND name = $2 AND dosage = $3 AND status = 'active'
		 ORDER BY created_at ASC LIMIT 1`,
		userID, name, dosage,
	).Scan(&med.MedicineID, &med.UserID, &med.Name, &med.Dosage, &med.Times,
		&med.Status, &med.Instructions, &med.CreatedAt, &med.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return med, nil
}

func (r *MedicineRepository) FindActive(ctx context.Context) ([]*models.Medicine, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT medicine_id, user_id, name, dosage, times, status, instructions, created_at, updated_at
		 FROM medicines WHERE status = 'active'
		 ORDER BY medicine_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanMedicines(rows)
}

func (r *MedicineRepository) Update(ctx context.Context, med *models.Medicine) error {
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE medicines SET name = $1, dosage = $2, times = $3, status = $4, instructions = $5, updated_at = now()
		 WHERE medicine_id = $6 AND user_id = $7
		 RETURNING updated_at`,
		med.Name, med.Dosage, med.Times, med.Status, med.Instructions, med.MedicineID, med.UserID,
	).Scan(&med.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func (r *MedicineRepository) SetStatus(ctx context.Context, medicineID, userID int64, status string) error {
	ct, err := r.db.Pool.Exec(ctx,
		`UPDATE medicines SET status = $1, updated_at = now() WHERE medicine_id = $2 AND user_id = $3`,
		status, medicineID, userID,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *MedicineRepository) Delete(ctx context.Context, medicineID, userID int64) error {
	ct, err := r.db.Pool.Exec(ctx,
		`DELETE FROM medicines WHERE medicine_id = $1 AND user_id = $2`,
		medicineID, userID,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *MedicineRepository) scanMedicines(rows pgx.Rows) ([]*models.Medicine, error) {
	var medicines []*models.Medicine
	for rows.Next() {
		med := &models.Medicine{}
		if err := rows.Scan(&med.MedicineID, &med.UserID, &med.Name, &med.Dosage, &med.Times,
			&med.Status, &med.Instructions, &med.CreatedAt, &med.UpdatedAt); err != nil {
			return nil, err
		}
		medicines = append(medicines, med)
	}
	return medicines, rows.Err()
}
