package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/adnanqureshi/dosealert/internal/database"
	"github.com/adnanqureshi/dosealert/internal/models"
	"github.com/adnanqureshi/dosealert/internal/storage"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id, email, username, full_name, telegram_chat_id, created_at
		 FROM users WHERE user_id = $1`,
		userID,
	).Scan(&user.UserID, &user.Email, &user.Username, &user.FullName, &user.TelegramChatID, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
