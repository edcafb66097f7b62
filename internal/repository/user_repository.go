package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/maheshrc27/mixpost-api/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, bool, error)
	Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	query := "SELECT id, name, email, password, created_at, updated_at FROM users WHERE id = $1"
	return r.get(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	query := "SELECT id, name, email, password, created_at, updated_at FROM users WHERE lower(email) = lower($1)"
	return r.get(ctx, query, email)
}

func (r *userRepository) get(ctx context.Context, query string, arg any) (*models.User, bool, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query user: %w", err)
	}
	return &user, true, nil
}

func (r *userRepository) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	query := "INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id"

	var id int64
	err := conn(r.db, tx).QueryRowContext(ctx, query, user.Name, user.Email, user.Password).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", mapWriteError(err))
	}
	return id, nil
}
