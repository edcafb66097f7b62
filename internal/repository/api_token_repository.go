package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/mixpost-api/internal/models"
)

type ApiTokenRepository interface {
	Create(ctx context.Context, token *models.ApiToken) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ApiToken, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.ApiToken, error)
	CheckByUserID(ctx context.Context, tokenID, userID int64) (bool, error)
	TouchLastUsed(ctx context.Context, id int64, at time.Time) error
	Remove(ctx context.Context, id int64) error
	RemoveByUserID(ctx context.Context, userID int64) error
	RemoveExpired(ctx context.Context, before time.Time) (int64, error)
}

type apiTokenRepository struct {
	db *sql.DB
}

func NewApiTokenRepository(db *sql.DB) ApiTokenRepository {
	return &apiTokenRepository{db: db}
}

const apiTokenColumns = "id, user_id, name, token, abilities, last_used_at, expires_at, created_at"

func scanApiToken(row scanner) (*models.ApiToken, error) {
	var t models.ApiToken
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, pq.Array(&t.Abilities), &t.LastUsedAt, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *apiTokenRepository) Create(ctx context.Context, token *models.ApiToken) (int64, error) {
	query := `
		INSERT INTO api_tokens (user_id, name, token, abilities, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, token.UserID, token.Name, token.TokenHash, pq.Array(token.Abilities), token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert token: %w", mapWriteError(err))
	}
	return token.ID, nil
}

func (r *apiTokenRepository) GetByID(ctx context.Context, id int64) (*models.ApiToken, error) {
	query := "SELECT " + apiTokenColumns + " FROM api_tokens WHERE id = $1"

	token, err := scanApiToken(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query token: %w", err)
	}
	return token, nil
}

func (r *apiTokenRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.ApiToken, error) {
	query := "SELECT " + apiTokenColumns + " FROM api_tokens WHERE user_id = $1 ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	tokens := []*models.ApiToken{}
	for rows.Next() {
		token, err := scanApiToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return tokens, nil
}

func (r *apiTokenRepository) CheckByUserID(ctx context.Context, tokenID, userID int64) (bool, error) {
	query := "SELECT 1 FROM api_tokens WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, tokenID, userID).Scan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query row: %w", err)
	}
	return result == 1, nil
}

func (r *apiTokenRepository) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE api_tokens SET last_used_at = $1 WHERE id = $2", at, id)
	if err != nil {
		return fmt.Errorf("touch token: %w", err)
	}
	return nil
}

func (r *apiTokenRepository) Remove(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM api_tokens WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *apiTokenRepository) RemoveByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM api_tokens WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}

func (r *apiTokenRepository) RemoveExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM api_tokens WHERE expires_at IS NOT NULL AND expires_at <= $1", before)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
