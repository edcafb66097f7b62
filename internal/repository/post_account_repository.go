package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/maheshrc27/mixpost-api/internal/models"
)

type PostAccountRepository interface {
	Attach(ctx context.Context, tx *sql.Tx, postID int64, accountIDs []int64) error
	Sync(ctx context.Context, tx *sql.Tx, postID int64, accountIDs []int64) error
	UpdateResult(ctx context.Context, pa *models.PostAccount) error
}

type postAccountRepository struct {
	db *sql.DB
}

func NewPostAccountRepository(db *sql.DB) PostAccountRepository {
	return &postAccountRepository{db: db}
}

func (r *postAccountRepository) Attach(ctx context.Context, tx *sql.Tx, postID int64, accountIDs []int64) error {
	if len(accountIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO post_accounts (post_id, account_id)
		SELECT $1::bigint, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := conn(r.db, tx).ExecContext(ctx, query, postID, pq.Array(accountIDs)); err != nil {
		return fmt.Errorf("attach accounts: %w", err)
	}
	return nil
}

// Sync leaves the post attached to exactly accountIDs. Rows that stay
// attached keep their publishing result.
func (r *postAccountRepository) Sync(ctx context.Context, tx *sql.Tx, postID int64, accountIDs []int64) error {
	query := "DELETE FROM post_accounts WHERE post_id = $1 AND NOT (account_id = ANY($2::bigint[]))"
	if _, err := conn(r.db, tx).ExecContext(ctx, query, postID, idArray(accountIDs)); err != nil {
		return fmt.Errorf("detach accounts: %w", err)
	}
	return r.Attach(ctx, tx, postID, accountIDs)
}

func (r *postAccountRepository) UpdateResult(ctx context.Context, pa *models.PostAccount) error {
	var errs any
	if len(pa.Errors) > 0 {
		errs = string(pa.Errors)
	}

	query := `
		UPDATE post_accounts
		SET errors = $1, provider_post_id = $2
		WHERE post_id = $3 AND account_id = $4
	`
	if _, err := r.db.ExecContext(ctx, query, errs, pa.ProviderPostID, pa.PostID, pa.AccountID); err != nil {
		return fmt.Errorf("update post account: %w", err)
	}
	return nil
}

