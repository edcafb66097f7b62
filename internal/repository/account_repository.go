package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/mixpost-api/internal/models"
)

type AccountRepository interface {
	List(ctx context.Context) ([]*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByUUID(ctx context.Context, uuid string) (*models.Account, error)
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
	ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.Account, error)
	UpdateName(ctx context.Context, id int64, name string) error
	Remove(ctx context.Context, id int64) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = "a.id, a.uuid, a.name, a.username, a.provider, a.provider_id, a.authorized, a.image, a.data, a.created_at, a.updated_at"

func scanAccount(row scanner, extra ...any) (*models.Account, error) {
	var a models.Account
	var data []byte
	dest := append([]any{&a.ID, &a.UUID, &a.Name, &a.Username, &a.Provider, &a.ProviderID,
		&a.Authorized, &a.Image, &data, &a.CreatedAt, &a.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		a.Data = json.RawMessage(data)
	}
	return &a, nil
}

func (r *accountRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts a ORDER BY a.created_at DESC, a.id DESC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	accounts := []*models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	return r.get(ctx, "SELECT "+accountColumns+" FROM accounts a WHERE a.id = $1", id)
}

func (r *accountRepository) GetByUUID(ctx context.Context, uuid string) (*models.Account, error) {
	return r.get(ctx, "SELECT "+accountColumns+" FROM accounts a WHERE a.uuid = $1", uuid)
}

func (r *accountRepository) get(ctx context.Context, query string, arg any) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query account: %w", err)
	}
	return a, nil
}

func (r *accountRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return existingIDs(ctx, r.db, "accounts", ids)
}

func (r *accountRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `, pa.post_id, pa.errors, pa.provider_post_id
		FROM post_accounts pa
		JOIN accounts a ON a.id = pa.account_id
		WHERE pa.post_id = ANY($1)
		ORDER BY a.id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	byPost := make(map[int64][]*models.Account, len(postIDs))
	for rows.Next() {
		var postID int64
		var pivot models.AccountPivot
		var pivotErrors []byte
		a, err := scanAccount(rows, &postID, &pivotErrors, &pivot.ProviderPostID)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if len(pivotErrors) > 0 {
			pivot.Errors = json.RawMessage(pivotErrors)
		}
		a.AccountPivot = &pivot
		byPost[postID] = append(byPost[postID], a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return byPost, nil
}

func (r *accountRepository) UpdateName(ctx context.Context, id int64, name string) error {
	query := "UPDATE accounts SET name = $1, updated_at = $2 WHERE id = $3"
	if _, err := r.db.ExecContext(ctx, query, name, time.Now(), id); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

func (r *accountRepository) Remove(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// existingIDs returns the subset of ids present in table.
func existingIDs(ctx context.Context, db *sql.DB, table string, ids []int64) ([]int64, error) {
	found := []int64{}
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := db.QueryContext(ctx, "SELECT id FROM "+table+" WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return found, nil
}
