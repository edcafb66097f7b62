package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/maheshrc27/mixpost-api/internal/models"
)

type PostVersionRepository interface {
	CreateMany(ctx context.Context, tx *sql.Tx, postID int64, versions []*models.PostVersion) error
	ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.PostVersion, error)
	RemoveByPostID(ctx context.Context, tx *sql.Tx, postID int64) error
}

type postVersionRepository struct {
	db *sql.DB
}

func NewPostVersionRepository(db *sql.DB) PostVersionRepository {
	return &postVersionRepository{db: db}
}

func (r *postVersionRepository) CreateMany(ctx context.Context, tx *sql.Tx, postID int64, versions []*models.PostVersion) error {
	query := `
		INSERT INTO post_versions (post_id, account_id, is_original, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for _, v := range versions {
		content, err := json.Marshal(v.Content)
		if err != nil {
			return fmt.Errorf("encode version content: %w", err)
		}

		v.PostID = postID
		if err := conn(r.db, tx).QueryRowContext(ctx, query, postID, v.AccountID, v.IsOriginal, string(content)).Scan(&v.ID); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	}
	return nil
}

func (r *postVersionRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.PostVersion, error) {
	query := `
		SELECT id, post_id, account_id, is_original, content
		FROM post_versions
		WHERE post_id = ANY($1)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	byPost := make(map[int64][]*models.PostVersion, len(postIDs))
	for rows.Next() {
		var v models.PostVersion
		var content []byte
		if err := rows.Scan(&v.ID, &v.PostID, &v.AccountID, &v.IsOriginal, &content); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal(content, &v.Content); err != nil {
			return nil, fmt.Errorf("decode version %d content: %w", v.ID, err)
		}
		byPost[v.PostID] = append(byPost[v.PostID], &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return byPost, nil
}

func (r *postVersionRepository) RemoveByPostID(ctx context.Context, tx *sql.Tx, postID int64) error {
	if _, err := conn(r.db, tx).ExecContext(ctx, "DELETE FROM post_versions WHERE post_id = $1", postID); err != nil {
		return fmt.Errorf("delete versions: %w", err)
	}
	return nil
}
