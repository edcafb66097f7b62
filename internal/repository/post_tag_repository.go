package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type PostTagRepository interface {
	Attach(ctx context.Context, tx *sql.Tx, postID int64, tagIDs []int64) error
	Sync(ctx context.Context, tx *sql.Tx, postID int64, tagIDs []int64) error
}

type postTagRepository struct {
	db *sql.DB
}

func NewPostTagRepository(db *sql.DB) PostTagRepository {
	return &postTagRepository{db: db}
}

func (r *postTagRepository) Attach(ctx context.Context, tx *sql.Tx, postID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO tag_post (post_id, tag_id)
		SELECT $1::bigint, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := conn(r.db, tx).ExecContext(ctx, query, postID, pq.Array(tagIDs)); err != nil {
		return fmt.Errorf("attach tags: %w", err)
	}
	return nil
}

func (r *postTagRepository) Sync(ctx context.Context, tx *sql.Tx, postID int64, tagIDs []int64) error {
	query := "DELETE FROM tag_post WHERE post_id = $1 AND NOT (tag_id = ANY($2::bigint[]))"
	if _, err := conn(r.db, tx).ExecContext(ctx, query, postID, idArray(tagIDs)); err != nil {
		return fmt.Errorf("detach tags: %w", err)
	}
	return r.Attach(ctx, tx, postID, tagIDs)
}
