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

type TagRepository interface {
	List(ctx context.Context) ([]*models.Tag, error)
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
	ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) (int64, error)
	Update(ctx context.Context, tag *models.Tag) error
	Remove(ctx context.Context, id int64) error
}

type tagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) TagRepository {
	return &tagRepository{db: db}
}

const tagColumns = "t.id, t.name, t.hex_color, t.created_at, t.updated_at"

func scanTag(row scanner, extra ...any) (*models.Tag, error) {
	var t models.Tag
	dest := append([]any{&t.ID, &t.Name, &t.HexColor, &t.CreatedAt, &t.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+tagColumns+" FROM tags t ORDER BY t.created_at DESC, t.id DESC")
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return tags, nil
}

func (r *tagRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	t, err := scanTag(r.db.QueryRowContext(ctx, "SELECT "+tagColumns+" FROM tags t WHERE t.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query tag: %w", err)
	}
	return t, nil
}

func (r *tagRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return existingIDs(ctx, r.db, "tags", ids)
}

func (r *tagRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.Tag, error) {
	query := `
		SELECT ` + tagColumns + `, tp.post_id
		FROM tag_post tp
		JOIN tags t ON t.id = tp.tag_id
		WHERE tp.post_id = ANY($1)
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	byPost := make(map[int64][]*models.Tag, len(postIDs))
	for rows.Next() {
		var postID int64
		t, err := scanTag(rows, &postID)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		byPost[postID] = append(byPost[postID], t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return byPost, nil
}

// Create returns ErrDuplicate when the name is taken.
func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) (int64, error) {
	query := `
		INSERT INTO tags (name, hex_color)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, tag.Name, tag.HexColor).Scan(&tag.ID, &tag.CreatedAt, &tag.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert tag: %w", mapWriteError(err))
	}
	return tag.ID, nil
}

// Update returns ErrDuplicate when the new name is taken.
func (r *tagRepository) Update(ctx context.Context, tag *models.Tag) error {
	tag.UpdatedAt = time.Now()

	query := "UPDATE tags SET name = $1, hex_color = $2, updated_at = $3 WHERE id = $4"
	if _, err := r.db.ExecContext(ctx, query, tag.Name, tag.HexColor, tag.UpdatedAt, tag.ID); err != nil {
		return fmt.Errorf("update tag: %w", mapWriteError(err))
	}
	return nil
}

func (r *tagRepository) Remove(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tags WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}
