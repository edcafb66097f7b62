package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/maheshrc27/mixpost-api/internal/models"
)

type MediaRepository interface {
	Create(ctx context.Context, m *models.Media) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Media, error)
	GetByUUID(ctx context.Context, uuid string) (*models.Media, error)
	List(ctx context.Context, search string, page Page) ([]*models.Media, int, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*models.Media, error)
	Remove(ctx context.Context, id int64) error
}

type mediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) MediaRepository {
	return &mediaRepository{db: db}
}

const mediaColumns = "id, uuid, name, mime_type, size, size_total, disk, path, conversions, created_at, updated_at"

func scanMedia(row scanner) (*models.Media, error) {
	var m models.Media
	var conversions []byte
	err := row.Scan(&m.ID, &m.UUID, &m.Name, &m.MimeType, &m.Size, &m.SizeTotal, &m.Disk, &m.Path,
		&conversions, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.Conversions = []models.MediaConversion{}
	if len(conversions) > 0 {
		if err := json.Unmarshal(conversions, &m.Conversions); err != nil {
			return nil, fmt.Errorf("decode media %d conversions: %w", m.ID, err)
		}
	}
	return &m, nil
}

func (r *mediaRepository) Create(ctx context.Context, m *models.Media) (int64, error) {
	if m.Conversions == nil {
		m.Conversions = []models.MediaConversion{}
	}
	conversions, err := json.Marshal(m.Conversions)
	if err != nil {
		return 0, fmt.Errorf("encode conversions: %w", err)
	}

	query := `
		INSERT INTO media (uuid, name, mime_type, size, size_total, disk, path, conversions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, m.UUID, m.Name, m.MimeType, m.Size, m.SizeTotal, m.Disk, m.Path, string(conversions)).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert media: %w", err)
	}
	return m.ID, nil
}

func (r *mediaRepository) GetByID(ctx context.Context, id int64) (*models.Media, error) {
	return r.get(ctx, "SELECT "+mediaColumns+" FROM media WHERE id = $1", id)
}

func (r *mediaRepository) GetByUUID(ctx context.Context, uuid string) (*models.Media, error) {
	return r.get(ctx, "SELECT "+mediaColumns+" FROM media WHERE uuid = $1", uuid)
}

func (r *mediaRepository) get(ctx context.Context, query string, arg any) (*models.Media, error) {
	m, err := scanMedia(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query media: %w", err)
	}
	return m, nil
}

func (r *mediaRepository) List(ctx context.Context, search string, page Page) ([]*models.Media, int, error) {
	clause := ""
	args := []any{}
	if search != "" {
		clause = " WHERE name ILIKE $1"
		args = append(args, containsPattern(search))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count media: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM media%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		mediaColumns, clause, len(args)+1, len(args)+2)
	media, err := r.query(ctx, query, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return media, total, nil
}

func (r *mediaRepository) ListByIDs(ctx context.Context, ids []int64) ([]*models.Media, error) {
	if len(ids) == 0 {
		return []*models.Media{}, nil
	}
	return r.query(ctx, "SELECT "+mediaColumns+" FROM media WHERE id = ANY($1) ORDER BY id", pq.Array(ids))
}

func (r *mediaRepository) query(ctx context.Context, query string, args ...any) ([]*models.Media, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	media := []*models.Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		media = append(media, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return media, nil
}

func (r *mediaRepository) Remove(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM media WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}
