package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/mixpost-api/internal/models"
)

// mutableGuard matches posts that are neither in history nor being published.
const mutableGuard = "status NOT IN ('published', 'failed') AND schedule_status <> 'processing'"

type PostFilter struct {
	Status     models.PostStatus
	Keyword    string
	AccountIDs []int64
	TagIDs     []int64
}

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByUUID(ctx context.Context, uuid string) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, page Page) ([]*models.Post, int, error)
	ListByUUIDs(ctx context.Context, uuids []string) ([]*models.Post, error)
	// Update writes status and schedule; false means the guard rejected it.
	Update(ctx context.Context, tx *sql.Tx, post *models.Post) (bool, error)
	SetScheduled(ctx context.Context, id int64, at time.Time) (bool, error)
	Remove(ctx context.Context, id int64) (bool, error)
	AcquirePublishLease(ctx context.Context, id int64, scheduledAt time.Time) (bool, error)
	FinishPublish(ctx context.Context, id int64, status models.PostStatus, publishedAt time.Time) error
	FailStaleProcessing(ctx context.Context, before time.Time) (int64, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = "p.id, p.uuid, p.status, p.schedule_status, p.scheduled_at, p.published_at, p.created_at, p.updated_at"

func scanPost(row scanner) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.UUID, &p.Status, &p.ScheduleStatus, &p.ScheduledAt, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (uuid, status, schedule_status, scheduled_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := conn(r.db, tx).QueryRowContext(ctx, query, post.UUID, post.Status, post.ScheduleStatus, post.ScheduledAt).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return post.ID, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return r.get(ctx, "SELECT "+postColumns+" FROM posts p WHERE p.id = $1", id)
}

func (r *postRepository) GetByUUID(ctx context.Context, uuid string) (*models.Post, error) {
	return r.get(ctx, "SELECT "+postColumns+" FROM posts p WHERE p.uuid = $1", uuid)
}

func (r *postRepository) get(ctx context.Context, query string, arg any) (*models.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query post: %w", err)
	}
	return p, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, page Page) ([]*models.Post, int, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "p.status = "+arg(filter.Status))
	}
	if filter.Keyword != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM post_versions pv, jsonb_array_elements(pv.content) block
			WHERE pv.post_id = p.id AND block->>'body' ILIKE `+arg(containsPattern(filter.Keyword))+`)`)
	}
	if len(filter.AccountIDs) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM post_accounts pa WHERE pa.post_id = p.id AND pa.account_id = ANY("+arg(pq.Array(filter.AccountIDs))+"))")
	}
	if len(filter.TagIDs) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM tag_post tp WHERE tp.post_id = p.id AND tp.tag_id = ANY("+arg(pq.Array(filter.TagIDs))+"))")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts p"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := "SELECT " + postColumns + " FROM posts p" + clause +
		" ORDER BY p.created_at DESC, p.id DESC LIMIT " + arg(page.Limit) + " OFFSET " + arg(page.Offset)

	posts, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) ListByUUIDs(ctx context.Context, uuids []string) ([]*models.Post, error) {
	if len(uuids) == 0 {
		return []*models.Post{}, nil
	}
	return r.query(ctx, "SELECT "+postColumns+" FROM posts p WHERE p.uuid = ANY($1::uuid[]) ORDER BY p.id", pq.Array(uuids))
}

func (r *postRepository) query(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, tx *sql.Tx, post *models.Post) (bool, error) {
	post.UpdatedAt = time.Now()

	query := `
		UPDATE posts SET status = $1, scheduled_at = $2, updated_at = $3
		WHERE id = $4 AND ` + mutableGuard
	res, err := conn(r.db, tx).ExecContext(ctx, query, post.Status, post.ScheduledAt, post.UpdatedAt, post.ID)
	if err != nil {
		return false, fmt.Errorf("update post: %w", err)
	}
	return affected(res)
}

func (r *postRepository) SetScheduled(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE posts SET status = 'scheduled', schedule_status = 'pending', scheduled_at = $1, updated_at = $2
		WHERE id = $3 AND ` + mutableGuard
	res, err := r.db.ExecContext(ctx, query, at, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("schedule post: %w", err)
	}
	return affected(res)
}

func (r *postRepository) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM posts WHERE id = $1 AND "+mutableGuard, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return affected(res)
}

// AcquirePublishLease moves a scheduled post into processing. It only
// succeeds for the instant the task was enqueued for, so a rescheduled
// post is not published by an outdated task.
func (r *postRepository) AcquirePublishLease(ctx context.Context, id int64, scheduledAt time.Time) (bool, error) {
	query := `
		UPDATE posts SET schedule_status = 'processing', updated_at = $1
		WHERE id = $2 AND status = 'scheduled' AND schedule_status = 'pending' AND scheduled_at = $3
	`
	res, err := r.db.ExecContext(ctx, query, time.Now(), id, scheduledAt)
	if err != nil {
		return false, fmt.Errorf("acquire publish lease: %w", err)
	}
	return affected(res)
}

func (r *postRepository) FinishPublish(ctx context.Context, id int64, status models.PostStatus, publishedAt time.Time) error {
	query := `
		UPDATE posts SET status = $1, schedule_status = 'pending', published_at = $2, updated_at = $2
		WHERE id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, status, publishedAt, id); err != nil {
		return fmt.Errorf("finish publish: %w", err)
	}
	return nil
}

func (r *postRepository) FailStaleProcessing(ctx context.Context, before time.Time) (int64, error) {
	query := `
		UPDATE posts SET status = 'failed', schedule_status = 'pending', updated_at = $1
		WHERE schedule_status = 'processing' AND updated_at < $2
	`
	res, err := r.db.ExecContext(ctx, query, time.Now(), before)
	if err != nil {
		return 0, fmt.Errorf("fail stale posts: %w", err)
	}
	return res.RowsAffected()
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
