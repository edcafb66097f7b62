package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
)

type tags struct{ db *DB }

func (r *tags) List(_ context.Context) ([]*models.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	list := []*models.Tag{}
	for _, t := range r.db.tags {
		c := *t
		list = append(list, &c)
	}
	sortNewest(list, func(t *models.Tag) (int64, int64) { return t.CreatedAt.UnixNano(), t.ID })
	return list, nil
}

func (r *tags) GetByID(_ context.Context, id int64) (*models.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tags[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *tags) ExistingIDs(_ context.Context, ids []int64) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	found := []int64{}
	for _, id := range ids {
		if _, ok := r.db.tags[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func (r *tags) ListByPostIDs(_ context.Context, postIDs []int64) (map[int64][]*models.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	byPost := map[int64][]*models.Tag{}
	for key := range r.db.tagPosts {
		if !contains(postIDs, key.postID) {
			continue
		}
		if t, ok := r.db.tags[key.otherID]; ok {
			c := *t
			byPost[key.postID] = append(byPost[key.postID], &c)
		}
	}
	for _, list := range byPost {
		sortByID(list, func(t *models.Tag) int64 { return t.ID })
	}
	return byPost, nil
}

func (r *tags) nameTaken(name string, exceptID int64) bool {
	for _, t := range r.db.tags {
		if t.Name == name && t.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *tags) Create(_ context.Context, tag *models.Tag) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.nameTaken(tag.Name, 0) {
		return 0, fmt.Errorf("insert tag: %w: tags_name_unique", repository.ErrDuplicate)
	}
	tag.ID = r.db.id()
	tag.CreatedAt = r.db.tick()
	tag.UpdatedAt = tag.CreatedAt
	c := *tag
	r.db.tags[tag.ID] = &c
	return tag.ID, nil
}

func (r *tags) Update(_ context.Context, tag *models.Tag) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.nameTaken(tag.Name, tag.ID) {
		return fmt.Errorf("update tag: %w: tags_name_unique", repository.ErrDuplicate)
	}
	tag.UpdatedAt = time.Now()
	c := *tag
	r.db.tags[tag.ID] = &c
	return nil
}

func (r *tags) Remove(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.tags, id)
	for key := range r.db.tagPosts {
		if key.otherID == id {
			delete(r.db.tagPosts, key)
		}
	}
	return nil
}

type postTags struct{ db *DB }

func (r *postTags) Attach(_ context.Context, _ *sql.Tx, postID int64, tagIDs []int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, id := range tagIDs {
		r.db.tagPosts[pivotKey{postID, id}] = true
	}
	return nil
}

func (r *postTags) Sync(ctx context.Context, tx *sql.Tx, postID int64, tagIDs []int64) error {
	r.db.mu.Lock()
	for key := range r.db.tagPosts {
		if key.postID == postID && !contains(tagIDs, key.otherID) {
			delete(r.db.tagPosts, key)
		}
	}
	r.db.mu.Unlock()
	return r.Attach(ctx, tx, postID, tagIDs)
}
