package repotest

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
)

type posts struct{ db *DB }

func (r *posts) Create(_ context.Context, _ *sql.Tx, post *models.Post) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	post.ID = r.db.id()
	post.CreatedAt = r.db.tick()
	post.UpdatedAt = post.CreatedAt
	r.db.posts[post.ID] = rowCopy(post)
	return post.ID, nil
}

func rowCopy(p *models.Post) *models.Post {
	c := *p
	c.Accounts, c.Versions, c.Tags = nil, nil, nil
	return &c
}

func (r *posts) GetByID(_ context.Context, id int64) (*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok {
		return nil, nil
	}
	return rowCopy(p), nil
}

func (r *posts) GetByUUID(_ context.Context, uuid string) (*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.posts {
		if p.UUID == uuid {
			return rowCopy(p), nil
		}
	}
	return nil, nil
}

func (r *posts) List(_ context.Context, filter repository.PostFilter, page repository.Page) ([]*models.Post, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	list := []*models.Post{}
	for _, p := range r.db.posts {
		if r.matches(p, filter) {
			list = append(list, rowCopy(p))
		}
	}
	sortNewest(list, func(p *models.Post) (int64, int64) { return p.CreatedAt.UnixNano(), p.ID })
	return paginate(list, page.Limit, page.Offset), len(list), nil
}

func (r *posts) matches(p *models.Post, filter repository.PostFilter) bool {
	if filter.Status != "" && p.Status != filter.Status {
		return false
	}
	if filter.Keyword != "" && !r.hasKeyword(p.ID, strings.ToLower(filter.Keyword)) {
		return false
	}
	if len(filter.AccountIDs) > 0 && !r.hasPivot(p.ID, filter.AccountIDs, func(k pivotKey) bool { _, ok := r.db.postAccounts[k]; return ok }) {
		return false
	}
	if len(filter.TagIDs) > 0 && !r.hasPivot(p.ID, filter.TagIDs, func(k pivotKey) bool { return r.db.tagPosts[k] }) {
		return false
	}
	return true
}

func (r *posts) hasKeyword(postID int64, keyword string) bool {
	for _, v := range r.db.versions {
		if v.PostID != postID {
			continue
		}
		for _, block := range v.Content {
			if strings.Contains(strings.ToLower(block.Body), keyword) {
				return true
			}
		}
	}
	return false
}

func (r *posts) hasPivot(postID int64, ids []int64, exists func(pivotKey) bool) bool {
	for _, id := range ids {
		if exists(pivotKey{postID, id}) {
			return true
		}
	}
	return false
}

func (r *posts) ListByUUIDs(_ context.Context, uuids []string) ([]*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	list := []*models.Post{}
	for _, p := range r.db.posts {
		for _, u := range uuids {
			if p.UUID == u {
				list = append(list, rowCopy(p))
				break
			}
		}
	}
	sortByID(list, func(p *models.Post) int64 { return p.ID })
	return list, nil
}

func (r *posts) Update(_ context.Context, _ *sql.Tx, post *models.Post) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[post.ID]
	if !ok || !mutable(p) {
		return false, nil
	}
	post.UpdatedAt = time.Now()
	p.Status = post.Status
	p.ScheduledAt = post.ScheduledAt
	p.UpdatedAt = post.UpdatedAt
	return true, nil
}

func (r *posts) SetScheduled(_ context.Context, id int64, at time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok || !mutable(p) {
		return false, nil
	}
	p.Status = models.PostStatusScheduled
	p.ScheduleStatus = models.ScheduleStatusPending
	p.ScheduledAt = &at
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *posts) Remove(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok || !mutable(p) {
		return false, nil
	}
	delete(r.db.posts, id)
	for key := range r.db.postAccounts {
		if key.postID == id {
			delete(r.db.postAccounts, key)
		}
	}
	for key := range r.db.tagPosts {
		if key.postID == id {
			delete(r.db.tagPosts, key)
		}
	}
	for vid, v := range r.db.versions {
		if v.PostID == id {
			delete(r.db.versions, vid)
		}
	}
	return true, nil
}

func (r *posts) AcquirePublishLease(_ context.Context, id int64, scheduledAt time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok || p.Status != models.PostStatusScheduled || p.ScheduleStatus != models.ScheduleStatusPending {
		return false, nil
	}
	if p.ScheduledAt == nil || !p.ScheduledAt.Equal(scheduledAt) {
		return false, nil
	}
	p.ScheduleStatus = models.ScheduleStatusProcessing
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *posts) FinishPublish(_ context.Context, id int64, status models.PostStatus, publishedAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p, ok := r.db.posts[id]; ok {
		p.Status = status
		p.ScheduleStatus = models.ScheduleStatusPending
		p.PublishedAt = &publishedAt
		p.UpdatedAt = publishedAt
	}
	return nil
}

func (r *posts) FailStaleProcessing(_ context.Context, before time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, p := range r.db.posts {
		if p.ScheduleStatus == models.ScheduleStatusProcessing && p.UpdatedAt.Before(before) {
			p.Status = models.PostStatusFailed
			p.ScheduleStatus = models.ScheduleStatusPending
			n++
		}
	}
	return n, nil
}

type postVersions struct{ db *DB }

func (r *postVersions) CreateMany(_ context.Context, _ *sql.Tx, postID int64, versions []*models.PostVersion) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, v := range versions {
		v.ID = r.db.id()
		v.PostID = postID
		c := *v
		r.db.versions[v.ID] = &c
	}
	return nil
}

func (r *postVersions) ListByPostIDs(_ context.Context, postIDs []int64) (map[int64][]*models.PostVersion, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	byPost := map[int64][]*models.PostVersion{}
	for _, v := range r.db.versions {
		if contains(postIDs, v.PostID) {
			c := *v
			byPost[v.PostID] = append(byPost[v.PostID], &c)
		}
	}
	for _, list := range byPost {
		sortByID(list, func(v *models.PostVersion) int64 { return v.ID })
	}
	return byPost, nil
}

func (r *postVersions) RemoveByPostID(_ context.Context, _ *sql.Tx, postID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, v := range r.db.versions {
		if v.PostID == postID {
			delete(r.db.versions, id)
		}
	}
	return nil
}
