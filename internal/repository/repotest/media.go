package repotest

import (
	"context"
	"strings"

	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
)

type media struct{ db *DB }

func (r *media) Create(_ context.Context, m *models.Media) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m.ID = r.db.id()
	m.CreatedAt = r.db.tick()
	m.UpdatedAt = m.CreatedAt
	c := *m
	r.db.media[m.ID] = &c
	return m.ID, nil
}

func (r *media) GetByID(_ context.Context, id int64) (*models.Media, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.media[id]
	if !ok {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (r *media) GetByUUID(_ context.Context, uuid string) (*models.Media, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.media {
		if m.UUID == uuid {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r *media) List(_ context.Context, search string, page repository.Page) ([]*models.Media, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	list := []*models.Media{}
	for _, m := range r.db.media {
		if search == "" || strings.Contains(strings.ToLower(m.Name), strings.ToLower(search)) {
			c := *m
			list = append(list, &c)
		}
	}
	sortNewest(list, func(m *models.Media) (int64, int64) { return m.CreatedAt.UnixNano(), m.ID })
	return paginate(list, page.Limit, page.Offset), len(list), nil
}

func (r *media) ListByIDs(_ context.Context, ids []int64) ([]*models.Media, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	list := []*models.Media{}
	for _, id := range ids {
		if m, ok := r.db.media[id]; ok {
			c := *m
			list = append(list, &c)
		}
	}
	sortByID(list, func(m *models.Media) int64 { return m.ID })
	return list, nil
}

func (r *media) Remove(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.media, id)
	return nil
}
