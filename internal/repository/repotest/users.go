package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
)

type users struct{ db *DB }

func (r *users) GetByID(_ context.Context, id int64) (*models.User, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, false, nil
	}
	c := *u
	return &c, true, nil
}

func (r *users) GetByEmail(_ context.Context, email string) (*models.User, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, true, nil
		}
	}
	return nil, false, nil
}

func (r *users) Create(_ context.Context, _ *sql.Tx, user *models.User) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, user.Email) {
			return 0, fmt.Errorf("insert user: %w: users_email_key", repository.ErrDuplicate)
		}
	}

	user.ID = r.db.id()
	user.CreatedAt = r.db.tick()
	user.UpdatedAt = user.CreatedAt
	c := *user
	r.db.users[user.ID] = &c
	return user.ID, nil
}

type tokens struct{ db *DB }

func (r *tokens) Create(_ context.Context, token *models.ApiToken) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	token.ID = r.db.id()
	token.CreatedAt = r.db.tick()
	c := *token
	c.Abilities = append([]string(nil), token.Abilities...)
	r.db.tokens[token.ID] = &c
	return token.ID, nil
}

func (r *tokens) GetByID(_ context.Context, id int64) (*models.ApiToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tokens[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *tokens) GetByUserID(_ context.Context, userID int64) ([]*models.ApiToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	list := []*models.ApiToken{}
	for _, t := range r.db.tokens {
		if t.UserID == userID {
			c := *t
			list = append(list, &c)
		}
	}
	sortByID(list, func(t *models.ApiToken) int64 { return t.ID })
	return list, nil
}

func (r *tokens) CheckByUserID(_ context.Context, tokenID, userID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tokens[tokenID]
	return ok && t.UserID == userID, nil
}

func (r *tokens) TouchLastUsed(_ context.Context, id int64, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if t, ok := r.db.tokens[id]; ok {
		t.LastUsedAt = &at
	}
	return nil
}

func (r *tokens) Remove(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.tokens, id)
	return nil
}

func (r *tokens) RemoveByUserID(_ context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, t := range r.db.tokens {
		if t.UserID == userID {
			delete(r.db.tokens, id)
		}
	}
	return nil
}

func (r *tokens) RemoveExpired(_ context.Context, before time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, t := range r.db.tokens {
		if t.ExpiresAt != nil && t.ExpiresAt.Before(before) {
			delete(r.db.tokens, id)
			n++
		}
	}
	return n, nil
}
