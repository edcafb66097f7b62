package repotest

import (
	"context"
	"database/sql"
	"time"

	"github.com/maheshrc27/mixpost-api/internal/models"
)

type accounts struct{ db *DB }

func (r *accounts) List(_ context.Context) ([]*models.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	list := []*models.Account{}
	for _, a := range r.db.accounts {
		c := *a
		list = append(list, &c)
	}
	sortNewest(list, func(a *models.Account) (int64, int64) { return a.CreatedAt.UnixNano(), a.ID })
	return list, nil
}

func (r *accounts) GetByID(_ context.Context, id int64) (*models.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.accounts[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *accounts) GetByUUID(_ context.Context, uuid string) (*models.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.accounts {
		if a.UUID == uuid {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (r *accounts) ExistingIDs(_ context.Context, ids []int64) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	found := []int64{}
	for _, id := range ids {
		if _, ok := r.db.accounts[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func (r *accounts) ListByPostIDs(_ context.Context, postIDs []int64) (map[int64][]*models.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	byPost := map[int64][]*models.Account{}
	for key, pa := range r.db.postAccounts {
		if !contains(postIDs, key.postID) {
			continue
		}
		a, ok := r.db.accounts[key.otherID]
		if !ok {
			continue
		}
		c := *a
		c.AccountPivot = &models.AccountPivot{Errors: pa.Errors, ProviderPostID: pa.ProviderPostID}
		byPost[key.postID] = append(byPost[key.postID], &c)
	}
	for _, list := range byPost {
		sortByID(list, func(a *models.Account) int64 { return a.ID })
	}
	return byPost, nil
}

func (r *accounts) UpdateName(_ context.Context, id int64, name string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if a, ok := r.db.accounts[id]; ok {
		a.Name = name
		a.UpdatedAt = time.Now()
	}
	return nil
}

func (r *accounts) Remove(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.accounts, id)
	for key := range r.db.postAccounts {
		if key.otherID == id {
			delete(r.db.postAccounts, key)
		}
	}
	return nil
}

type postAccounts struct{ db *DB }

func (r *postAccounts) Attach(_ context.Context, _ *sql.Tx, postID int64, accountIDs []int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, id := range accountIDs {
		key := pivotKey{postID, id}
		if _, ok := r.db.postAccounts[key]; !ok {
			r.db.postAccounts[key] = &models.PostAccount{PostID: postID, AccountID: id}
		}
	}
	return nil
}

func (r *postAccounts) Sync(ctx context.Context, tx *sql.Tx, postID int64, accountIDs []int64) error {
	r.db.mu.Lock()
	for key := range r.db.postAccounts {
		if key.postID == postID && !contains(accountIDs, key.otherID) {
			delete(r.db.postAccounts, key)
		}
	}
	r.db.mu.Unlock()
	return r.Attach(ctx, tx, postID, accountIDs)
}

func (r *postAccounts) UpdateResult(_ context.Context, pa *models.PostAccount) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := pivotKey{pa.PostID, pa.AccountID}
	if _, ok := r.db.postAccounts[key]; ok {
		c := *pa
		r.db.postAccounts[key] = &c
	}
	return nil
}
