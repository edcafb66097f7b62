// Package repotest provides in-memory implementations of the repository
// interfaces for service and handler tests.
package repotest

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
)

type pivotKey struct {
	postID  int64
	otherID int64
}

// DB is a process-local store shared by the fake repositories.
type DB struct {
	mu     sync.Mutex
	nextID int64

	users        map[int64]*models.User
	tokens       map[int64]*models.ApiToken
	accounts     map[int64]*models.Account
	posts        map[int64]*models.Post
	postAccounts map[pivotKey]*models.PostAccount
	versions     map[int64]*models.PostVersion
	tags         map[int64]*models.Tag
	tagPosts     map[pivotKey]bool
	media        map[int64]*models.Media

	// Now is used for generated timestamps.
	Now func() time.Time
}

func New() *DB {
	return &DB{
		users:        map[int64]*models.User{},
		tokens:       map[int64]*models.ApiToken{},
		accounts:     map[int64]*models.Account{},
		posts:        map[int64]*models.Post{},
		postAccounts: map[pivotKey]*models.PostAccount{},
		versions:     map[int64]*models.PostVersion{},
		tags:         map[int64]*models.Tag{},
		tagPosts:     map[pivotKey]bool{},
		media:        map[int64]*models.Media{},
		Now:          time.Now,
	}
}

func (db *DB) id() int64 {
	db.nextID++
	return db.nextID
}

// tick returns strictly increasing timestamps so created_at ordering is
// deterministic.
func (db *DB) tick() time.Time {
	return db.Now().Add(time.Duration(db.nextID) * time.Millisecond)
}

func (db *DB) Users() repository.UserRepository { return &users{db} }
func (db *DB) Tokens() repository.ApiTokenRepository { return &tokens{db} }
func (db *DB) Accounts() repository.AccountRepository { return &accounts{db} }
func (db *DB) Posts() repository.PostRepository { return &posts{db} }
func (db *DB) PostAccounts() repository.PostAccountRepository { return &postAccounts{db} }
func (db *DB) PostVersions() repository.PostVersionRepository { return &postVersions{db} }
func (db *DB) Tags() repository.TagRepository { return &tags{db} }
func (db *DB) PostTags() repository.PostTagRepository { return &postTags{db} }
func (db *DB) Media() repository.MediaRepository { return &media{db} }
func (db *DB) Transactor() repository.Transactor { return transactor{} }

type transactor struct{}

func (transactor) WithinTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

// AddAccount seeds an account; accounts are never created through the API.
func (db *DB) AddAccount(name, provider string) *models.Account {
	db.mu.Lock()
	defer db.mu.Unlock()

	id := db.id()
	now := db.tick()
	a := &models.Account{
		ID:         id,
		UUID:       uuid.NewString(),
		Name:       name,
		Username:   name,
		Provider:   provider,
		ProviderID: uuid.NewString(),
		Authorized: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	db.accounts[id] = a
	c := *a
	return &c
}

// AddPost seeds a post in the given state with the accounts attached.
func (db *DB) AddPost(status models.PostStatus, scheduleStatus models.ScheduleStatus, scheduledAt *time.Time, accountIDs ...int64) *models.Post {
	db.mu.Lock()
	defer db.mu.Unlock()

	id := db.id()
	now := db.tick()
	p := &models.Post{
		ID:             id,
		UUID:           uuid.NewString(),
		Status:         status,
		ScheduleStatus: scheduleStatus,
		ScheduledAt:    scheduledAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	db.posts[id] = p
	for _, accountID := range accountIDs {
		db.postAccounts[pivotKey{id, accountID}] = &models.PostAccount{PostID: id, AccountID: accountID}
	}

	vid := db.id()
	db.versions[vid] = &models.PostVersion{ID: vid, PostID: id, IsOriginal: true, Content: []models.ContentBlock{{Body: "Hello"}}}

	c := *p
	return &c
}

// Post returns a copy of the stored post row, or nil.
func (db *DB) Post(id int64) *models.Post {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.posts[id]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

// PostAccount returns the stored pivot row, or nil.
func (db *DB) PostAccount(postID, accountID int64) *models.PostAccount {
	db.mu.Lock()
	defer db.mu.Unlock()
	pa, ok := db.postAccounts[pivotKey{postID, accountID}]
	if !ok {
		return nil
	}
	c := *pa
	return &c
}

// Token returns the stored token, or nil.
func (db *DB) Token(id int64) *models.ApiToken {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tokens[id]
	if !ok {
		return nil
	}
	c := *t
	return &c
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func mutable(p *models.Post) bool {
	return !p.IsInHistory() && !p.IsScheduleProcessing()
}
