package service

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository/repotest"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTokenFixture(t *testing.T, cfg config.Token) (*tokenService, *repotest.DB, *models.User) {
	t.Helper()
	db := repotest.New()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Name: "Jane", Email: "jane@example.com", Password: string(hash)}
	_, err = db.Users().Create(context.Background(), nil, user)
	require.NoError(t, err)

	s := NewTokenService(nullLogger(), cfg, db.Users(), db.Tokens(), nil).(*tokenService)
	return s, db, user
}

func createRequest() *transfer.TokenCreation {
	return &transfer.TokenCreation{
		Email:     "jane@example.com",
		Password:  "secret-password",
		TokenName: "ci",
	}
}

func TestCreateTokenIssuesOpaqueToken(t *testing.T) {
	s, db, user := newTokenFixture(t, config.Token{})
	ctx := context.Background()

	created, err := s.Create(ctx, createRequest())
	require.NoError(t, err)

	assert.Equal(t, "ci", created.TokenName)
	assert.Equal(t, "Bearer", created.TokenType)
	assert.Equal(t, []string{"*"}, created.Abilities)
	assert.Nil(t, created.ExpiresAt)

	id, secret, found := strings.Cut(created.Token, "|")
	require.True(t, found)
	assert.Len(t, secret, 40)

	tokenID, err := strconv.ParseInt(id, 10, 64)
	require.NoError(t, err)
	stored := db.Token(tokenID)
	require.NotNil(t, stored)
	assert.Equal(t, user.ID, stored.UserID)
	assert.NotContains(t, stored.TokenHash, secret)

	token, err := s.Authenticate(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, tokenID, token.ID)
	assert.NotNil(t, db.Token(tokenID).LastUsedAt)
}

func TestCreateTokenRejectsBadCredentials(t *testing.T) {
	s, _, _ := newTokenFixture(t, config.Token{})

	for name, req := range map[string]*transfer.TokenCreation{
		"wrong password": {Email: "jane@example.com", Password: "nope", TokenName: "ci"},
		"unknown email":  {Email: "nobody@example.com", Password: "secret-password", TokenName: "ci"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Create(context.Background(), req)
			requireValidation(t, err, "email", "The provided credentials are incorrect.")
		})
	}
}

func TestCreateTokenRevokesExisting(t *testing.T) {
	s, _, user := newTokenFixture(t, config.Token{})
	ctx := context.Background()

	_, err := s.Create(ctx, createRequest())
	require.NoError(t, err)
	_, err = s.Create(ctx, createRequest())
	require.NoError(t, err)

	req := createRequest()
	req.RevokeExisting = true
	req.Abilities = []string{"posts.index"}
	_, err = s.Create(ctx, req)
	require.NoError(t, err)

	list, err := s.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"posts.index"}, list[0].Abilities)
}

func TestCreateTokenExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("configured minutes", func(t *testing.T) {
		s, _, _ := newTokenFixture(t, config.Token{ExpirationMinutes: 60})
		s.now = func() time.Time { return now }

		created, err := s.Create(context.Background(), createRequest())
		require.NoError(t, err)
		require.NotNil(t, created.ExpiresAt)
		assert.Equal(t, now.Add(time.Hour), *created.ExpiresAt)
	})

	t.Run("explicit date wins", func(t *testing.T) {
		s, _, _ := newTokenFixture(t, config.Token{ExpirationMinutes: 60})
		req := createRequest()
		req.ExpiresAt = "2030-01-02 03:04:05"

		created, err := s.Create(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, created.ExpiresAt)
		assert.Equal(t, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC), *created.ExpiresAt)
	})
}

func TestAuthenticate(t *testing.T) {
	s, _, _ := newTokenFixture(t, config.Token{ExpirationMinutes: 1})
	ctx := context.Background()

	created, err := s.Create(ctx, createRequest())
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "garbage")
	requireHTTPError(t, err, http.StatusUnauthorized, "Unauthenticated. Please provide a valid API token.")

	id, _, _ := strings.Cut(created.Token, "|")
	_, err = s.Authenticate(ctx, id+"|wrong-secret")
	requireHTTPError(t, err, http.StatusUnauthorized, "Unauthenticated. Please provide a valid API token.")

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Authenticate(ctx, created.Token)
	requireHTTPError(t, err, http.StatusUnauthorized, "API token has expired")
}

func TestRevokeToken(t *testing.T) {
	s, db, user := newTokenFixture(t, config.Token{})
	ctx := context.Background()

	other := &models.User{Name: "Max", Email: "max@example.com", Password: "x"}
	_, err := db.Users().Create(ctx, nil, other)
	require.NoError(t, err)

	created, err := s.Create(ctx, createRequest())
	require.NoError(t, err)
	token, err := s.Authenticate(ctx, created.Token)
	require.NoError(t, err)

	err = s.Revoke(ctx, other.ID, token.ID)
	requireHTTPError(t, err, http.StatusNotFound, "Token not found")

	require.NoError(t, s.Revoke(ctx, user.ID, token.ID))
	assert.Nil(t, db.Token(token.ID))
}

func TestRevokeCurrentAndPrune(t *testing.T) {
	s, db, _ := newTokenFixture(t, config.Token{ExpirationMinutes: 5})
	ctx := context.Background()

	first, err := s.Create(ctx, createRequest())
	require.NoError(t, err)
	second, err := s.Create(ctx, createRequest())
	require.NoError(t, err)

	current, err := s.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	require.NoError(t, s.RevokeCurrent(ctx, current))
	assert.Nil(t, db.Token(current.ID))

	s.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	n, err := s.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Authenticate(ctx, second.Token)
	requireHTTPError(t, err, http.StatusUnauthorized, "Unauthenticated. Please provide a valid API token.")
}
