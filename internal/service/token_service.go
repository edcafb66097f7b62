package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/maheshrc27/mixpost-api/internal/metrics"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
	"github.com/maheshrc27/mixpost-api/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenType            = "Bearer"
	TokenExpiresAtLayout = "2006-01-02 15:04:05"

	msgBadCredentials  = "The provided credentials are incorrect."
	msgUnauthenticated = "Unauthenticated. Please provide a valid API token."
	msgTokenExpired    = "API token has expired"
)

type TokenService interface {
	Create(ctx context.Context, in *transfer.TokenCreation) (*transfer.TokenCreated, error)
	List(ctx context.Context, userID int64) ([]*transfer.TokenInfo, error)
	Revoke(ctx context.Context, userID, tokenID int64) error
	RevokeCurrent(ctx context.Context, token *models.ApiToken) error
	// Authenticate resolves a plaintext bearer token and records its use.
	Authenticate(ctx context.Context, plain string) (*models.ApiToken, error)
	PruneExpired(ctx context.Context) (int64, error)
}

type tokenService struct {
	log     logrus.FieldLogger
	cfg     config.Token
	users   repository.UserRepository
	tokens  repository.ApiTokenRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewTokenService(
	log logrus.FieldLogger,
	cfg config.Token,
	users repository.UserRepository,
	tokens repository.ApiTokenRepository,
	m *metrics.Metrics) TokenService {
	return &tokenService{
		log:     log.WithField("component", "tokens"),
		cfg:     cfg,
		users:   users,
		tokens:  tokens,
		metrics: m,
		now:     time.Now,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareUnknownUser spends the same bcrypt work as a real check so a
// missing account is not distinguishable by response time.
func compareUnknownUser(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("mixpost-api-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func (s *tokenService) Create(ctx context.Context, in *transfer.TokenCreation) (*transfer.TokenCreated, error) {
	user, found, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if !found {
		compareUnknownUser(in.Password)
		return nil, errs.NewValidationError("email", msgBadCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, errs.NewValidationError("email", msgBadCredentials)
	}

	if in.RevokeExisting {
		if err := s.tokens.RemoveByUserID(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("revoking tokens: %w", err)
		}
	}

	abilities := in.Abilities
	if len(abilities) == 0 {
		abilities = []string{models.AbilityAll}
	}

	expiresAt, err := s.expiration(in.ExpiresAt)
	if err != nil {
		return nil, err
	}

	secret, err := utils.GenerateRandomKey(utils.TokenSecretBytes)
	if err != nil {
		return nil, fmt.Errorf("generating token secret: %w", err)
	}

	token := &models.ApiToken{
		UserID:    user.ID,
		Name:      in.TokenName,
		TokenHash: utils.HashToken(secret),
		Abilities: abilities,
		ExpiresAt: expiresAt,
	}
	if _, err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("creating token: %w", err)
	}

	s.metrics.RecordTokenIssued()
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "token_id": token.ID}).Info("API token created")

	return &transfer.TokenCreated{
		Token:     utils.FormatToken(token.ID, secret),
		TokenName: token.Name,
		TokenType: TokenType,
		Abilities: abilities,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *tokenService) expiration(explicit string) (*time.Time, error) {
	if explicit != "" {
		at, err := time.ParseInLocation(TokenExpiresAtLayout, explicit, time.UTC)
		if err != nil {
			return nil, errs.NewValidationError("expires_at", "Expiration date must be in format: Y-m-d H:i:s")
		}
		return &at, nil
	}

	if s.cfg.ExpirationMinutes > 0 {
		at := s.now().UTC().Add(time.Duration(s.cfg.ExpirationMinutes) * time.Minute)
		return &at, nil
	}
	return nil, nil
}

func (s *tokenService) List(ctx context.Context, userID int64) ([]*transfer.TokenInfo, error) {
	tokens, err := s.tokens.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}

	list := make([]*transfer.TokenInfo, 0, len(tokens))
	for _, t := range tokens {
		list = append(list, &transfer.TokenInfo{
			ID:         t.ID,
			Name:       t.Name,
			Abilities:  t.Abilities,
			LastUsedAt: t.LastUsedAt,
			ExpiresAt:  t.ExpiresAt,
			CreatedAt:  t.CreatedAt,
		})
	}
	return list, nil
}

func (s *tokenService) Revoke(ctx context.Context, userID, tokenID int64) error {
	owned, err := s.tokens.CheckByUserID(ctx, tokenID, userID)
	if err != nil {
		return fmt.Errorf("checking token owner: %w", err)
	}
	if !owned {
		return errs.NewNotFoundError("Token not found")
	}

	if err := s.tokens.Remove(ctx, tokenID); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}

func (s *tokenService) RevokeCurrent(ctx context.Context, token *models.ApiToken) error {
	if err := s.tokens.Remove(ctx, token.ID); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}

func (s *tokenService) Authenticate(ctx context.Context, plain string) (*models.ApiToken, error) {
	id, secret, ok := utils.SplitToken(plain)
	if !ok {
		return nil, errs.NewUnauthorizedError(msgUnauthenticated)
	}

	token, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}
	if token == nil || !utils.CompareTokenHash(secret, token.TokenHash) {
		return nil, errs.NewUnauthorizedError(msgUnauthenticated)
	}

	now := s.now()
	if token.IsExpired(now) {
		return nil, errs.NewUnauthorizedError(msgTokenExpired)
	}

	if err := s.tokens.TouchLastUsed(ctx, token.ID, now); err != nil {
		// The request is still authenticated.
		s.log.WithError(err).WithField("token_id", token.ID).Warn("Failed to record token use")
	} else {
		token.LastUsedAt = &now
	}
	return token, nil
}

func (s *tokenService) PruneExpired(ctx context.Context) (int64, error) {
	n, err := s.tokens.RemoveExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("pruning tokens: %w", err)
	}
	s.metrics.RecordTokensPruned(n)
	return n, nil
}
