package service

import (
	"context"
	"fmt"

	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
	"github.com/sirupsen/logrus"
)

const msgAccountNotFound = "Account not found"

type AccountService interface {
	List(ctx context.Context) ([]*models.Account, error)
	Get(ctx context.Context, ref string) (*models.Account, error)
	Update(ctx context.Context, ref string, in *transfer.AccountUpdate) (*models.Account, error)
	Delete(ctx context.Context, ref string) error
}

type accountService struct {
	log      logrus.FieldLogger
	accounts repository.AccountRepository
}

func NewAccountService(log logrus.FieldLogger, accounts repository.AccountRepository) AccountService {
	return &accountService{
		log:      log.WithField("component", "accounts"),
		accounts: accounts,
	}
}

func (s *accountService) List(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) Get(ctx context.Context, raw string) (*models.Account, error) {
	r, ok := parseRef(raw)
	if !ok {
		return nil, errs.NewNotFoundError(msgAccountNotFound)
	}

	var account *models.Account
	var err error
	if r.uuid != "" {
		account, err = s.accounts.GetByUUID(ctx, r.uuid)
	} else {
		account, err = s.accounts.GetByID(ctx, r.id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	if account == nil {
		return nil, errs.NewNotFoundError(msgAccountNotFound)
	}
	return account, nil
}

func (s *accountService) Update(ctx context.Context, ref string, in *transfer.AccountUpdate) (*models.Account, error) {
	account, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := s.accounts.UpdateName(ctx, account.ID, *in.Name); err != nil {
			return nil, fmt.Errorf("updating account: %w", err)
		}
		s.log.WithField("account_id", account.ID).Info("Account renamed")
	}

	return s.Get(ctx, account.UUID)
}

func (s *accountService) Delete(ctx context.Context, ref string) error {
	account, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}

	if err := s.accounts.Remove(ctx, account.ID); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	s.log.WithField("account_id", account.ID).Info("Account deleted")
	return nil
}
