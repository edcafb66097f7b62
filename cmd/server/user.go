package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func newUserCmd(log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users that may issue API tokens",
	}

	var name, email, password string

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(cmd.Context(), log, name, email, password)
		},
	}

	create.Flags().StringVar(&name, "name", "", "Display name")
	create.Flags().StringVar(&email, "email", "", "Login email address")
	create.Flags().StringVar(&password, "password", "", "Login password")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)

	return cmd
}

func runUserCreate(ctx context.Context, log *logrus.Logger, name, email, password string) error {
	cfg := loadConfig(log)

	db, err := openDB(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer closeDB(log, db)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if name == "" {
		name = email
	}

	user := &models.User{Name: name, Email: email, Password: string(hash)}

	id, err := repository.NewUserRepository(db).Create(ctx, nil, user)
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("a user with email %s already exists", email)
	}
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"id": id, "email": email}).Info("User created")

	return nil
}
