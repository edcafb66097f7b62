package main

import (
	"context"

	"github.com/maheshrc27/mixpost-api/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newMigrateCmd(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run database migrations to create or update the schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), log)
		},
	}
}

func runMigrate(ctx context.Context, log *logrus.Logger) error {
	cfg := loadConfig(log)

	db, err := openDB(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer closeDB(log, db)

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	log.Info("Migrations completed successfully")

	return nil
}
