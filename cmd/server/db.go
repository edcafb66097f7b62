package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/sirupsen/logrus"
)

func loadConfig(log logrus.FieldLogger) *config.Config {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("No .env file loaded")
	}
	return config.LoadConfig()
}

func openDB(ctx context.Context, log logrus.FieldLogger, cfg *config.Config) (*sql.DB, error) {
	if cfg.PostgresURI == "" {
		return nil, errors.New("POSTGRES_URI is not set")
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}

	log.Info("Connected to database")
	return db, nil
}

func closeDB(log logrus.FieldLogger, db *sql.DB) {
	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
		return
	}
	log.Info("Database connection closed")
}
