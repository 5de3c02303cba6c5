package main

import (
	"context"
	"log/slog"
	"os"

	"voicevault-backend/config"
	"voicevault-backend/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS app_user (
    id BIGSERIAL PRIMARY KEY,
    login VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    password VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS app_file (
    id BIGSERIAL PRIMARY KEY,
    file_name VARCHAR(255) NOT NULL,
    size DOUBLE PRECISION NOT NULL,
    download_url VARCHAR(255) NOT NULL UNIQUE,
    user_id BIGINT NOT NULL REFERENCES app_user(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_app_file_user_id ON app_file(user_id);
`

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := config.SetupLogger(cfg)

	if cfg.DatabaseDriver == config.DriverSQLite {
		// OpenSQLite creates the tables itself
		db, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Error("Failed to create SQLite schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
		db.Close()
		logger.Info("SQLite schema ready", slog.String("path", cfg.SQLitePath))
		return
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		logger.Error("Failed to create schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Created app_user and app_file tables")
}
