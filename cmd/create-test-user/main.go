package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"voicevault-backend/config"
	"voicevault-backend/models"
	"voicevault-backend/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := config.SetupLogger(cfg)
	ctx := context.Background()

	var users userStore
	if cfg.DatabaseDriver == config.DriverSQLite {
		db, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Error("Failed to open SQLite database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close()
		users = repository.NewSQLiteUserRepository(db)
	} else {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		users = repository.NewUserRepository(pool)
	}

	email := "test@example.com"
	password := "testpassword123"
	login := "test"

	existing, err := users.GetByEmail(ctx, email)
	if err == nil {
		logger.Info("User already exists", slog.String("email", email), slog.Int64("id", existing.ID))
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logger.Error("Failed to look up user", slog.String("error", err.Error()))
		os.Exit(1)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", slog.String("error", err.Error()))
		os.Exit(1)
	}

	user := &models.User{Login: login, Email: email, PasswordHash: string(hashedPassword)}
	if err := users.Create(ctx, user); err != nil {
		logger.Error("Failed to create user", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Test user created\n")
	fmt.Printf("   ID: %d\n", user.ID)
	fmt.Printf("   Email: %s\n", email)
	fmt.Printf("   Password: %s\n", password)
}
