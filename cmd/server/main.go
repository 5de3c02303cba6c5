package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"voicevault-backend/config"
	"voicevault-backend/handlers"
	"voicevault-backend/metrics"
	"voicevault-backend/repository"
	"voicevault-backend/service"
	"voicevault-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/option"
)

// database bundles the record stores for the configured driver
type database struct {
	files service.FileRecordStore
	users handlers.UserLookup
	close func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run wires the server and blocks until it stops; deferred cleanup runs on every exit path
func run() error {
	envLoaded := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := config.SetupLogger(cfg)
	if !envLoaded {
		logger.Warn("No .env file found, using environment variables")
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.close()

	fileStorage, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", slog.String("type", string(cfg.Storage.Type)))

	fileService := service.NewFileService(
		service.WithFileRecordStore(db.files),
		service.WithStorage(fileStorage),
		service.WithLogger(logger),
	)

	transcriber, closeGemini, err := initTranscription(ctx, cfg, fileService, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Gemini: %w", err)
	}
	defer closeGemini()

	fileHandler := handlers.NewFileHandler(fileService, transcriber, cfg.MaxUploadSize, logger)

	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestLogger(logger), metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterFileRoutes(r, fileHandler, handlers.RequireUser(db.users))

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("SQLite database opened", slog.String("path", cfg.SQLitePath))
		return &database{
			files: repository.NewSQLiteFileRepository(db),
			users: repository.NewSQLiteUserRepository(db),
			close: func() { db.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("Postgres connection established")
		return &database{
			files: repository.NewFileRepository(pool),
			users: repository.NewUserRepository(pool),
			close: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.DatabaseDriver)
	}
}

// initTranscription returns a nil service when no Gemini key is configured
func initTranscription(ctx context.Context, cfg *config.Config, files *service.FileService, logger *slog.Logger) (*service.TranscriptionService, func(), error) {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, transcription disabled")
		return nil, func() {}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Gemini client initialized", slog.String("model", cfg.GeminiModel))

	transcriber := service.NewTranscriptionService(
		service.TranscribeWithFileService(files),
		service.TranscribeWithAudioModel(service.NewGeminiAudioModel(client, cfg.GeminiModel)),
		service.TranscribeWithLogger(logger),
	)
	return transcriber, func() { client.Close() }, nil
}
