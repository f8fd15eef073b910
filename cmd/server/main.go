package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jimdaga/apod-auth/internal/auth"
	"github.com/jimdaga/apod-auth/internal/config"
	"github.com/jimdaga/apod-auth/internal/database"
	"github.com/jimdaga/apod-auth/internal/logging"
	"github.com/jimdaga/apod-auth/internal/password"
	"github.com/jimdaga/apod-auth/internal/server"
	"github.com/jimdaga/apod-auth/internal/streams"
	"github.com/jimdaga/apod-auth/internal/token"
	"github.com/jimdaga/apod-auth/internal/users"
	"github.com/jimdaga/apod-auth/internal/validation"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	policy, err := validation.LoadPasswordPolicy(cfg.PasswordPolicyFile)
	if err != nil {
		logger.Error("Failed to load password policy", "path", cfg.PasswordPolicyFile, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := openDatabase(cfg, logger)
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	store := users.NewStore(db)
	hasher := password.NewHasher(cfg.BcryptCost)
	// build the login decoy digest before the first request needs it
	hasher.Decoy()

	deps := auth.Deps{
		Users:     store,
		Hasher:    hasher,
		Tokens:    token.NewIssuer(cfg.JWTPrivateKey, cfg.TokenTTL),
		Validator: validation.New(policy),
		Logger:    logger,
	}

	if cfg.GoogleClientID != "" {
		verifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			logger.Error("Failed to initialize Google verifier", "error", err)
		} else {
			deps.Google = verifier
		}
	}

	if cfg.RedisURL != "" {
		publisher, err := streams.NewPublisher(cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to initialize auth event publisher", "error", err)
		} else {
			deps.Events = publisher
			defer publisher.Close()
			logger.Info("Auth events enabled", "stream", streams.StreamAuthEvents)
		}
	}

	if cfg.SeedDevData && cfg.IsDevelopment() && db != nil {
		if err := database.SeedDevData(ctx, store, hasher); err != nil {
			logger.Error("Failed to seed development data", "error", err)
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	handlers := auth.NewHandlers(auth.NewService(deps), cfg.IsDevelopment())
	ready := func(ctx context.Context) error { return database.Ping(ctx, db) }
	router := server.NewRouter(cfg, logger, ready, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
}

// openDatabase connects and migrates. Failures are logged and yield a nil
// handle: the server still starts and store calls report ErrNoDatabase.
func openDatabase(cfg *config.Config, logger *slog.Logger) *gorm.DB {
	dsn, err := cfg.DatabaseDSN()
	if err != nil {
		logger.Error("Database not configured", "error", err)
		return nil
	}

	db, err := database.Init(dsn)
	if err != nil {
		logger.Error("Database connection failed", "error", err)
		return nil
	}

	if err := database.RunMigrations(db); err != nil {
		logger.Error("Database migration failed", "error", err)
	}

	logger.Info("Database connected")
	return db
}
