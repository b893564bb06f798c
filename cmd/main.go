package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/faculty-league/config"
	"github.com/Dosada05/faculty-league/db"
	"github.com/Dosada05/faculty-league/handlers"
	"github.com/Dosada05/faculty-league/livescore"
	"github.com/Dosada05/faculty-league/metrics"
	"github.com/Dosada05/faculty-league/repositories"
	"github.com/Dosada05/faculty-league/routes"
	"github.com/Dosada05/faculty-league/services"
	"github.com/Dosada05/faculty-league/storage"
	"github.com/Dosada05/faculty-league/utils"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("stats_reversal_mode", string(cfg.StatsReversalMode)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище: Postgres, если задан DATABASE_URL, иначе память
	var repos *repositories.Repositories
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Open(ctx, cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			logger.Error("failed to open database", slog.Any("error", err))
			os.Exit(1)
		}
		defer closeDB(logger, dbConn)
		logger.Info("database ready")
		repos = repositories.NewPostgresRepositories(dbConn)
	} else {
		logger.Warn("DATABASE_URL is not set, using the in-memory store")
		repos = repositories.NewMemoryRepositories()
	}

	if cfg.SeedDemoData {
		if err := seedDemo(ctx, cfg, repos); err != nil {
			logger.Error("failed to seed demo data", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Инициализация загрузчика файлов (Cloudflare R2)
	var uploader storage.FileUploader
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage is not configured, crest uploads are disabled")
	}

	metricsManager := metrics.NewManager()

	// Инициализация WebSocket Hub
	hub := livescore.NewHub()
	go hub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация сервисов
	activityService := services.NewActivityService(repos.Activity, metricsManager, logger)
	statsService := services.NewStatsService(repos.Tx, repos.Faculties, cfg.StatsReversalMode, metricsManager, logger)
	matchService := services.NewMatchService(repos, statsService, activityService, hub, uploader, metricsManager, logger)
	facultyService := services.NewFacultyService(repos.Faculties, repos.Matches, repos.Seasons, activityService, uploader, logger)
	seasonService := services.NewSeasonService(repos, activityService, hub, logger)
	portalService := services.NewPortalService(repos, uploader, metricsManager, logger)
	authService := services.NewAuthService(repos.Users, services.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}, cfg.JWTSecretKey, cfg.AdminEmails)
	if !authService.GoogleEnabled() {
		logger.Warn("Google OAuth is not configured, only password login is available")
	}
	logger.Info("Services initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.SecureCookies, cfg.PostLoginRedirect),
		Portal:    handlers.NewPortalHandler(portalService),
		Matches:   handlers.NewMatchHandler(matchService),
		Faculties: handlers.NewFacultyHandler(facultyService),
		Seasons:   handlers.NewSeasonHandler(seasonService),
		Activity:  handlers.NewActivityHandler(activityService),
		WebSocket: handlers.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins),
	}, routes.Options{
		Tokens:         authService,
		Metrics:        metricsManager,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}

func seedDemo(ctx context.Context, cfg *config.Config, repos *repositories.Repositories) error {
	var adminEmail, passwordHash string
	if len(cfg.AdminEmails) > 0 {
		adminEmail = cfg.AdminEmails[0]
	}
	if adminEmail != "" && cfg.AdminPassword != "" {
		hash, err := utils.HashPassword(cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		passwordHash = hash
	}
	return repositories.SeedDemo(ctx, repos, adminEmail, passwordHash)
}

func closeDB(logger *slog.Logger, dbConn *sql.DB) {
	if err := dbConn.Close(); err != nil {
		logger.Error("failed to close database connection", slog.Any("error", err))
		return
	}
	logger.Info("database connection closed")
}
