package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-dataset-registry/internal/audit"
	"go-dataset-registry/internal/config"
	"go-dataset-registry/internal/database"
	"go-dataset-registry/internal/dataset"
	"go-dataset-registry/internal/handler"
	"go-dataset-registry/internal/logger"
	"go-dataset-registry/internal/middleware"
	"go-dataset-registry/internal/repository"
	"go-dataset-registry/internal/router"
	"go-dataset-registry/internal/service"
	"go-dataset-registry/internal/storage"
)

const apiVersion = "1.0.0"

type App struct {
	server          *http.Server
	db              *database.DB
	shutdownTimeout time.Duration
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data directory: %w", err)
	}

	lineSink, err := audit.NewLineSink(cfg.AuditLogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit log: %w", err)
	}

	// The audit trail always lands in the line file. A configured database
	// additionally mirrors every entry and takes over trail queries.
	var (
		db         *database.DB
		sink       audit.Sink = lineSink
		auditStore service.AuditStore
	)
	if cfg.DatabaseURL != "" {
		db, err = database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to audit mirror database: %w", err)
		}

		if err := db.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure audit mirror schema: %w", err)
		}

		auditRepo := repository.NewAuditRepository(db.Pool)
		sink = audit.NewMultiSink(lineSink, auditRepo)
		auditStore = auditRepo
	}

	authService, err := service.NewAuthService(cfg.UsersFile, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	sessions := service.NewSessionLog(cfg.SessionLogSize)
	datasetService := service.NewDatasetService(dataset.Builtin(), store, sink)
	auditService := service.NewAuditService(lineSink, auditStore)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handler.NewAuthHandler(authService, sessions)
	datasetHandler := handler.NewDatasetHandler(datasetService, sessions, cfg.MaxUploadSize)
	auditHandler := handler.NewAuditHandler(auditService, sessions)
	docsHandler := handler.NewDocsHandler(apiVersion)

	appRouter := router.New(cfg, authMiddleware, authHandler, datasetHandler, auditHandler, docsHandler)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server:          server,
		db:              db,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	// Drain in-flight requests before tearing down their dependencies.
	err := a.server.Shutdown(ctx)

	if a.db != nil {
		a.db.Close()
	}

	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
