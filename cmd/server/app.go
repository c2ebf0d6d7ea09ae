package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jcarver/taskhive/internal/config"
	"github.com/jcarver/taskhive/internal/platform/filestore"
	"github.com/jcarver/taskhive/internal/platform/postgres"
	"github.com/jcarver/taskhive/internal/service"
	"github.com/jcarver/taskhive/internal/service/auth"
	"github.com/jcarver/taskhive/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config

	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	taskStore     store.TaskStore
	categoryStore store.CategoryStore
	fileStore     store.FileStore

	// Service interfaces
	jwtService  auth.JWTService
	taskService service.TaskService
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized")

	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.categoryStore = postgres.NewPostgresCategoryStore(db, logger)
	app.fileStore = filestore.NewLocalFileStore(cfg.Storage.UploadDir, logger)

	app.taskService, err = service.NewTaskService(
		app.taskStore,
		app.categoryStore,
		app.fileStore,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
