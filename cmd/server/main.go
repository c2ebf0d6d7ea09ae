// Package main implements the entry point for the TaskHive API server,
// which manages users' personal tasks with subtasks, recurrence rules,
// file attachments, and shared categories.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/jcarver/taskhive/internal/config"
	"github.com/jcarver/taskhive/internal/platform/logger"
)

// main initializes configuration, logging, the database connection, and
// application dependencies, then starts the HTTP server and blocks until
// shutdown.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// run performs all startup steps and returns an error instead of exiting,
// keeping main small and the startup path testable.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(context.Background())
}
