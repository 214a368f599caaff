// Package main is the entry point for the agentdesk API server. It loads
// configuration, connects storage and the completion backend, and serves
// the HTTP API until interrupted.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/phrazzld/agentdesk/internal/platform/telemetry"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "agentdesk: %v\n", err)
		os.Exit(1)
	}
}

// run wires the application and blocks until the server stops.
func run(ctx context.Context) (err error) {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}
	logger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"llm_provider", cfg.LLM.Provider,
		"rate_limit_enabled", cfg.RateLimit.Enabled(),
		"telemetry_enabled", cfg.Telemetry.Enabled)

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = errors.Join(err, shutdownTelemetry(flushCtx))
	}()

	var db *sql.DB
	if cfg.Database.Driver == driverPostgres {
		db, err = setupAppDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
	}

	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.startHTTPServer(ctx)
}
