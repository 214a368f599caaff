package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/agentdesk/internal/config"
	"github.com/phrazzld/agentdesk/internal/platform/postgres"
	"github.com/phrazzld/agentdesk/internal/redact"
)

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"

	pingTimeout = 5 * time.Second
)

// setupAppDatabase opens the connection pool, verifies it is reachable and
// applies pending migrations.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %s", redact.Error(err))
	}
	logger.Info("database connection established",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns)

	if err := postgres.Migrate(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
