package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/agentdesk/internal/agent"
	"github.com/phrazzld/agentdesk/internal/completion"
	"github.com/phrazzld/agentdesk/internal/config"
	"github.com/phrazzld/agentdesk/internal/platform/echo"
	"github.com/phrazzld/agentdesk/internal/platform/gemini"
	"github.com/phrazzld/agentdesk/internal/platform/memory"
	"github.com/phrazzld/agentdesk/internal/platform/postgres"
	"github.com/phrazzld/agentdesk/internal/ratelimit"
	"github.com/phrazzld/agentdesk/internal/service"
	"github.com/phrazzld/agentdesk/internal/service/auth"
	"github.com/phrazzld/agentdesk/internal/store"
	"github.com/phrazzld/agentdesk/internal/task"
	"github.com/redis/go-redis/v9"
)

const runLimitKeyPrefix = "agentdesk:run:"

// application holds the shared dependencies of the server so they can be
// built once and released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore    store.UserStore
	profileStore store.ProfileStore
	taskStore    store.TaskStore
	logStore     store.LogStore

	tokens     auth.TokenService
	completion completion.Service

	userService service.UserService
	taskService service.TaskService
	logService  service.LogService

	reaper      *task.Reaper
	redis       *redis.Client
	runLimiter  ratelimit.Allower
	cleanupOnce sync.Once
}

// newApplication builds every component. db must be non-nil when the
// postgres driver is configured and is ignored otherwise.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := app.setupStores(); err != nil {
		return nil, err
	}

	var err error
	app.tokens, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("token service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)
	hasher := auth.NewBcrypt(cfg.Auth.BCryptCost)

	app.completion, err = newCompletionService(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	app.logService = service.NewLogService(app.logStore, app.userStore, logger)
	app.userService = service.NewUserService(app.userStore, app.profileStore, app.tokens, hasher, hasher, logger)

	pipeline, err := agent.NewPipeline(app.completion, app.taskStore, app.logService, cfg.LLM.Timeout(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent pipeline: %w", err)
	}
	app.taskService, err = service.NewTaskService(app.taskStore, pipeline, app.logService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.reaper, err = task.NewReaper(app.taskStore, app.logService, task.ReaperConfig{
		Interval:   cfg.Task.ReaperInterval(),
		StaleAfter: cfg.Task.StaleAfter(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create stale run reaper: %w", err)
	}

	if cfg.RateLimit.Enabled() {
		if err := app.setupRateLimit(ctx); err != nil {
			return nil, err
		}
	}

	return app, nil
}

func (app *application) setupStores() error {
	switch app.config.Database.Driver {
	case driverPostgres:
		if app.db == nil {
			return errors.New("postgres driver requires a database connection")
		}
		app.userStore = postgres.NewPostgresUserStore(app.db)
		app.profileStore = postgres.NewPostgresProfileStore(app.db)
		app.taskStore = postgres.NewPostgresTaskStore(app.db)
		app.logStore = postgres.NewPostgresLogStore(app.db)
	case driverMemory:
		app.userStore = memory.NewUserStore()
		app.profileStore = memory.NewProfileStore()
		app.taskStore = memory.NewTaskStore()
		app.logStore = memory.NewLogStore()
		app.logger.Warn("using in-memory storage, data will not survive a restart")
	default:
		return fmt.Errorf("unsupported database driver %q", app.config.Database.Driver)
	}
	return nil
}

func newCompletionService(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (completion.Service, error) {
	switch cfg.Provider {
	case "gemini":
		svc, err := gemini.New(ctx, logger, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize completion backend: %w", err)
		}
		logger.Info("completion backend initialized", "provider", cfg.Provider, "model", cfg.ModelName)
		return svc, nil
	case "echo":
		logger.Warn("using offline echo completion backend")
		return echo.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", completion.ErrInvalidConfig, cfg.Provider)
	}
}

// setupRateLimit connects to Redis and builds the per-user run limiter. An
// unreachable Redis is logged but not fatal; the limiter fails open.
func (app *application) setupRateLimit(ctx context.Context) error {
	rl := app.config.RateLimit
	app.redis = redis.NewClient(&redis.Options{
		Addr:     rl.RedisAddr,
		Password: rl.RedisPassword,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := app.redis.Ping(pingCtx).Err(); err != nil {
		app.logger.Warn("redis unreachable, run rate limiting will fail open",
			"redis_addr", rl.RedisAddr,
			"error", err)
	}

	limiter, err := ratelimit.NewLimiter(app.redis, runLimitKeyPrefix, rl.RunLimit, rl.Window())
	if err != nil {
		_ = app.redis.Close()
		return fmt.Errorf("failed to create run rate limiter: %w", err)
	}
	app.runLimiter = limiter
	app.logger.Info("run rate limiting enabled",
		"limit", rl.RunLimit,
		"window", rl.Window().String())
	return nil
}

// cleanup stops background work and closes connections. It is safe to call
// more than once.
func (app *application) cleanup() {
	app.cleanupOnce.Do(func() {
		app.logger.Info("cleaning up application resources")
		if app.reaper != nil {
			app.reaper.Stop()
		}
		if app.redis != nil {
			if err := app.redis.Close(); err != nil {
				app.logger.Error("failed to close redis client", "error", err)
			}
		}
		if app.db != nil {
			if err := app.db.Close(); err != nil {
				app.logger.Error("failed to close database connection", "error", err)
			}
		}
	})
}
