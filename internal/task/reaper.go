package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/redact"
)

// StaleRunStore finds and fails runs that have been in progress too long.
type StaleRunStore interface {
	FailStaleRuns(ctx context.Context, cutoff time.Time) ([]*domain.Task, error)
}

// Recorder appends a run log entry.
type Recorder interface {
	Record(
		ctx context.Context,
		userID, taskID uuid.UUID,
		status domain.LogStatus,
		details string,
		duration time.Duration,
	)
}

// ReaperConfig controls how often the reaper sweeps and how old a run must
// be before it is abandoned.
type ReaperConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
}

// DefaultReaperConfig returns the defaults used when config leaves them unset.
func DefaultReaperConfig() ReaperConfig {
	return ReaperConfig{
		Interval:   time.Minute,
		StaleAfter: 5 * time.Minute,
	}
}

// Reaper moves tasks that were left running, typically by a crashed process,
// to the error state and records an error log entry for each.
type Reaper struct {
	store    StaleRunStore
	recorder Recorder
	config   ReaperConfig
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewReaper builds a reaper. Zero config values fall back to the defaults.
func NewReaper(store StaleRunStore, recorder Recorder, config ReaperConfig, logger *slog.Logger) (*Reaper, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if recorder == nil {
		return nil, errors.New("recorder cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	defaults := DefaultReaperConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = defaults.StaleAfter
	}

	return &Reaper{
		store:    store,
		recorder: recorder,
		config:   config,
		logger:   logger.With("component", "stale_run_reaper"),
		now:      time.Now,
	}, nil
}

// Start sweeps once immediately, to recover runs orphaned by a previous
// process, then keeps sweeping every Interval until Stop. Calling Start on a
// running reaper is an error.
func (r *Reaper) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return errors.New("reaper already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.started = true

	r.wg.Add(1)
	go r.loop(ctx)

	r.logger.Info("stale run reaper started",
		"interval", r.config.Interval.String(),
		"stale_after", r.config.StaleAfter.String())
	return nil
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
// It is safe to call more than once.
func (r *Reaper) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	r.wg.Wait()
	r.logger.Info("stale run reaper stopped")
}

func (r *Reaper) loop(ctx context.Context) {
	defer r.wg.Done()

	if _, err := r.Sweep(ctx); err != nil {
		r.logger.Error("initial stale run sweep failed", "error", redact.Error(err))
	}

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("stale run sweep failed", "error", redact.Error(err))
			}
		}
	}
}

// Sweep fails every run older than StaleAfter and returns how many it failed.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	now := r.now()
	failed, err := r.store.FailStaleRuns(ctx, now.Add(-r.config.StaleAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale runs: %w", err)
	}
	if len(failed) == 0 {
		return 0, nil
	}

	r.logger.Warn("abandoned runs moved to error", "count", len(failed))
	for _, t := range failed {
		var elapsed time.Duration
		if t.LastRun != nil {
			elapsed = now.Sub(*t.LastRun)
		}
		details := fmt.Sprintf("run abandoned: exceeded %s without completing", r.config.StaleAfter)
		r.recorder.Record(ctx, t.UserID, t.ID, domain.LogStatusError, details, elapsed)
		r.logger.Info("abandoned run failed",
			"task_id", t.ID,
			"user_id", t.UserID,
			"elapsed", elapsed.String())
	}
	return len(failed), nil
}
