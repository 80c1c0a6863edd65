package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ownshare/ownshare/internal/config"
)

// Scheduler wires the maintenance jobs to cron specifications. Jobs run
// sequentially relative to themselves; each invocation gets a fresh context.
type Scheduler struct {
	cron      *cron.Cron
	runner    *Runner
	cfg       config.JobsConfig
	isRunning bool
}

// NewScheduler creates a scheduler around the given runner.
func NewScheduler(runner *Runner, cfg config.JobsConfig) *Scheduler {
	return &Scheduler{cron: cron.New(), runner: runner, cfg: cfg}
}

// Start registers the cron entries and starts the scheduler.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		slog.Info("maintenance jobs disabled in configuration")
		return nil
	}

	entries := []struct {
		name string
		spec string
		run  func(ctx context.Context, asOf time.Time) error
	}{
		{"annual_reset", s.cfg.AnnualResetSpec, s.runner.AnnualReset},
		{"overdue_sweep", s.cfg.OverdueSweepSpec, func(ctx context.Context, asOf time.Time) error {
			_, err := s.runner.OverdueSweep(ctx, asOf)
			return err
		}},
		{"recurring_sweep", s.cfg.RecurringSweepSpec, s.runner.RecurringExpenseSweep},
	}

	for _, e := range entries {
		name, run := e.name, e.run
		if _, err := s.cron.AddFunc(e.spec, func() {
			slog.Info("maintenance job starting", "job", name)
			if err := run(context.Background(), time.Now()); err != nil {
				slog.Error("maintenance job failed", "job", name, "error", err)
				return
			}
			slog.Info("maintenance job finished", "job", name)
		}); err != nil {
			return err
		}
		slog.Info("maintenance job scheduled", "job", name, "spec", e.spec)
	}

	s.cron.Start()
	s.isRunning = true
	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		slog.Info("maintenance scheduler stopped")
	}
}

// RunNow immediately executes the daily sweeps once (for manual trigger).
// The annual reset is excluded: rebasing balances to full-year values
// mid-year would hand out nights nobody earned.
func (s *Scheduler) RunNow(ctx context.Context) error {
	now := time.Now()
	if _, err := s.runner.OverdueSweep(ctx, now); err != nil {
		return err
	}
	return s.runner.RecurringExpenseSweep(ctx, now)
}
