// Package jobs runs the periodic maintenance work: the annual balance
// reset, the overdue-expense sweep, and recurring-expense generation. Jobs
// are idempotent and tolerate per-entity failures; one bad row never stops
// the sweep.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/ownshare/ownshare/internal/expense"
	"github.com/ownshare/ownshare/internal/metrics"
	"github.com/ownshare/ownshare/internal/storage"
)

// Runner executes the maintenance jobs against the store.
type Runner struct {
	store     storage.Store
	expenses  *expense.Service
	batchSize int
}

// NewRunner creates a job runner. batchSize bounds how many memberships the
// annual reset loads per query.
func NewRunner(store storage.Store, expenses *expense.Service, batchSize int) *Runner {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Runner{store: store, expenses: expenses, batchSize: batchSize}
}

// AnnualReset rebases every funded membership on an active property to the
// full-year value of its fraction count. It runs at the year boundary, so
// no pro-rata scaling applies. Each membership is written in its own
// transaction; failures are logged and skipped.
func (r *Runner) AnnualReset(ctx context.Context, asOf time.Time) error {
	metrics.JobRuns.WithLabelValues("annual_reset").Inc()

	reset, failed := 0, 0
	for offset := 0; ; offset += r.batchSize {
		batch, err := r.store.ListFundedMemberships(ctx, r.batchSize, offset)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}

		for _, fm := range batch {
			// The balance comes from the row's fraction count inside the
			// update, so a transfer landing mid-sweep is not clobbered.
			if err := r.store.ResetMembershipBalance(ctx, fm.ID, fm.DayCreditPerFraction); err != nil {
				failed++
				metrics.JobEntityFailures.WithLabelValues("annual_reset").Inc()
				slog.Error("annual reset failed for membership, continuing",
					"membership_id", fm.ID,
					"error", err,
				)
				continue
			}
			reset++
		}

		if len(batch) < r.batchSize {
			break
		}
	}

	slog.Info("annual balance reset completed",
		"as_of", asOf.Format("2006-01-02"),
		"reset", reset,
		"failed", failed,
	)
	return nil
}

// OverdueSweep bulk-transitions pending and partially paid expenses past
// their due date to Overdue.
func (r *Runner) OverdueSweep(ctx context.Context, asOf time.Time) (int64, error) {
	metrics.JobRuns.WithLabelValues("overdue_sweep").Inc()

	n, err := r.store.MarkExpensesOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}
	slog.Info("overdue expense sweep completed",
		"as_of", asOf.Format("2006-01-02"),
		"marked_overdue", n,
	)
	return n, nil
}

// RecurringExpenseSweep walks every recurrence template and spawns the due
// instances. One template's failure does not stop the others.
func (r *Runner) RecurringExpenseSweep(ctx context.Context, asOf time.Time) error {
	metrics.JobRuns.WithLabelValues("recurring_sweep").Inc()

	templates, err := r.store.ListRecurringTemplates(ctx)
	if err != nil {
		return err
	}

	spawned, failed := 0, 0
	for i := range templates {
		instance, err := r.expenses.GenerateRecurringInstance(ctx, &templates[i], asOf)
		if err != nil {
			failed++
			metrics.JobEntityFailures.WithLabelValues("recurring_sweep").Inc()
			slog.Error("recurring expense generation failed, continuing",
				"template_id", templates[i].ID,
				"error", err,
			)
			continue
		}
		if instance != nil {
			spawned++
		}
	}

	slog.Info("recurring expense sweep completed",
		"as_of", asOf.Format("2006-01-02"),
		"templates", len(templates),
		"spawned", spawned,
		"failed", failed,
	)
	return nil
}
