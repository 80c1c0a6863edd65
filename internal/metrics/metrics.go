// Package metrics registers the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationsCreated counts successfully booked reservations.
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ownshare_reservations_created_total",
		Help: "Number of reservations booked.",
	})

	// ReservationsCancelled counts cancellations, split by whether a
	// late-cancellation penalty was issued.
	ReservationsCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ownshare_reservations_cancelled_total",
		Help: "Number of reservations cancelled.",
	}, []string{"penalized"})

	// ExpensesSplit counts expenses apportioned across owners.
	ExpensesSplit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ownshare_expenses_split_total",
		Help: "Number of expenses split across memberships.",
	})

	// JobRuns counts maintenance job executions by job name.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ownshare_job_runs_total",
		Help: "Number of maintenance job runs.",
	}, []string{"job"})

	// JobEntityFailures counts per-entity failures swallowed by jobs.
	JobEntityFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ownshare_job_entity_failures_total",
		Help: "Number of per-entity failures logged and skipped by maintenance jobs.",
	}, []string{"job"})

	// NotificationsDropped counts notifications discarded because the
	// queue was full.
	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ownshare_notifications_dropped_total",
		Help: "Number of notifications dropped due to a full queue.",
	})
)
