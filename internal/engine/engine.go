// Package engine bundles the core services behind one constructor. Callers
// embed the engine and invoke its operations as plain Go calls; transports
// live outside this module.
package engine

import (
	"github.com/ownshare/ownshare/internal/booking"
	"github.com/ownshare/ownshare/internal/expense"
	"github.com/ownshare/ownshare/internal/holiday"
	"github.com/ownshare/ownshare/internal/jobs"
	"github.com/ownshare/ownshare/internal/ledger"
	"github.com/ownshare/ownshare/internal/notify"
	"github.com/ownshare/ownshare/internal/storage"
)

// Engine is the synchronous call surface of the quota and expense core.
type Engine struct {
	Ledger   *ledger.Service
	Booking  *booking.Service
	Expenses *expense.Service
	Jobs     *jobs.Runner
}

// New wires the services against one store. holidays and notifier may be
// nil; the corresponding features degrade gracefully.
func New(store storage.Store, holidays holiday.Source, notifier *notify.Dispatcher, jobBatchSize int) *Engine {
	expenses := expense.NewService(store, notifier)
	return &Engine{
		Ledger:   ledger.NewService(store, notifier),
		Booking:  booking.NewService(store, holidays, notifier),
		Expenses: expenses,
		Jobs:     jobs.NewRunner(store, expenses, jobBatchSize),
	}
}
