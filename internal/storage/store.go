// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/ownshare/ownshare/internal/models"
)

// Store defines the persistence contract for the quota engine.
//
// Methods that mutate several rows are atomic: the implementation performs
// every write inside one transaction and rolls all of them back on error.
// The check-then-insert sequences (reservation overlap, checklist
// uniqueness) run inside that same transaction so concurrent callers cannot
// both pass the check. Balance and fraction mutations are expressed as
// deltas and applied arithmetically in the database, never as absolute
// values computed from an earlier read, so a write that commits between a
// caller's read and its mutation is not lost. Multi-membership writes are
// applied in ascending membership-id order.
type Store interface {
	// CreateProperty persists a new property, assigning ID and CreatedAt
	// if unset.
	CreateProperty(ctx context.Context, p *models.Property) error

	// GetProperty retrieves a property by ID.
	GetProperty(ctx context.Context, id string) (*models.Property, error)

	// RebaseProperty atomically updates a property's total fraction count
	// and day credit and rebases every membership balance to the full-year
	// value of its current fraction count under the new credit.
	RebaseProperty(ctx context.Context, propertyID string, totalFractions int, dayCredit float64) error

	// CreateMembership persists a new membership, assigning ID and
	// CreatedAt if unset.
	CreateMembership(ctx context.Context, m *models.Membership) error

	// GetMembership retrieves the membership of one owner on one property.
	GetMembership(ctx context.Context, propertyID, ownerID string) (*models.Membership, error)

	// ListMemberships returns a property's memberships ordered oldest
	// first (creation time, then id).
	ListMemberships(ctx context.Context, propertyID string) ([]models.Membership, error)

	// ListFundedMemberships pages through memberships holding at least one
	// fraction on active properties, joined with the property day credit.
	ListFundedMemberships(ctx context.Context, limit, offset int) ([]models.FundedMembership, error)

	// ResetMembershipBalance rebases one membership's day balance to the
	// full-year value of its current fraction count, computed in the
	// database.
	ResetMembershipBalance(ctx context.Context, membershipID string, dayCredit float64) error

	// ApplyFractionTransfer moves count fractions in one transaction:
	// the giver loses count fractions and fromDebit balance (floored at
	// zero), the receiver gains count fractions and toCredit balance. The
	// giver's fraction count is re-guarded in the database.
	ApplyFractionTransfer(ctx context.Context, fromID, toID string, count int, fromDebit, toCredit float64) error

	// ApplyRedistribution deletes the departing membership and applies
	// each grant in one transaction: the receiver gains the granted
	// fractions and its balance is recomputed from its resulting fraction
	// count at the grant's day rate.
	ApplyRedistribution(ctx context.Context, departingID string, grants []models.FractionGrant) error

	// BookReservation re-checks the property calendar for an overlapping
	// non-cancelled reservation, inserts the new reservation, and debits
	// nights from the owning membership's balance, all in one
	// transaction. The balance is re-guarded in the database; a stale
	// caller read cannot overdraw it.
	BookReservation(ctx context.Context, r *models.Reservation, membershipID string, nights float64) error

	// GetReservation retrieves a reservation by ID.
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)

	// ListFutureConfirmed returns an owner's confirmed reservations that
	// end after the given date. A blank ownerID matches every owner.
	ListFutureConfirmed(ctx context.Context, propertyID, ownerID string, from time.Time) ([]models.Reservation, error)

	// CancelReservation sets the reservation status to cancelled, credits
	// nights back onto the membership balance, and records the optional
	// penalty, all in one transaction.
	CancelReservation(ctx context.Context, reservationID, membershipID string, credit float64, p *models.Penalty) error

	// ListPenalties returns an owner's penalties on a property.
	ListPenalties(ctx context.Context, propertyID, ownerID string) ([]models.Penalty, error)

	// SaveChecklist inserts an inventory checklist, failing if one of the
	// same kind already exists for the reservation. When complete is true
	// the reservation transitions to Completed in the same transaction.
	SaveChecklist(ctx context.Context, c *models.Checklist, complete bool) error

	// CreateExpenseWithPayments persists an expense and its per-owner
	// payment rows in one transaction.
	CreateExpenseWithPayments(ctx context.Context, e *models.Expense, payments []models.ExpensePayment) error

	// GetExpense retrieves an expense by ID.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// ListPayments returns the payment rows of one expense.
	ListPayments(ctx context.Context, expenseID string) ([]models.ExpensePayment, error)

	// SettlePayment marks one owner's payment as paid and advances the
	// expense status (PartiallyPaid, then Paid once every row is settled)
	// in the same transaction. It returns the resulting status.
	SettlePayment(ctx context.Context, expenseID, ownerID string) (models.ExpenseStatus, error)

	// ListRecurringTemplates returns every recurrence template.
	ListRecurringTemplates(ctx context.Context) ([]models.Expense, error)

	// FindInstanceInPeriod returns a spawned instance of the template
	// created in [from, to), or nil when none exists.
	FindInstanceInPeriod(ctx context.Context, templateID string, from, to time.Time) (*models.Expense, error)

	// MarkExpensesOverdue bulk-transitions pending and partially paid
	// expenses past their due date to Overdue, returning the count.
	MarkExpensesOverdue(ctx context.Context, asOf time.Time) (int64, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
