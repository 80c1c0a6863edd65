package models

import "time"

// ExpenseStatus is the settlement state of an expense.
type ExpenseStatus string

const (
	ExpensePending       ExpenseStatus = "pending"
	ExpensePartiallyPaid ExpenseStatus = "partially_paid"
	ExpensePaid          ExpenseStatus = "paid"
	ExpenseOverdue       ExpenseStatus = "overdue"
	ExpenseCancelled     ExpenseStatus = "cancelled"
)

// RecurrenceFrequency controls how often a template spawns instances.
type RecurrenceFrequency string

const (
	RecurrenceNone    RecurrenceFrequency = ""
	RecurrenceDaily   RecurrenceFrequency = "daily"
	RecurrenceWeekly  RecurrenceFrequency = "weekly"
	RecurrenceMonthly RecurrenceFrequency = "monthly"
	RecurrenceYearly  RecurrenceFrequency = "yearly"
)

// Expense is a shared cost apportioned across a property's owners.
//
// When Recurring is true the expense is a recurrence template: it is never
// paid directly, it only spawns child instances. Spawned instances carry
// TemplateID pointing back at the template that produced them.
type Expense struct {
	ID         string
	PropertyID string

	// Description is the human-readable label, copied to spawned instances.
	Description string

	// Amount is the total cost. The per-owner payment rows for this
	// expense always sum to Amount exactly.
	Amount float64

	DueDate time.Time
	Status  ExpenseStatus

	// Recurring marks this expense as a recurrence template.
	Recurring bool

	// RecurrenceFrequency and RecurrenceDay define the spawn rule.
	// RecurrenceDay means: weekday number (Sunday=0) for weekly, day of
	// month (clipped to month length) for monthly; unused otherwise.
	// Yearly templates recur on the month and day of their own DueDate.
	RecurrenceFrequency RecurrenceFrequency
	RecurrenceDay       int

	// TemplateID is set on spawned instances only.
	TemplateID string

	CreatedAt int64
}

// ExpensePayment is one owner's share of one expense.
type ExpensePayment struct {
	ExpenseID  string
	OwnerID    string
	AmountOwed float64
	Paid       bool
}
