// Package models defines the core domain models for the shared-ownership engine.
//
// # Models
//
//   - Property: a physical property divided into a fixed number of fractions
//   - Membership: one owner's stake in one property (fractions + day balance)
//   - Reservation: a booked date range against a property's calendar
//   - Penalty: an advisory booking block created by late cancellations
//   - Expense: a shared cost, possibly a recurrence template
//   - ExpensePayment: one owner's share of an expense
//   - Checklist: an inventory-condition record taken at check-in/check-out
//
// # Design Principles
//
//  1. **Flat DTOs**: relationships are ID strings, never pointers into a
//     shared object graph. The engine re-reads what it needs inside each
//     transaction.
//  2. **End-exclusive ranges**: a reservation covers [StartDate, EndDate),
//     so nights = EndDate - StartDate.
//  3. **Single currency**: money is a float64 amount rounded to cents at
//     split boundaries; per-expense payment rows always sum to the expense
//     amount exactly.
package models
