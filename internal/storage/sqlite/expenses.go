package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ownshare/ownshare/internal/apperr"
	"github.com/ownshare/ownshare/internal/models"
)

const expenseColumns = `id, property_id, description, amount, due_date, status,
	recurring, recurrence_frequency, recurrence_day, template_id, created_at`

func scanExpense(row interface{ Scan(...any) error }) (*models.Expense, error) {
	e := &models.Expense{}
	var due, status, freq string
	var templateID sql.NullString
	if err := row.Scan(&e.ID, &e.PropertyID, &e.Description, &e.Amount, &due, &status,
		&e.Recurring, &freq, &e.RecurrenceDay, &templateID, &e.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if e.DueDate, err = parseDay(due); err != nil {
		return nil, err
	}
	e.Status = models.ExpenseStatus(status)
	e.RecurrenceFrequency = models.RecurrenceFrequency(freq)
	if templateID.Valid {
		e.TemplateID = templateID.String
	}
	return e, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateExpenseWithPayments persists an expense and its payment rows in one
// transaction.
func (s *SQLiteStore) CreateExpenseWithPayments(ctx context.Context, e *models.Expense, payments []models.ExpensePayment) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.Status == "" {
		e.Status = models.ExpensePending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PropertyID, e.Description, e.Amount, fmtDay(e.DueDate), string(e.Status),
		e.Recurring, string(e.RecurrenceFrequency), e.RecurrenceDay, nullable(e.TemplateID), e.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, p := range payments {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO expense_payments (expense_id, owner_id, amount_owed, paid) VALUES (?, ?, ?, ?)",
			e.ID, p.OwnerID, p.AmountOwed, p.Paid,
		); err != nil {
			return fmt.Errorf("failed to insert expense payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id,
	)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "expense not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// ListPayments returns the payment rows of one expense.
func (s *SQLiteStore) ListPayments(ctx context.Context, expenseID string) ([]models.ExpensePayment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT expense_id, owner_id, amount_owed, paid FROM expense_payments WHERE expense_id = ? ORDER BY owner_id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var out []models.ExpensePayment
	for rows.Next() {
		var p models.ExpensePayment
		if err := rows.Scan(&p.ExpenseID, &p.OwnerID, &p.AmountOwed, &p.Paid); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return out, nil
}

// SettlePayment marks one payment paid and advances the expense status in
// the same transaction.
func (s *SQLiteStore) SettlePayment(ctx context.Context, expenseID, ownerID string) (models.ExpenseStatus, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, "SELECT status FROM expenses WHERE id = ?", expenseID).Scan(&status)
	if err == sql.ErrNoRows {
		return "", apperr.New(apperr.NotFound, "expense not found: %s", expenseID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get expense status: %w", err)
	}
	if models.ExpenseStatus(status) == models.ExpenseCancelled {
		return "", apperr.New(apperr.Conflict, "expense %s is cancelled", expenseID)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE expense_payments SET paid = 1 WHERE expense_id = ? AND owner_id = ? AND paid = 0",
		expenseID, ownerID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to settle payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", apperr.New(apperr.Conflict, "no unpaid share for owner %s on expense %s", ownerID, expenseID)
	}

	var unpaid int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expense_payments WHERE expense_id = ? AND paid = 0",
		expenseID,
	).Scan(&unpaid); err != nil {
		return "", fmt.Errorf("failed to count unpaid shares: %w", err)
	}

	next := models.ExpensePartiallyPaid
	if unpaid == 0 {
		next = models.ExpensePaid
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE expenses SET status = ? WHERE id = ?",
		string(next), expenseID,
	); err != nil {
		return "", fmt.Errorf("failed to update expense status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return next, nil
}

// ListRecurringTemplates returns every recurrence template.
func (s *SQLiteStore) ListRecurringTemplates(ctx context.Context) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE recurring = 1 ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring templates: %w", err)
	}
	defer rows.Close()

	var out []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}
	return out, nil
}

// FindInstanceInPeriod returns the template's spawned instance created in
// [from, to), or nil when none exists.
func (s *SQLiteStore) FindInstanceInPeriod(ctx context.Context, templateID string, from, to time.Time) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE template_id = ? AND created_at >= ? AND created_at < ?
		 LIMIT 1`,
		templateID, from.Unix(), to.Unix(),
	)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find template instance: %w", err)
	}
	return e, nil
}

// MarkExpensesOverdue bulk-transitions pending and partially paid expenses
// past due to Overdue.
func (s *SQLiteStore) MarkExpensesOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET status = ? WHERE status IN (?, ?) AND recurring = 0 AND due_date < ?",
		string(models.ExpenseOverdue), string(models.ExpensePending), string(models.ExpensePartiallyPaid), fmtDay(asOf),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expenses overdue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count overdue expenses: %w", err)
	}
	return n, nil
}
