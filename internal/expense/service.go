package expense

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ownshare/ownshare/internal/apperr"
	"github.com/ownshare/ownshare/internal/metrics"
	"github.com/ownshare/ownshare/internal/models"
	"github.com/ownshare/ownshare/internal/notify"
	"github.com/ownshare/ownshare/internal/storage"
)

// Service creates expenses, apportions them across current memberships, and
// spawns instances from recurrence templates.
type Service struct {
	store    storage.Store
	notifier *notify.Dispatcher
}

// NewService creates an expense service. notifier may be nil.
func NewService(store storage.Store, notifier *notify.Dispatcher) *Service {
	return &Service{store: store, notifier: notifier}
}

// Create persists an expense and its per-owner payment rows in one
// transaction. Recurrence templates are persisted without payment rows;
// their spawned instances carry the splits.
func (s *Service) Create(ctx context.Context, e *models.Expense) error {
	if e.Recurring && e.RecurrenceFrequency == models.RecurrenceNone {
		return apperr.New(apperr.Validation, "recurring expense needs a recurrence frequency")
	}
	if !e.Recurring && e.RecurrenceFrequency != models.RecurrenceNone {
		return apperr.New(apperr.Validation, "recurrence frequency requires a recurring expense")
	}

	var payments []models.ExpensePayment
	if !e.Recurring {
		memberships, err := s.store.ListMemberships(ctx, e.PropertyID)
		if err != nil {
			return err
		}
		participants := ShareParticipants(memberships)
		payments, err = Split(e.Amount, participants)
		if err != nil {
			return err
		}
	} else if e.Amount <= 0 {
		return apperr.New(apperr.Validation, "expense amount must be positive, got %.2f", e.Amount)
	}

	if err := s.store.CreateExpenseWithPayments(ctx, e, payments); err != nil {
		return err
	}

	if !e.Recurring {
		metrics.ExpensesSplit.Inc()
	}
	slog.Info("expense created",
		"expense_id", e.ID,
		"property_id", e.PropertyID,
		"amount", e.Amount,
		"recurring", e.Recurring,
		"shares", len(payments),
	)
	s.notify(e.PropertyID, "", fmt.Sprintf("expense %q of %.2f recorded", e.Description, e.Amount))
	return nil
}

// RecordPayment marks one owner's share as paid and advances the expense
// status.
func (s *Service) RecordPayment(ctx context.Context, expenseID, ownerID string) (models.ExpenseStatus, error) {
	status, err := s.store.SettlePayment(ctx, expenseID, ownerID)
	if err != nil {
		return "", err
	}
	slog.Info("expense payment settled",
		"expense_id", expenseID,
		"owner_id", ownerID,
		"status", string(status),
	)
	return status, nil
}

// GenerateRecurringInstance spawns the template's expense for the period
// containing asOf, if the recurrence rule fires on asOf and no instance for
// that period exists yet. Calling it again in the same period is a no-op.
func (s *Service) GenerateRecurringInstance(ctx context.Context, template *models.Expense, asOf time.Time) (*models.Expense, error) {
	if !template.Recurring {
		return nil, apperr.New(apperr.Validation, "expense %s is not a recurrence template", template.ID)
	}

	periodStart, periodEnd := periodBounds(template.RecurrenceFrequency, asOf)
	existing, err := s.store.FindInstanceInPeriod(ctx, template.ID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		slog.Debug("recurring instance already spawned this period",
			"template_id", template.ID,
			"instance_id", existing.ID,
		)
		return nil, nil
	}

	if !dueToday(template, asOf) {
		return nil, nil
	}

	memberships, err := s.store.ListMemberships(ctx, template.PropertyID)
	if err != nil {
		return nil, err
	}
	payments, err := Split(template.Amount, ShareParticipants(memberships))
	if err != nil {
		return nil, err
	}

	instance := &models.Expense{
		PropertyID:  template.PropertyID,
		Description: template.Description,
		Amount:      template.Amount,
		DueDate:     day(asOf),
		Status:      models.ExpensePending,
		TemplateID:  template.ID,
		// Stamped with the period's canonical date so the per-period
		// idempotency check holds for catch-up runs and for clocks in
		// any timezone.
		CreatedAt: day(asOf).Unix(),
	}
	if err := s.store.CreateExpenseWithPayments(ctx, instance, payments); err != nil {
		return nil, err
	}

	metrics.ExpensesSplit.Inc()
	slog.Info("recurring expense spawned",
		"template_id", template.ID,
		"instance_id", instance.ID,
		"amount", instance.Amount,
		"due_date", instance.DueDate.Format("2006-01-02"),
	)
	s.notify(template.PropertyID, "", fmt.Sprintf("recurring expense %q of %.2f is due", template.Description, template.Amount))
	return instance, nil
}

func (s *Service) notify(propertyID, authorID, body string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(notify.Message{PropertyID: propertyID, AuthorID: authorID, Body: body})
}
