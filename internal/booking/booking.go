// Package booking schedules reservations against a property's shared
// calendar: conflict-free creation under per-owner quotas, cancellation with
// penalty policy, and check-in/check-out inventory records.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ownshare/ownshare/internal/apperr"
	"github.com/ownshare/ownshare/internal/holiday"
	"github.com/ownshare/ownshare/internal/identity"
	"github.com/ownshare/ownshare/internal/metrics"
	"github.com/ownshare/ownshare/internal/models"
	"github.com/ownshare/ownshare/internal/notify"
	"github.com/ownshare/ownshare/internal/storage"
)

// penaltyBlockDays is how long a late-cancellation penalty advises blocking
// future bookings.
const penaltyBlockDays = 30

// Service owns reservation scheduling. Balance debits/credits ride in the
// same store transaction as the reservation write.
type Service struct {
	store    storage.Store
	holidays holiday.Source
	notifier *notify.Dispatcher
	now      func() time.Time
}

// NewService creates a booking service. holidays and notifier may be nil.
func NewService(store storage.Store, holidays holiday.Source, notifier *notify.Dispatcher) *Service {
	return &Service{store: store, holidays: holidays, notifier: notifier, now: time.Now}
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Create books [start, end) for the owner, debiting the stay from their day
// balance. The calendar conflict re-check runs inside the same store
// transaction as the insert.
func (s *Service) Create(ctx context.Context, propertyID, ownerID string, start, end time.Time, guestCount int) (*models.Reservation, error) {
	start, end = day(start), day(end)
	today := day(s.now())

	if !end.After(start) {
		return nil, apperr.New(apperr.Validation, "end date must be after start date")
	}
	if start.Before(today) {
		return nil, apperr.New(apperr.Validation, "start date must not be in the past")
	}
	if guestCount < 1 {
		return nil, apperr.New(apperr.Validation, "guest count must be at least 1")
	}

	property, err := s.store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	duration := int(end.Sub(start).Hours() / 24)
	if duration < property.MinStayDays || duration > property.MaxStayDays {
		return nil, apperr.New(apperr.Validation,
			"stay of %d nights is outside the allowed range [%d, %d]",
			duration, property.MinStayDays, property.MaxStayDays)
	}

	membership, err := s.store.GetMembership(ctx, propertyID, ownerID)
	if err != nil {
		return nil, err
	}
	if float64(duration) > membership.DayBalance {
		return nil, apperr.New(apperr.InsufficientBalance,
			"stay of %d nights exceeds day balance of %.2f", duration, membership.DayBalance)
	}

	if property.MaxActiveReservations != nil || property.MaxHolidaysPerOwner != nil {
		existing, err := s.store.ListFutureConfirmed(ctx, propertyID, ownerID, today)
		if err != nil {
			return nil, err
		}
		if limit := property.MaxActiveReservations; limit != nil && len(existing) >= *limit {
			return nil, apperr.New(apperr.Conflict,
				"owner %s already has %d active reservations (limit %d)", ownerID, len(existing), *limit)
		}
		if limit := property.MaxHolidaysPerOwner; limit != nil {
			used := s.holidayNights(ctx, existing, start, end)
			if used > *limit {
				return nil, apperr.New(apperr.Conflict,
					"booking would cover %d holiday nights (limit %d)", used, *limit)
			}
		}
	}

	r := &models.Reservation{
		PropertyID: propertyID,
		OwnerID:    ownerID,
		StartDate:  start,
		EndDate:    end,
		GuestCount: guestCount,
		Status:     models.ReservationConfirmed,
	}
	if err := s.store.BookReservation(ctx, r, membership.ID, float64(duration)); err != nil {
		return nil, err
	}

	metrics.ReservationsCreated.Inc()
	slog.Info("reservation booked",
		"reservation_id", r.ID,
		"property_id", propertyID,
		"owner_id", ownerID,
		"nights", duration,
	)
	s.notify(propertyID, ownerID, fmt.Sprintf("reservation booked for %s to %s",
		start.Format("2006-01-02"), end.Format("2006-01-02")))
	return r, nil
}

// holidayNights counts the holiday-covered nights across the owner's
// existing future reservations plus the requested range. A provider failure
// counts as zero holidays for that year; holiday data must never block a
// booking.
func (s *Service) holidayNights(ctx context.Context, existing []models.Reservation, start, end time.Time) int {
	if s.holidays == nil {
		return 0
	}

	years := make(map[int]bool)
	addYears := func(from, to time.Time) {
		for y := from.Year(); y <= to.Year(); y++ {
			years[y] = true
		}
	}
	addYears(start, end)
	for _, r := range existing {
		addYears(r.StartDate, r.EndDate)
	}

	holidays := make(map[time.Time]bool)
	for year := range years {
		dates, err := s.holidays.Holidays(ctx, year)
		if err != nil {
			slog.Warn("holiday provider unavailable, assuming no holidays",
				"year", year, "error", err)
			continue
		}
		for _, d := range dates {
			holidays[day(d)] = true
		}
	}
	if len(holidays) == 0 {
		return 0
	}

	count := countHolidayNights(holidays, start, end)
	for _, r := range existing {
		count += countHolidayNights(holidays, r.StartDate, r.EndDate)
	}
	return count
}

func countHolidayNights(holidays map[time.Time]bool, start, end time.Time) int {
	n := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if holidays[d] {
			n++
		}
	}
	return n
}

// Cancel cancels a confirmed reservation, credits the nights back to the
// owning membership, and issues a penalty when the notice period is short.
// The actor must be the reservation owner or a Master of the property.
func (s *Service) Cancel(ctx context.Context, reservationID string) error {
	actor, ok := identity.ActorFrom(ctx)
	if !ok {
		return apperr.New(apperr.Unauthorized, "no acting owner in context")
	}

	r, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if r.Status != models.ReservationConfirmed {
		return apperr.New(apperr.Conflict, "reservation %s is already %s", reservationID, r.Status)
	}

	if actor.ID != r.OwnerID {
		actorMembership, err := s.store.GetMembership(ctx, r.PropertyID, actor.ID)
		if err != nil || actorMembership.Role != models.RoleMaster {
			return apperr.New(apperr.Unauthorized,
				"owner %s may not cancel reservation %s", actor.ID, reservationID)
		}
	}

	property, err := s.store.GetProperty(ctx, r.PropertyID)
	if err != nil {
		return err
	}
	membership, err := s.store.GetMembership(ctx, r.PropertyID, r.OwnerID)
	if err != nil {
		return err
	}

	today := day(s.now())
	daysUntilStart := int(r.StartDate.Sub(today).Hours() / 24)

	var penalty *models.Penalty
	if daysUntilStart < property.CancellationLeadDays {
		penalty = &models.Penalty{
			OwnerID:    r.OwnerID,
			PropertyID: r.PropertyID,
			Reason:     fmt.Sprintf("cancelled %d days before start (lead time %d)", daysUntilStart, property.CancellationLeadDays),
			BlockUntil: today.AddDate(0, 0, penaltyBlockDays),
		}
	}

	if err := s.store.CancelReservation(ctx, reservationID, membership.ID, float64(r.Nights()), penalty); err != nil {
		return err
	}

	penalized := "false"
	if penalty != nil {
		penalized = "true"
	}
	metrics.ReservationsCancelled.WithLabelValues(penalized).Inc()
	slog.Info("reservation cancelled",
		"reservation_id", reservationID,
		"actor_id", actor.ID,
		"penalized", penalty != nil,
		"nights_credited", r.Nights(),
	)
	s.notify(r.PropertyID, actor.ID, "reservation cancelled")
	return nil
}

// CheckIn records the arrival inventory checklist for a confirmed
// reservation. Exactly one check-in record may exist per reservation.
func (s *Service) CheckIn(ctx context.Context, reservationID string, items []models.ChecklistItem) error {
	return s.saveChecklist(ctx, reservationID, models.ChecklistCheckIn, items)
}

// CheckOut records the departure inventory checklist and completes the
// reservation.
func (s *Service) CheckOut(ctx context.Context, reservationID string, items []models.ChecklistItem) error {
	return s.saveChecklist(ctx, reservationID, models.ChecklistCheckOut, items)
}

func (s *Service) saveChecklist(ctx context.Context, reservationID string, kind models.ChecklistKind, items []models.ChecklistItem) error {
	actor, ok := identity.ActorFrom(ctx)
	if !ok {
		return apperr.New(apperr.Unauthorized, "no acting owner in context")
	}

	if len(items) == 0 {
		return apperr.New(apperr.Validation, "checklist requires at least one item entry")
	}
	for _, item := range items {
		if item.Name == "" {
			return apperr.New(apperr.Validation, "checklist item name must not be empty")
		}
		if !models.ValidCondition(item.Condition) {
			return apperr.New(apperr.Validation, "unknown item condition %q", item.Condition)
		}
	}

	r, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if r.Status != models.ReservationConfirmed {
		return apperr.New(apperr.Conflict, "reservation %s is already %s", reservationID, r.Status)
	}
	if actor.ID != r.OwnerID {
		return apperr.New(apperr.Unauthorized,
			"owner %s may not record a checklist for reservation %s", actor.ID, reservationID)
	}

	c := &models.Checklist{
		ReservationID: reservationID,
		Kind:          kind,
		Items:         items,
	}
	if err := s.store.SaveChecklist(ctx, c, kind == models.ChecklistCheckOut); err != nil {
		return err
	}

	slog.Info("checklist recorded",
		"reservation_id", reservationID,
		"kind", string(kind),
		"items", len(items),
	)
	return nil
}

func (s *Service) notify(propertyID, authorID, body string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(notify.Message{PropertyID: propertyID, AuthorID: authorID, Body: body})
}
