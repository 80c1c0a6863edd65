package models

import "time"

// ReservationStatus is the lifecycle state of a reservation.
// Confirmed is the only non-terminal state: Confirmed -> Cancelled via
// cancellation, Confirmed -> Completed via checkout.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// Reservation is a booked date range against a property's shared calendar.
// EndDate is exclusive; the stay covers [StartDate, EndDate).
type Reservation struct {
	ID         string
	PropertyID string
	OwnerID    string
	StartDate  time.Time
	EndDate    time.Time
	GuestCount int
	Status     ReservationStatus
	CreatedAt  int64
}

// Nights returns the reservation duration in nights.
func (r *Reservation) Nights() int {
	return int(r.EndDate.Sub(r.StartDate).Hours() / 24)
}

// Overlaps reports whether two date ranges intersect. Both ranges are
// end-exclusive, so back-to-back stays sharing a boundary date do not
// overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartDate.Before(end) && start.Before(r.EndDate)
}

// Penalty is an advisory block created by a late cancellation. Other
// components may consult it to refuse future bookings until BlockUntil.
type Penalty struct {
	ID         string
	OwnerID    string
	PropertyID string
	Reason     string
	BlockUntil time.Time
	CreatedAt  int64
}
