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

const reservationColumns = "id, property_id, owner_id, start_date, end_date, guest_count, status, created_at"

func scanReservation(row interface{ Scan(...any) error }) (*models.Reservation, error) {
	r := &models.Reservation{}
	var start, end, status string
	if err := row.Scan(&r.ID, &r.PropertyID, &r.OwnerID, &start, &end, &r.GuestCount, &status, &r.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if r.StartDate, err = parseDay(start); err != nil {
		return nil, err
	}
	if r.EndDate, err = parseDay(end); err != nil {
		return nil, err
	}
	r.Status = models.ReservationStatus(status)
	return r, nil
}

// BookReservation inserts a reservation and debits nights from the owning
// membership's balance. The overlap re-check and the balance guard run
// inside the same transaction as the insert so two concurrent bookings
// cannot both pass either check.
func (s *SQLiteStore) BookReservation(ctx context.Context, r *models.Reservation, membershipID string, nights float64) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}
	if r.Status == "" {
		r.Status = models.ReservationConfirmed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// start < other.end AND end > other.start, cancelled rows excluded
	var clash string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM reservations
		 WHERE property_id = ? AND status != ? AND start_date < ? AND end_date > ?
		 LIMIT 1`,
		r.PropertyID, string(models.ReservationCancelled), fmtDay(r.EndDate), fmtDay(r.StartDate),
	).Scan(&clash)
	if err == nil {
		return apperr.New(apperr.Conflict, "date range conflicts with reservation %s", clash)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check reservation overlap: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (id, property_id, owner_id, start_date, end_date, guest_count, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PropertyID, r.OwnerID, fmtDay(r.StartDate), fmtDay(r.EndDate), r.GuestCount, string(r.Status), r.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE memberships SET day_balance = day_balance - ? WHERE id = ? AND day_balance >= ?",
		nights, membershipID, nights,
	)
	if err != nil {
		return fmt.Errorf("failed to debit membership balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var balance float64
		err := tx.QueryRowContext(ctx,
			"SELECT day_balance FROM memberships WHERE id = ?", membershipID,
		).Scan(&balance)
		if err == sql.ErrNoRows {
			return apperr.New(apperr.NotFound, "membership not found: %s", membershipID)
		}
		if err != nil {
			return fmt.Errorf("failed to read membership balance: %w", err)
		}
		return apperr.New(apperr.InsufficientBalance,
			"day balance %.2f cannot cover a %.0f night stay", balance, nights)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetReservation retrieves a reservation by ID.
func (s *SQLiteStore) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id,
	)
	r, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "reservation not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r, nil
}

// ListFutureConfirmed returns confirmed reservations ending after the given
// date, optionally filtered to one owner.
func (s *SQLiteStore) ListFutureConfirmed(ctx context.Context, propertyID, ownerID string, from time.Time) ([]models.Reservation, error) {
	query := "SELECT " + reservationColumns + " FROM reservations WHERE property_id = ? AND status = ? AND end_date > ?"
	args := []any{propertyID, string(models.ReservationConfirmed), fmtDay(from)}
	if ownerID != "" {
		query += " AND owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY start_date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return out, nil
}

// CancelReservation flips the status, credits nights back onto the
// balance, and records the optional penalty in one transaction.
func (s *SQLiteStore) CancelReservation(ctx context.Context, reservationID, membershipID string, credit float64, p *models.Penalty) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE reservations SET status = ? WHERE id = ? AND status = ?",
		string(models.ReservationCancelled), reservationID, string(models.ReservationConfirmed),
	)
	if err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.Conflict, "reservation %s is not confirmed", reservationID)
	}

	res, err = tx.ExecContext(ctx,
		"UPDATE memberships SET day_balance = day_balance + ? WHERE id = ?",
		credit, membershipID,
	)
	if err != nil {
		return fmt.Errorf("failed to credit membership balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "membership not found: %s", membershipID)
	}

	if p != nil {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.CreatedAt == 0 {
			p.CreatedAt = time.Now().Unix()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO penalties (id, owner_id, property_id, reason, block_until, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.OwnerID, p.PropertyID, p.Reason, fmtDay(p.BlockUntil), p.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert penalty: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListPenalties returns an owner's penalties on a property.
func (s *SQLiteStore) ListPenalties(ctx context.Context, propertyID, ownerID string) ([]models.Penalty, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, property_id, reason, block_until, created_at
		 FROM penalties WHERE property_id = ? AND owner_id = ? ORDER BY created_at`,
		propertyID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list penalties: %w", err)
	}
	defer rows.Close()

	var out []models.Penalty
	for rows.Next() {
		var p models.Penalty
		var until string
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.PropertyID, &p.Reason, &until, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan penalty: %w", err)
		}
		if p.BlockUntil, err = parseDay(until); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate penalties: %w", err)
	}
	return out, nil
}

// SaveChecklist inserts a checklist and its items, rejecting a duplicate of
// the same kind, and optionally completes the reservation.
func (s *SQLiteStore) SaveChecklist(ctx context.Context, c *models.Checklist, complete bool) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM checklists WHERE reservation_id = ? AND kind = ?",
		c.ReservationID, string(c.Kind),
	).Scan(&existing)
	if err == nil {
		return apperr.New(apperr.Conflict, "%s checklist already recorded for reservation %s", c.Kind, c.ReservationID)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check existing checklist: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO checklists (id, reservation_id, kind, created_at) VALUES (?, ?, ?, ?)",
		c.ID, c.ReservationID, string(c.Kind), c.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert checklist: %w", err)
	}

	for _, item := range c.Items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO checklist_items (checklist_id, name, condition) VALUES (?, ?, ?)",
			c.ID, item.Name, string(item.Condition),
		); err != nil {
			return fmt.Errorf("failed to insert checklist item: %w", err)
		}
	}

	if complete {
		res, err := tx.ExecContext(ctx,
			"UPDATE reservations SET status = ? WHERE id = ? AND status = ?",
			string(models.ReservationCompleted), c.ReservationID, string(models.ReservationConfirmed),
		)
		if err != nil {
			return fmt.Errorf("failed to complete reservation: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.New(apperr.Conflict, "reservation %s is not confirmed", c.ReservationID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
