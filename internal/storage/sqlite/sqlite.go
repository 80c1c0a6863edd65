// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/ownshare/ownshare/internal/apperr"
	"github.com/ownshare/ownshare/internal/models"
	"github.com/ownshare/ownshare/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// dayFormat is the ISO date layout used for all stored dates.
const dayFormat = "2006-01-02"

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; one connection keeps transactions from
	// tripping over each other's locks.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func fmtDay(t time.Time) string {
	return t.Format(dayFormat)
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored date %q: %w", s, err)
	}
	return t, nil
}

// CreateProperty persists a new property.
func (s *SQLiteStore) CreateProperty(ctx context.Context, p *models.Property) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO properties
		 (id, name, total_fractions, day_credit, min_stay_days, max_stay_days,
		  cancellation_lead_days, max_holidays_per_owner, max_active_reservations, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.TotalFractions, p.DayCreditPerFraction, p.MinStayDays, p.MaxStayDays,
		p.CancellationLeadDays, p.MaxHolidaysPerOwner, p.MaxActiveReservations, p.Active, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

// GetProperty retrieves a property by ID.
func (s *SQLiteStore) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	p := &models.Property{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, total_fractions, day_credit, min_stay_days, max_stay_days,
		        cancellation_lead_days, max_holidays_per_owner, max_active_reservations, active, created_at
		 FROM properties WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.TotalFractions, &p.DayCreditPerFraction, &p.MinStayDays, &p.MaxStayDays,
		&p.CancellationLeadDays, &p.MaxHolidaysPerOwner, &p.MaxActiveReservations, &p.Active, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "property not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return p, nil
}

// RebaseProperty updates the fraction structure in one transaction. Every
// membership balance is recomputed in the database from its current
// fraction count, so concurrent fraction changes are never clobbered by a
// stale read.
func (s *SQLiteStore) RebaseProperty(ctx context.Context, propertyID string, totalFractions int, dayCredit float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE properties SET total_fractions = ?, day_credit = ? WHERE id = ?",
		totalFractions, dayCredit, propertyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update property fractions: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "property not found: %s", propertyID)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE memberships SET day_balance = fraction_count * ? WHERE property_id = ?",
		dayCredit, propertyID,
	); err != nil {
		return fmt.Errorf("failed to rebase membership balances: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateMembership persists a new membership.
func (s *SQLiteStore) CreateMembership(ctx context.Context, m *models.Membership) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memberships (id, owner_id, property_id, fraction_count, day_balance, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.OwnerID, m.PropertyID, m.FractionCount, m.DayBalance, string(m.Role), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

const membershipColumns = "id, owner_id, property_id, fraction_count, day_balance, role, created_at"

func scanMembership(row interface{ Scan(...any) error }) (*models.Membership, error) {
	m := &models.Membership{}
	var role string
	if err := row.Scan(&m.ID, &m.OwnerID, &m.PropertyID, &m.FractionCount, &m.DayBalance, &role, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Role = models.Role(role)
	return m, nil
}

// GetMembership retrieves the membership of one owner on one property.
func (s *SQLiteStore) GetMembership(ctx context.Context, propertyID, ownerID string) (*models.Membership, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE property_id = ? AND owner_id = ?",
		propertyID, ownerID,
	)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "membership not found for owner %s on property %s", ownerID, propertyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// ListMemberships returns a property's memberships, oldest first.
func (s *SQLiteStore) ListMemberships(ctx context.Context, propertyID string) ([]models.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE property_id = ? ORDER BY created_at, id",
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var out []models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return out, nil
}

// ListFundedMemberships pages through memberships with fractions on active
// properties, joined with the property day credit.
func (s *SQLiteStore) ListFundedMemberships(ctx context.Context, limit, offset int) ([]models.FundedMembership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.owner_id, m.property_id, m.fraction_count, m.day_balance, m.role, m.created_at,
		        p.day_credit
		 FROM memberships m
		 JOIN properties p ON p.id = m.property_id
		 WHERE m.fraction_count > 0 AND p.active = 1
		 ORDER BY m.id
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list funded memberships: %w", err)
	}
	defer rows.Close()

	var out []models.FundedMembership
	for rows.Next() {
		var fm models.FundedMembership
		var role string
		if err := rows.Scan(&fm.ID, &fm.OwnerID, &fm.PropertyID, &fm.FractionCount, &fm.DayBalance,
			&role, &fm.CreatedAt, &fm.DayCreditPerFraction); err != nil {
			return nil, fmt.Errorf("failed to scan funded membership: %w", err)
		}
		fm.Role = models.Role(role)
		out = append(out, fm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate funded memberships: %w", err)
	}
	return out, nil
}

// ResetMembershipBalance rebases one membership's day balance from its
// current fraction count.
func (s *SQLiteStore) ResetMembershipBalance(ctx context.Context, membershipID string, dayCredit float64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE memberships SET day_balance = fraction_count * ? WHERE id = ?",
		dayCredit, membershipID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset membership balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "membership not found: %s", membershipID)
	}
	return nil
}

// ApplyFractionTransfer moves the fractions and balance deltas of both
// sides of a transfer in one transaction, id-ascending. The giver's
// fraction count is re-guarded here so a transfer racing another fraction
// change cannot overdraw it.
func (s *SQLiteStore) ApplyFractionTransfer(ctx context.Context, fromID, toID string, count int, fromDebit, toCredit float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	debit := func() error {
		res, err := tx.ExecContext(ctx,
			`UPDATE memberships
			 SET fraction_count = fraction_count - ?, day_balance = MAX(day_balance - ?, 0)
			 WHERE id = ? AND fraction_count >= ?`,
			count, fromDebit, fromID, count,
		)
		if err != nil {
			return fmt.Errorf("failed to debit membership %s: %w", fromID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var held int
			err := tx.QueryRowContext(ctx,
				"SELECT fraction_count FROM memberships WHERE id = ?", fromID,
			).Scan(&held)
			if err == sql.ErrNoRows {
				return apperr.New(apperr.NotFound, "membership not found: %s", fromID)
			}
			if err != nil {
				return fmt.Errorf("failed to read membership %s: %w", fromID, err)
			}
			return apperr.New(apperr.InsufficientBalance,
				"membership %s holds %d fractions, cannot transfer %d", fromID, held, count)
		}
		return nil
	}
	credit := func() error {
		res, err := tx.ExecContext(ctx,
			"UPDATE memberships SET fraction_count = fraction_count + ?, day_balance = day_balance + ? WHERE id = ?",
			count, toCredit, toID,
		)
		if err != nil {
			return fmt.Errorf("failed to credit membership %s: %w", toID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.New(apperr.NotFound, "membership not found: %s", toID)
		}
		return nil
	}

	steps := []func() error{debit, credit}
	if toID < fromID {
		steps[0], steps[1] = credit, debit
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ApplyRedistribution removes the departing membership and applies the
// grants in one transaction, id-ascending. Each receiver's balance is
// recomputed in the database from its resulting fraction count.
func (s *SQLiteStore) ApplyRedistribution(ctx context.Context, departingID string, grants []models.FractionGrant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ordered := make([]models.FractionGrant, len(grants))
	copy(ordered, grants)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].MembershipID < ordered[j-1].MembershipID; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	for _, g := range ordered {
		res, err := tx.ExecContext(ctx,
			`UPDATE memberships
			 SET fraction_count = fraction_count + ?, day_balance = (fraction_count + ?) * ?
			 WHERE id = ?`,
			g.Fractions, g.Fractions, g.DayRate, g.MembershipID,
		)
		if err != nil {
			return fmt.Errorf("failed to update membership %s: %w", g.MembershipID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.New(apperr.NotFound, "membership not found: %s", g.MembershipID)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM memberships WHERE id = ?", departingID)
	if err != nil {
		return fmt.Errorf("failed to delete membership %s: %w", departingID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "membership not found: %s", departingID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
