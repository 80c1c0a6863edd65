package booking

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ownshare/ownshare/internal/apperr"
	"github.com/ownshare/ownshare/internal/identity"
	"github.com/ownshare/ownshare/internal/ledger"
	"github.com/ownshare/ownshare/internal/models"
	"github.com/ownshare/ownshare/internal/storage"
	"github.com/ownshare/ownshare/internal/storage/sqlite"
)

var today = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func setupStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedProperty(t *testing.T, store *sqlite.SQLiteStore, mutate func(*models.Property)) *models.Property {
	t.Helper()
	p := &models.Property{
		Name:                 "Quinta da Serra",
		TotalFractions:       52,
		DayCreditPerFraction: ledger.DayCredit(52),
		MinStayDays:          2,
		MaxStayDays:          14,
		CancellationLeadDays: 15,
		Active:               true,
	}
	if mutate != nil {
		mutate(p)
	}
	if err := store.CreateProperty(context.Background(), p); err != nil {
		t.Fatalf("failed to seed property: %v", err)
	}
	return p
}

func seedMembership(t *testing.T, store *sqlite.SQLiteStore, p *models.Property, ownerID string, role models.Role, fractions int) *models.Membership {
	t.Helper()
	m := &models.Membership{
		OwnerID:       ownerID,
		PropertyID:    p.ID,
		FractionCount: fractions,
		DayBalance:    ledger.ProRataBalance(fractions, p.DayCreditPerFraction, today),
		Role:          role,
	}
	if err := store.CreateMembership(context.Background(), m); err != nil {
		t.Fatalf("failed to seed membership: %v", err)
	}
	return m
}

// staticHolidays serves a fixed holiday calendar for every year.
type staticHolidays struct {
	dates []time.Time
	err   error
}

func (h staticHolidays) Holidays(_ context.Context, _ int) ([]time.Time, error) {
	return h.dates, h.err
}

func newTestService(store *sqlite.SQLiteStore) *Service {
	svc := NewService(store, nil, nil)
	svc.now = func() time.Time { return today }
	return svc
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	svc := newTestService(store)
	p := seedProperty(t, store, nil)
	seedMembership(t, store, p, "alice", models.RoleMaster, 10)

	tests := []struct {
		name       string
		start, end time.Time
		guests     int
		wantKind   apperr.Kind
	}{
		{"end not after start", date(2024, 7, 5), date(2024, 7, 5), 2, apperr.Validation},
		{"start in the past", date(2024, 5, 20), date(2024, 5, 25), 2, apperr.Validation},
		{"zero guests", date(2024, 7, 1), date(2024, 7, 5), 0, apperr.Validation},
		{"below min stay", date(2024, 7, 1), date(2024, 7, 2), 2, apperr.Validation},
		{"above max stay", date(2024, 7, 1), date(2024, 7, 20), 2, apperr.Validation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, p.ID, "alice", tt.start, tt.end, tt.guests)
			if !apperr.Is(err, tt.wantKind) {
				t.Errorf("expected kind %v, got %v", tt.wantKind, err)
			}
		})
	}
}

func TestCreateDebitsBalance(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	svc := newTestService(store)
	p := seedProperty(t, store, nil)
	m := seedMembership(t, store, p, "alice", models.RoleMaster, 10)
	before := m.DayBalance

	r, err := svc.Create(ctx, p.ID, "alice", date(2024, 7, 1), date(2024, 7, 6), 4)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if r.Status != models.ReservationConfirmed {
		t.Errorf("status = %s, want confirmed", r.Status)
	}
	if r.Nights() != 5 {
		t.Errorf("nights = %d, want 5", r.Nights())
	}

	after, _ := store.GetMembership(ctx, p.ID, "alice")
	if math.Abs(after.DayBalance-(before-5)) > 0.0001 {
		t.Errorf("balance = %v, want %v", after.DayBalance, before-5)
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	svc := newTestService(store)
	p := seedProperty(t, store, nil)
	seedMembership(t, store, p, "alice", models.RoleMaster, 10)
	seedMembership(t, store, p, "bob", models.RoleCommon, 10)

	if _, err := svc.Create(ctx, p.ID, "alice", date(2024, 7, 1), date(2024, 7, 5), 2); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err := svc.Create(ctx, p.ID, "bob", date(2024, 7, 4), date(2024, 7, 10), 2)
	if !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	bob, _ := store.GetMembership(ctx, p.ID, "bob")
	want := ledger.ProRataBalance(10, p.DayCreditPerFraction, today)
	if math.Abs(bob.DayBalance-want) > 0.0001 {
		t.Errorf("rejected booking changed balance: %v, want %v", bob.DayBalance, want)
	}

	// Back-to-back is not an overlap: end dates are exclusive.
	if _, err := svc.Create(ctx, p.ID, "bob", date(2024, 7, 5), date(2024, 7, 10), 2); err != nil {
		t.Errorf("back-to-back booking failed: %v", err)
	}
}

func TestCreateInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	svc := newTestService(store)
	p := seedProperty(t, store, nil)
	m := seedMembership(t, store, p, "alice", models.RoleCommon, 1)

	// One fraction of 52 leaves roughly four days, not enough for ten nights.
	if m.DayBalance >= 10 {
		t.Fatalf("fixture balance too high: %v", m.DayBalance)
	}
	_, err := svc.Create(ctx, p.ID, "alice", date(2024, 7, 1), date(2024, 7, 11), 2)
	if !apperr.Is(err, apperr.InsufficientBalance) {
		t.Errorf("expected insufficient balance error, got %v", err)
	}
}

func TestCreateActiveReservationLimit(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	svc := newTestService(store)
	limit := 1
	p := seedProperty(t, store, func(p *models.Property) { p.MaxActiveReservations = &limit })
	seedMembership(t, store, p, "alice", models.RoleMaster, 10)

	if _, err := svc.Create(ctx, p.ID, "alice", date(2024, 7, 1), date(2024, 7, 3), 2); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	_, err := svc.Create(ctx, p.ID, "alice", date(2024, 8, 1), date(2024, 8, 3), 2)
	if !apperr.Is(err, apperr.Conflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestCreateHolidayQuota(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	limit := 1
	p := seedProperty(t, store, func(p *models.Property) { p.MaxHolidaysPerOwner = &limit })
	seedMembership(t, store, p, "alice", models.RoleMaster, 10)

	holidays := staticHolidays{dates: []time.Time{date(2024, 7, 2), date(2024, 7, 3)}}
	svc := NewService(store, holidays, nil)
	svc.now = func() time.Time { return today }

	_, err := svc.Create(ctx, p.ID, "alice", date(2024, 7, 1), date(2024, 7, 5), 2)
	if !apperr.Is(err, apperr.Conflict) {
		t.Errorf("expected conflict error, got %v", err)
	}

	// Outside the holiday window the quota does not bite.
	if _, err := svc.Create(ctx, p.ID, "alice", date(2024, 8, 1), date(2024, 8, 5), 2); err != nil {
		t.Errorf("non-holiday booking failed: %v", err)
	}
}

// yearHolidays serves a distinct calendar per year.
type yearHolidays map[int][]time.Time

func (h yearHolidays) Holidays(_ context.Context, year int) ([]time.Time, error) {
	return h[year], nil
}

func TestCreateHolidayQuotaSpansYears(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	limit := 1
	p := seedProperty(t, store, func(p *models.Property) { p.MaxHolidaysPerOwner = &limit })
	seedMembership(t, store, p, "alice", models.RoleMaster, 10)

	holidays := yearHolidays{
		2024: {date(2024, 12, 25)},
		2025: {date(2025, 1, 1)},
	}
	svc := NewService(store, holidays, nil)
	svc.now = func() time.Time { return today }

	// The first reservation covers Christmas 2024, using up the quota.
	if _, err := svc.Create(ctx, p.ID, "alice", date(2024, 12, 24), date(2024, 12, 27), 2); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// The new range lies entirely in 2025, but the quota counts the
	// Christmas night of the earlier reservation's year as well.
	_, err := svc.Create(ctx, p.ID, "alice", date(2025, 1, 1), date(2025, 1, 3), 2)
	if !apperr.Is(err, apperr.Conflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestCreateHolidayProviderFailure(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	limit := 1
	p := seedProperty(t, store, func(p *models.Property) { p.MaxHolidaysPerOwner = &limit })
	seedMembership(t, store, p, "alice", models.RoleMaster, 10)

	svc := NewService(store, staticHolidays{err: errors.New("upstream down")}, nil)
	svc.now = func() time.Time { return today }

	// Holiday data being unavailable must not block the booking.
	if _, err := svc.Create(ctx, p.ID, "alice", date(2024, 7, 1), date(2024, 7, 5), 2); err != nil {
		t.Errorf("booking failed while provider down: %v", err)
	}
}

// competingStore runs a rival mutation once, after the service has read the
// membership but before it writes.
type competingStore struct {
	storage.Store
	once    sync.Once
	compete func()
}

func (s *competingStore) GetMembership(ctx context.Context, propertyID, ownerID string) (*models.Membership, error) {
	m, err := s.Store.GetMembership(ctx, propertyID, ownerID)
	if err == nil {
		s.once.Do(s.compete)
	}
	return m, err
}

func TestCreateInterleavedDebitsBoth(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	p := seedProperty(t, store, nil)
	m := seedMembership(t, store, p, "alice", models.RoleMaster, 10)
	initial := m.DayBalance

	rival := &competingStore{
		Store: store,
		compete: func() {
			r := &models.Reservation{
				PropertyID: p.ID,
				OwnerID:    "alice",
				StartDate:  date(2024, 8, 1),
				EndDate:    date(2024, 8, 6),
				GuestCount: 2,
			}
			if err := store.BookReservation(ctx, r, m.ID, float64(r.Nights())); err != nil {
				t.Fatalf("competing booking failed: %v", err)
			}
		},
	}
	svc := NewService(rival, nil, nil)
	svc.now = func() time.Time { return today }

	// A rival booking lands between the balance read and the write. Both
	// stays must come out of the balance.
	if _, err := svc.Create(ctx, p.ID, "alice", date(2024, 7, 1), date(2024, 7, 6), 2); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	after, _ := store.GetMembership(ctx, p.ID, "alice")
	if math.Abs(after.DayBalance-(initial-10)) > 0.0001 {
		t.Errorf("balance = %v, want %v", after.DayBalance, initial-10)
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	book := func(t *testing.T, svc *Service, p *models.Property, start, end time.Time) *models.Reservation {
		t.Helper()
		r, err := svc.Create(ctx, p.ID, "alice", start, end, 2)
		if err != nil {
			t.Fatalf("booking failed: %v", err)
		}
		return r
	}

	t.Run("late cancellation credits nights and issues a penalty", func(t *testing.T) {
		store := setupStore(t)
		svc := newTestService(store)
		p := seedProperty(t, store, nil)
		seedMembership(t, store, p, "alice", models.RoleMaster, 10)
		// Starts in 10 days, lead time is 15.
		r := book(t, svc, p, date(2024, 6, 11), date(2024, 6, 15))

		actorCtx := identity.WithActor(ctx, identity.Actor{ID: "alice"})
		if err := svc.Cancel(actorCtx, r.ID); err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}

		got, _ := store.GetReservation(ctx, r.ID)
		if got.Status != models.ReservationCancelled {
			t.Errorf("status = %s, want cancelled", got.Status)
		}
		m, _ := store.GetMembership(ctx, p.ID, "alice")
		want := ledger.ProRataBalance(10, p.DayCreditPerFraction, today)
		if math.Abs(m.DayBalance-want) > 0.0001 {
			t.Errorf("balance = %v, want %v credited back", m.DayBalance, want)
		}

		penalties, err := store.ListPenalties(ctx, p.ID, "alice")
		if err != nil {
			t.Fatalf("ListPenalties failed: %v", err)
		}
		if len(penalties) != 1 {
			t.Fatalf("penalties = %d, want 1", len(penalties))
		}
		if want := today.AddDate(0, 0, penaltyBlockDays); !penalties[0].BlockUntil.Equal(want) {
			t.Errorf("block until = %v, want %v", penalties[0].BlockUntil, want)
		}
	})

	t.Run("timely cancellation issues no penalty", func(t *testing.T) {
		store := setupStore(t)
		svc := newTestService(store)
		p := seedProperty(t, store, nil)
		seedMembership(t, store, p, "alice", models.RoleMaster, 10)
		r := book(t, svc, p, date(2024, 8, 1), date(2024, 8, 5))

		actorCtx := identity.WithActor(ctx, identity.Actor{ID: "alice"})
		if err := svc.Cancel(actorCtx, r.ID); err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}
		penalties, _ := store.ListPenalties(ctx, p.ID, "alice")
		if len(penalties) != 0 {
			t.Errorf("penalties = %d, want 0", len(penalties))
		}
	})

	t.Run("a master may cancel another owner's reservation", func(t *testing.T) {
		store := setupStore(t)
		svc := newTestService(store)
		p := seedProperty(t, store, nil)
		seedMembership(t, store, p, "alice", models.RoleCommon, 10)
		seedMembership(t, store, p, "boss", models.RoleMaster, 10)
		r := book(t, svc, p, date(2024, 8, 1), date(2024, 8, 5))

		masterCtx := identity.WithActor(ctx, identity.Actor{ID: "boss"})
		if err := svc.Cancel(masterCtx, r.ID); err != nil {
			t.Errorf("Cancel by master failed: %v", err)
		}
	})

	t.Run("another common owner may not cancel", func(t *testing.T) {
		store := setupStore(t)
		svc := newTestService(store)
		p := seedProperty(t, store, nil)
		seedMembership(t, store, p, "alice", models.RoleCommon, 10)
		seedMembership(t, store, p, "bob", models.RoleCommon, 10)
		seedMembership(t, store, p, "boss", models.RoleMaster, 10)
		r := book(t, svc, p, date(2024, 8, 1), date(2024, 8, 5))

		otherCtx := identity.WithActor(ctx, identity.Actor{ID: "bob"})
		if err := svc.Cancel(otherCtx, r.ID); !apperr.Is(err, apperr.Unauthorized) {
			t.Errorf("expected unauthorized error, got %v", err)
		}
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		store := setupStore(t)
		svc := newTestService(store)
		p := seedProperty(t, store, nil)
		seedMembership(t, store, p, "alice", models.RoleMaster, 10)
		r := book(t, svc, p, date(2024, 8, 1), date(2024, 8, 5))

		actorCtx := identity.WithActor(ctx, identity.Actor{ID: "alice"})
		if err := svc.Cancel(actorCtx, r.ID); err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}
		if err := svc.Cancel(actorCtx, r.ID); !apperr.Is(err, apperr.Conflict) {
			t.Errorf("expected conflict on second cancel, got %v", err)
		}
	})

	t.Run("requires an acting owner", func(t *testing.T) {
		store := setupStore(t)
		svc := newTestService(store)
		p := seedProperty(t, store, nil)
		seedMembership(t, store, p, "alice", models.RoleMaster, 10)
		r := book(t, svc, p, date(2024, 8, 1), date(2024, 8, 5))

		if err := svc.Cancel(ctx, r.ID); !apperr.Is(err, apperr.Unauthorized) {
			t.Errorf("expected unauthorized error, got %v", err)
		}
	})
}

func TestChecklists(t *testing.T) {
	ctx := context.Background()
	goodItems := []models.ChecklistItem{
		{Name: "keys", Condition: models.ConditionGood},
		{Name: "sofa", Condition: models.ConditionWorn},
	}

	setup := func(t *testing.T) (*Service, *sqlite.SQLiteStore, *models.Reservation) {
		store := setupStore(t)
		svc := newTestService(store)
		p := seedProperty(t, store, nil)
		seedMembership(t, store, p, "alice", models.RoleMaster, 10)
		r, err := svc.Create(ctx, p.ID, "alice", date(2024, 7, 1), date(2024, 7, 5), 2)
		if err != nil {
			t.Fatalf("booking failed: %v", err)
		}
		return svc, store, r
	}
	aliceCtx := identity.WithActor(ctx, identity.Actor{ID: "alice"})

	t.Run("check-in records once", func(t *testing.T) {
		svc, _, r := setup(t)
		if err := svc.CheckIn(aliceCtx, r.ID, goodItems); err != nil {
			t.Fatalf("CheckIn failed: %v", err)
		}
		if err := svc.CheckIn(aliceCtx, r.ID, goodItems); !apperr.Is(err, apperr.Conflict) {
			t.Errorf("expected conflict on duplicate check-in, got %v", err)
		}
	})

	t.Run("check-out completes the reservation", func(t *testing.T) {
		svc, store, r := setup(t)
		if err := svc.CheckIn(aliceCtx, r.ID, goodItems); err != nil {
			t.Fatalf("CheckIn failed: %v", err)
		}
		if err := svc.CheckOut(aliceCtx, r.ID, goodItems); err != nil {
			t.Fatalf("CheckOut failed: %v", err)
		}
		got, _ := store.GetReservation(ctx, r.ID)
		if got.Status != models.ReservationCompleted {
			t.Errorf("status = %s, want completed", got.Status)
		}
		// Completed is terminal for checklist writes as well.
		if err := svc.CheckIn(aliceCtx, r.ID, goodItems); !apperr.Is(err, apperr.Conflict) {
			t.Errorf("expected conflict after completion, got %v", err)
		}
	})

	t.Run("rejects empty and malformed items", func(t *testing.T) {
		svc, _, r := setup(t)
		if err := svc.CheckIn(aliceCtx, r.ID, nil); !apperr.Is(err, apperr.Validation) {
			t.Errorf("expected validation error for empty items, got %v", err)
		}
		bad := []models.ChecklistItem{{Name: "keys", Condition: "pristine"}}
		if err := svc.CheckIn(aliceCtx, r.ID, bad); !apperr.Is(err, apperr.Validation) {
			t.Errorf("expected validation error for bad condition, got %v", err)
		}
	})

	t.Run("only the reservation owner may record", func(t *testing.T) {
		svc, _, r := setup(t)
		otherCtx := identity.WithActor(ctx, identity.Actor{ID: "bob"})
		if err := svc.CheckIn(otherCtx, r.ID, goodItems); !apperr.Is(err, apperr.Unauthorized) {
			t.Errorf("expected unauthorized error, got %v", err)
		}
	})
}
