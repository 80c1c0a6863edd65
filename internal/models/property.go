package models

// Property represents a co-owned physical property split into fractions.
type Property struct {
	// ID is the unique identifier for the property (UUID format).
	ID string

	// Name is the display name of the property.
	Name string

	// TotalFractions is the fixed number of ownership units (1-52).
	TotalFractions int

	// DayCreditPerFraction is the number of reservable nights one fraction
	// earns per year, always 365/TotalFractions. It is recomputed in the
	// same transaction whenever TotalFractions changes.
	DayCreditPerFraction float64

	// MinStayDays and MaxStayDays bound the duration of a single reservation.
	MinStayDays int
	MaxStayDays int

	// CancellationLeadDays is the notice period below which cancelling a
	// reservation incurs a penalty.
	CancellationLeadDays int

	// MaxHolidaysPerOwner caps the holiday-covered nights one owner may
	// reserve per year. Nil means no cap.
	MaxHolidaysPerOwner *int

	// MaxActiveReservations caps an owner's future confirmed reservations.
	// Nil means no cap.
	MaxActiveReservations *int

	// Active is false once the property has been retired; inactive
	// properties are skipped by maintenance jobs.
	Active bool

	// CreatedAt is the Unix timestamp when the property was registered.
	CreatedAt int64
}

// Role distinguishes owners who may change property structure from those
// who may only book and pay.
type Role string

const (
	// RoleMaster may invite/remove members and change structural settings.
	RoleMaster Role = "master"
	// RoleCommon may book reservations and settle expenses only.
	RoleCommon Role = "common"
)

// Membership is one owner's stake in one property. The (OwnerID, PropertyID)
// pair is unique.
type Membership struct {
	// ID is the unique identifier for the membership (UUID format).
	ID string

	OwnerID    string
	PropertyID string

	// FractionCount is the number of fractions this owner holds (>= 0).
	// Across a property's active memberships the sum never exceeds
	// Property.TotalFractions.
	FractionCount int

	// DayBalance is the number of reservable nights currently available
	// to this owner (>= 0). Debited on booking, credited on cancellation,
	// rebased by fraction transfers and the annual reset.
	DayBalance float64

	Role Role

	// CreatedAt is the Unix timestamp when the membership was created.
	// It is the tie-break for redistribution ("oldest membership first")
	// and for picking the designated residual payer of an expense split.
	CreatedAt int64
}

// FractionGrant carries one receiver's share of a redistribution: the
// fractions to add and the per-fraction day rate the balance is recomputed
// at. The receiver's resulting balance is (fractions held + Fractions) *
// DayRate, evaluated in the database.
type FractionGrant struct {
	MembershipID string
	Fractions    int
	DayRate      float64
}

// FundedMembership is a membership joined with the property columns the
// annual reset needs. Returned by the batched maintenance query.
type FundedMembership struct {
	Membership
	DayCreditPerFraction float64
}
