package models

// ChecklistKind distinguishes the check-in record from the check-out record.
// A reservation has at most one checklist of each kind.
type ChecklistKind string

const (
	ChecklistCheckIn  ChecklistKind = "checkin"
	ChecklistCheckOut ChecklistKind = "checkout"
)

// ItemCondition is the recorded state of one inventory item.
type ItemCondition string

const (
	ConditionNew     ItemCondition = "new"
	ConditionGood    ItemCondition = "good"
	ConditionWorn    ItemCondition = "worn"
	ConditionDamaged ItemCondition = "damaged"
)

// ValidCondition reports whether c is one of the known condition codes.
func ValidCondition(c ItemCondition) bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionWorn, ConditionDamaged:
		return true
	}
	return false
}

// ChecklistItem records the condition of a single inventory item.
type ChecklistItem struct {
	Name      string
	Condition ItemCondition
}

// Checklist is the item-by-item inventory record persisted at check-in or
// check-out. At least one item entry is required.
type Checklist struct {
	ID            string
	ReservationID string
	Kind          ChecklistKind
	Items         []ChecklistItem
	CreatedAt     int64
}
