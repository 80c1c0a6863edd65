package expense

import (
	"time"

	"github.com/ownshare/ownshare/internal/models"
)

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// lastDayOfMonth returns the number of days in the month containing t.
func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clipDay clamps a day-of-month to the length of the month containing t,
// so a "31st of the month" rule fires on the 30th (or 28th/29th) of shorter
// months.
func clipDay(dayOfMonth int, t time.Time) int {
	if last := lastDayOfMonth(t); dayOfMonth > last {
		return last
	}
	return dayOfMonth
}

// periodBounds returns the [start, end) boundary of the recurrence period
// containing asOf. Weeks start on Sunday, matching the weekday numbering of
// the weekly rule.
func periodBounds(freq models.RecurrenceFrequency, asOf time.Time) (time.Time, time.Time) {
	d := day(asOf)
	switch freq {
	case models.RecurrenceDaily:
		return d, d.AddDate(0, 0, 1)
	case models.RecurrenceWeekly:
		start := d.AddDate(0, 0, -int(d.Weekday()))
		return start, start.AddDate(0, 0, 7)
	case models.RecurrenceMonthly:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	default: // yearly
		start := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0)
	}
}

// dueToday reports whether the template's recurrence rule fires on asOf.
func dueToday(t *models.Expense, asOf time.Time) bool {
	d := day(asOf)
	switch t.RecurrenceFrequency {
	case models.RecurrenceDaily:
		return true
	case models.RecurrenceWeekly:
		return int(d.Weekday()) == t.RecurrenceDay
	case models.RecurrenceMonthly:
		return d.Day() == clipDay(t.RecurrenceDay, d)
	case models.RecurrenceYearly:
		return d.Month() == t.DueDate.Month() && d.Day() == clipDay(t.DueDate.Day(), d)
	default:
		return false
	}
}
