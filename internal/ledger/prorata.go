// Package ledger implements fractional ownership accounting: pro-rata day
// balances, fraction transfers, redistribution on removal, and structural
// rebases of a property's fraction count.
package ledger

import "time"

// annualDays is the nominal year length used to derive the per-fraction day
// credit. Pro-rata scaling uses the real calendar year length, which may be
// 366.
const annualDays = 365.0

// DayCredit returns the number of reservable nights one fraction earns per
// year for a property with the given total fraction count.
func DayCredit(totalFractions int) float64 {
	return annualDays / float64(totalFractions)
}

// dateOnly truncates t to midnight UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysInYear returns 365 or 366 depending on the calendar.
func daysInYear(year int) int {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}

// DaysRemaining counts the days from asOf through December 31st of the same
// year, inclusive of the current day.
func DaysRemaining(asOf time.Time) int {
	d := dateOnly(asOf)
	yearEnd := time.Date(d.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	return int(yearEnd.Sub(d).Hours()/24) + 1
}

// ProRataBalance computes the day balance a fraction count earns when
// acquired on asOf: the full annual credit scaled by the share of the
// calendar year still remaining.
func ProRataBalance(fractionCount int, dayCredit float64, asOf time.Time) float64 {
	remaining := float64(DaysRemaining(asOf)) / float64(daysInYear(asOf.Year()))
	return float64(fractionCount) * dayCredit * remaining
}

// AnnualBalance computes the full-year day balance for a fraction count,
// used at year boundaries and structural rebases.
func AnnualBalance(fractionCount int, dayCredit float64) float64 {
	return float64(fractionCount) * dayCredit
}
