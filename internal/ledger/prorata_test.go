package ledger

import (
	"math"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayCredit(t *testing.T) {
	tests := []struct {
		totalFractions int
		want           float64
	}{
		{52, 7.019230769},
		{12, 30.416666667},
		{1, 365},
		{4, 91.25},
	}

	for _, tt := range tests {
		got := DayCredit(tt.totalFractions)
		if math.Abs(got-tt.want) > 0.0001 {
			t.Errorf("DayCredit(%d) = %v, want %v", tt.totalFractions, got, tt.want)
		}
	}
}

func TestDaysRemaining(t *testing.T) {
	tests := []struct {
		name string
		asOf time.Time
		want int
	}{
		{"january 1st of a leap year", date(2024, time.January, 1), 366},
		{"january 1st of a common year", date(2023, time.January, 1), 365},
		{"december 31st counts itself", date(2024, time.December, 31), 1},
		{"mid-year", date(2024, time.July, 1), 184},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysRemaining(tt.asOf); got != tt.want {
				t.Errorf("DaysRemaining(%v) = %d, want %d", tt.asOf, got, tt.want)
			}
		})
	}
}

func TestProRataBalance(t *testing.T) {
	credit52 := DayCredit(52)

	t.Run("full year on january 1st", func(t *testing.T) {
		// 10 fractions on a 52-fraction property reset at year start:
		// 10 * 7.019 = 70.19 nights.
		got := ProRataBalance(10, credit52, date(2023, time.January, 1))
		if math.Abs(got-70.19) > 0.01 {
			t.Errorf("ProRataBalance = %v, want ~70.19", got)
		}
	})

	t.Run("half year scales by remaining days", func(t *testing.T) {
		asOf := date(2023, time.July, 2) // 183 of 365 days remaining
		got := ProRataBalance(10, credit52, asOf)
		want := 10 * credit52 * 183.0 / 365.0
		if math.Abs(got-want) > 0.0001 {
			t.Errorf("ProRataBalance = %v, want %v", got, want)
		}
	})

	t.Run("leap year uses 366-day denominator", func(t *testing.T) {
		got := ProRataBalance(4, DayCredit(4), date(2024, time.March, 1))
		want := 4 * 91.25 * 306.0 / 366.0
		if math.Abs(got-want) > 0.0001 {
			t.Errorf("ProRataBalance = %v, want %v", got, want)
		}
	})

	t.Run("zero fractions earn nothing", func(t *testing.T) {
		if got := ProRataBalance(0, credit52, date(2023, time.June, 1)); got != 0 {
			t.Errorf("ProRataBalance = %v, want 0", got)
		}
	})
}

func TestAnnualBalance(t *testing.T) {
	if got := AnnualBalance(10, DayCredit(52)); math.Abs(got-70.19) > 0.01 {
		t.Errorf("AnnualBalance = %v, want ~70.19", got)
	}
	if got := AnnualBalance(3, DayCredit(12)); math.Abs(got-91.25) > 0.01 {
		t.Errorf("AnnualBalance = %v, want 91.25", got)
	}
}
