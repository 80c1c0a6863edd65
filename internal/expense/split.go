// Package expense apportions shared costs across owners proportionally to
// their ownership share, with exact-sum rounding reconciliation, and spawns
// recurring expense instances from templates.
package expense

import (
	"math"

	"github.com/ownshare/ownshare/internal/apperr"
	"github.com/ownshare/ownshare/internal/models"
)

// Participant is one owner's slice of a split: an ownership proportion in
// [0, 1]. Participants arrive in membership creation order, which fixes the
// designated residual payer deterministically.
type Participant struct {
	OwnerID       string
	ShareFraction float64
	Role          models.Role
}

// round2 rounds to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Split computes each participant's share of amount, rounded to cents. The
// rounding residual, which may be negative, is assigned entirely to the
// designated payer - the first Master in the list, else the first
// participant - so the payment rows sum to amount exactly, never merely
// approximately.
func Split(amount float64, participants []Participant) ([]models.ExpensePayment, error) {
	if amount <= 0 {
		return nil, apperr.New(apperr.Validation, "expense amount must be positive, got %.2f", amount)
	}
	if len(participants) == 0 {
		return nil, apperr.New(apperr.Validation, "expense needs at least one participant")
	}

	payments := make([]models.ExpensePayment, len(participants))
	sum := 0.0
	for i, p := range participants {
		owed := round2(amount * p.ShareFraction)
		payments[i] = models.ExpensePayment{OwnerID: p.OwnerID, AmountOwed: owed}
		sum = round2(sum + owed)
	}

	residual := round2(amount - sum)
	if residual != 0 {
		payer := 0
		for i, p := range participants {
			if p.Role == models.RoleMaster {
				payer = i
				break
			}
		}
		payments[payer].AmountOwed = round2(payments[payer].AmountOwed + residual)
	}

	return payments, nil
}

// ShareParticipants derives split participants from a property's
// memberships: each owner's share is their fraction count over the total
// allocated fractions. Memberships without fractions carry no share of the
// cost.
func ShareParticipants(memberships []models.Membership) []Participant {
	allocated := 0
	for _, m := range memberships {
		allocated += m.FractionCount
	}
	if allocated == 0 {
		return nil
	}

	var out []Participant
	for _, m := range memberships {
		if m.FractionCount == 0 {
			continue
		}
		out = append(out, Participant{
			OwnerID:       m.OwnerID,
			ShareFraction: float64(m.FractionCount) / float64(allocated),
			Role:          m.Role,
		})
	}
	return out
}
