package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/ownshare/ownshare/internal/apperr"
	"github.com/ownshare/ownshare/internal/identity"
	"github.com/ownshare/ownshare/internal/models"
	"github.com/ownshare/ownshare/internal/notify"
	"github.com/ownshare/ownshare/internal/storage"
)

// Service mutates fraction counts and day balances. Every operation that
// touches more than one membership row delegates the writes to a single
// store transaction.
type Service struct {
	store    storage.Store
	notifier *notify.Dispatcher
	now      func() time.Time
}

// NewService creates a ledger service. notifier may be nil.
func NewService(store storage.Store, notifier *notify.Dispatcher) *Service {
	return &Service{store: store, notifier: notifier, now: time.Now}
}

// TransferFractions moves count fractions from one owner to another on the
// same property. The giver loses the full annual day value of the fractions;
// the receiver gains their pro-rata value as of today.
func (s *Service) TransferFractions(ctx context.Context, propertyID, fromOwnerID, toOwnerID string, count int) error {
	if count <= 0 {
		return apperr.New(apperr.Validation, "transfer count must be positive, got %d", count)
	}
	if fromOwnerID == toOwnerID {
		return apperr.New(apperr.Validation, "cannot transfer fractions to the same owner")
	}

	property, err := s.store.GetProperty(ctx, propertyID)
	if err != nil {
		return err
	}
	from, err := s.store.GetMembership(ctx, propertyID, fromOwnerID)
	if err != nil {
		return err
	}
	to, err := s.store.GetMembership(ctx, propertyID, toOwnerID)
	if err != nil {
		return err
	}

	if from.FractionCount < count {
		return apperr.New(apperr.InsufficientBalance,
			"owner %s holds %d fractions, cannot transfer %d", fromOwnerID, from.FractionCount, count)
	}

	// The deltas are applied arithmetically inside the store transaction;
	// the giver's fraction count is re-guarded there.
	credit := property.DayCreditPerFraction
	if err := s.store.ApplyFractionTransfer(ctx, from.ID, to.ID, count,
		float64(count)*credit, ProRataBalance(count, credit, s.now())); err != nil {
		return err
	}

	slog.Info("fractions transferred",
		"property_id", propertyID,
		"from_owner", fromOwnerID,
		"to_owner", toOwnerID,
		"count", count,
	)
	s.notify(propertyID, fromOwnerID, "fraction transfer recorded")
	return nil
}

// RedistributeOnRemoval reassigns a departing owner's fractions and deletes
// the membership. Only a Master may remove a member.
//
// A departing Common owner's fractions all go to the oldest remaining
// Master. A departing Master's fractions are floor-divided across the
// remaining Masters, remainder assigned one-by-one starting from the oldest;
// each receiver's balance is recomputed pro-rata on their new total.
func (s *Service) RedistributeOnRemoval(ctx context.Context, propertyID, ownerID string) error {
	actor, ok := identity.ActorFrom(ctx)
	if !ok {
		return apperr.New(apperr.Unauthorized, "no acting owner in context")
	}

	property, err := s.store.GetProperty(ctx, propertyID)
	if err != nil {
		return err
	}

	actorMembership, err := s.store.GetMembership(ctx, propertyID, actor.ID)
	if err != nil {
		return err
	}
	if actorMembership.Role != models.RoleMaster {
		return apperr.New(apperr.Unauthorized, "owner %s is not a master of property %s", actor.ID, propertyID)
	}

	departing, err := s.store.GetMembership(ctx, propertyID, ownerID)
	if err != nil {
		return err
	}

	// ListMemberships orders oldest first, which fixes the remainder
	// tie-break deterministically.
	memberships, err := s.store.ListMemberships(ctx, propertyID)
	if err != nil {
		return err
	}

	var remaining, masters []models.Membership
	for _, m := range memberships {
		if m.ID == departing.ID {
			continue
		}
		remaining = append(remaining, m)
		if m.Role == models.RoleMaster {
			masters = append(masters, m)
		}
	}

	if len(remaining) == 0 {
		return apperr.New(apperr.Conflict,
			"owner %s is the sole member; delete the property instead", ownerID)
	}
	if len(masters) == 0 {
		return apperr.New(apperr.Conflict,
			"cannot remove the last master of property %s", propertyID)
	}

	// Receivers' balances are recomputed in the store from their resulting
	// fraction counts at this per-fraction rate.
	rate := ProRataBalance(1, property.DayCreditPerFraction, s.now())

	var grants []models.FractionGrant
	if departing.Role == models.RoleCommon {
		// Everything goes to the single oldest remaining master.
		grants = []models.FractionGrant{{
			MembershipID: masters[0].ID,
			Fractions:    departing.FractionCount,
			DayRate:      rate,
		}}
	} else {
		share := departing.FractionCount / len(masters)
		remainder := departing.FractionCount % len(masters)
		for i, r := range masters {
			add := share
			if i < remainder {
				add++
			}
			if add == 0 {
				continue
			}
			grants = append(grants, models.FractionGrant{
				MembershipID: r.ID,
				Fractions:    add,
				DayRate:      rate,
			})
		}
	}

	if err := s.store.ApplyRedistribution(ctx, departing.ID, grants); err != nil {
		return err
	}

	slog.Info("fractions redistributed on removal",
		"property_id", propertyID,
		"departing_owner", ownerID,
		"departing_role", string(departing.Role),
		"fractions", departing.FractionCount,
		"receivers", len(grants),
	)
	s.notify(propertyID, ownerID, "owner removed, fractions redistributed")
	return nil
}

// SetTotalFractions changes a property's fraction structure. Only a Master
// may call it. Every membership balance is rebased to the full-year value of
// its fraction count under the new day credit.
func (s *Service) SetTotalFractions(ctx context.Context, propertyID string, newTotal int) error {
	actor, ok := identity.ActorFrom(ctx)
	if !ok {
		return apperr.New(apperr.Unauthorized, "no acting owner in context")
	}

	if newTotal < 1 || newTotal > 52 {
		return apperr.New(apperr.Validation, "total fractions must be between 1 and 52, got %d", newTotal)
	}

	if _, err := s.store.GetProperty(ctx, propertyID); err != nil {
		return err
	}

	actorMembership, err := s.store.GetMembership(ctx, propertyID, actor.ID)
	if err != nil {
		return err
	}
	if actorMembership.Role != models.RoleMaster {
		return apperr.New(apperr.Unauthorized, "owner %s is not a master of property %s", actor.ID, propertyID)
	}

	memberships, err := s.store.ListMemberships(ctx, propertyID)
	if err != nil {
		return err
	}

	allocated := 0
	for _, m := range memberships {
		allocated += m.FractionCount
	}
	if newTotal < allocated {
		return apperr.New(apperr.Conflict,
			"%d fractions already allocated on property %s, cannot shrink to %d", allocated, propertyID, newTotal)
	}

	credit := DayCredit(newTotal)
	if err := s.store.RebaseProperty(ctx, propertyID, newTotal, credit); err != nil {
		return err
	}

	slog.Info("property fractions rebased",
		"property_id", propertyID,
		"total_fractions", newTotal,
		"day_credit", credit,
		"memberships", len(memberships),
	)
	s.notify(propertyID, actor.ID, "property fraction structure changed")
	return nil
}

func (s *Service) notify(propertyID, authorID, body string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(notify.Message{PropertyID: propertyID, AuthorID: authorID, Body: body})
}
