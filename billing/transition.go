// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package billing

import (
	"time"

	"github.com/namepoll/namepoll/models"
)

// Transition computes the subscription record that should exist after
// applying an event to the current record. It is a pure function:
// callers load the current row, transition, and persist the result.
//
// Returns nil when the event requires no state change (unknown event
// type, update for a record that does not exist, or a replay that
// would leave the record unchanged). current may be nil when the user
// has no subscription record yet.
func Transition(current *models.Subscription, ev Event, now time.Time) (*models.Subscription, error) {
	switch ev.Type {
	case models.EventCheckoutCompleted:
		session, err := ev.CheckoutSession()
		if err != nil {
			return nil, err
		}
		// Only subscription-mode checkouts carry a subscription.
		if session.Mode != "subscription" || session.SubscriptionID == "" {
			return nil, nil
		}
		if session.Metadata.UserID == "" {
			return nil, nil
		}

		status := session.SubscriptionStatus
		if status == "" {
			status = models.SubStatusActive
		}

		next := &models.Subscription{
			UserID:         session.Metadata.UserID,
			CustomerID:     &session.CustomerID,
			SubscriptionID: &session.SubscriptionID,
			Status:         status,
			UpdatedAt:      now,
		}
		// A replayed checkout event must not roll back fields that a
		// later subscription.updated already set.
		if current != nil && current.SubscriptionID != nil && *current.SubscriptionID == session.SubscriptionID {
			next.CurrentPeriodEnd = current.CurrentPeriodEnd
			next.CancelAtPeriodEnd = current.CancelAtPeriodEnd
			next.Status = current.Status
		}
		if current != nil && sameState(current, next) {
			return nil, nil
		}
		return next, nil

	case models.EventSubscriptionUpdated:
		sub, err := ev.Subscription()
		if err != nil {
			return nil, err
		}
		// Never create on update.
		if current == nil || current.SubscriptionID == nil || *current.SubscriptionID != sub.ID {
			return nil, nil
		}
		next := *current
		next.Status = sub.Status
		next.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		if sub.CurrentPeriodEnd > 0 {
			end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			next.CurrentPeriodEnd = &end
		}
		next.UpdatedAt = now
		if sameState(current, &next) {
			return nil, nil
		}
		return &next, nil

	case models.EventSubscriptionDeleted:
		sub, err := ev.Subscription()
		if err != nil {
			return nil, err
		}
		if current == nil || current.SubscriptionID == nil || *current.SubscriptionID != sub.ID {
			return nil, nil
		}
		if current.Status == models.SubStatusCanceled {
			return nil, nil
		}
		next := *current
		next.Status = models.SubStatusCanceled
		next.UpdatedAt = now
		return &next, nil

	case models.EventPaymentFailed:
		inv, err := ev.Invoice()
		if err != nil {
			return nil, err
		}
		if inv.SubscriptionID == "" || current == nil ||
			current.SubscriptionID == nil || *current.SubscriptionID != inv.SubscriptionID {
			return nil, nil
		}
		if current.Status == models.SubStatusPastDue {
			return nil, nil
		}
		next := *current
		next.Status = models.SubStatusPastDue
		next.UpdatedAt = now
		return &next, nil
	}

	return nil, nil
}

// sameState reports whether two records agree on everything except
// UpdatedAt, so replayed events do not churn the row.
func sameState(a, b *models.Subscription) bool {
	if a.Status != b.Status || a.CancelAtPeriodEnd != b.CancelAtPeriodEnd {
		return false
	}
	if !eqStrPtr(a.SubscriptionID, b.SubscriptionID) || !eqStrPtr(a.CustomerID, b.CustomerID) {
		return false
	}
	switch {
	case a.CurrentPeriodEnd == nil && b.CurrentPeriodEnd == nil:
		return true
	case a.CurrentPeriodEnd == nil || b.CurrentPeriodEnd == nil:
		return false
	default:
		return a.CurrentPeriodEnd.Equal(*b.CurrentPeriodEnd)
	}
}

func eqStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
