// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package billing

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/namepoll/namepoll/models"
)

// Apply durably processes one webhook event inside a transaction:
// record the event ID in the ledger, load the affected subscription
// row, run the pure Transition, and persist the result. Replays hit
// the ledger's primary key and return without touching state.
//
// Returns true when the event changed a subscription record.
func Apply(db *sql.DB, ev Event, now time.Time) (bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin webhook transaction: %w", err)
	}
	defer tx.Rollback()

	// Idempotency ledger: a replayed event ID inserts zero rows.
	res, err := tx.Exec(`
		INSERT INTO webhook_event (id, event_type, received_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, ev.ID, ev.Type, now)
	if err != nil {
		return false, fmt.Errorf("record webhook event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already processed; commit keeps the ledger read consistent.
		return false, tx.Commit()
	}

	current, err := loadForEvent(tx, ev)
	if err != nil {
		return false, err
	}

	next, err := Transition(current, ev, now)
	if err != nil {
		return false, err
	}
	if next == nil {
		return false, tx.Commit()
	}

	_, err = tx.Exec(`
		INSERT INTO subscription (user_id, customer_id, subscription_id, status, current_period_end, cancel_at_period_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			subscription_id = EXCLUDED.subscription_id,
			status = EXCLUDED.status,
			current_period_end = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at = EXCLUDED.updated_at
	`, next.UserID, next.CustomerID, next.SubscriptionID, next.Status,
		next.CurrentPeriodEnd, next.CancelAtPeriodEnd, next.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("persist subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit webhook transaction: %w", err)
	}
	return true, nil
}

// loadForEvent fetches the subscription row the event targets, locked
// for the duration of the transaction. Checkout events are keyed by
// user ID from session metadata; the rest by subscription ID.
func loadForEvent(tx *sql.Tx, ev Event) (*models.Subscription, error) {
	var row *sql.Row

	switch ev.Type {
	case models.EventCheckoutCompleted:
		session, err := ev.CheckoutSession()
		if err != nil {
			return nil, err
		}
		if session.Metadata.UserID == "" {
			return nil, nil
		}
		row = tx.QueryRow(`
			SELECT user_id, customer_id, subscription_id, status, current_period_end, cancel_at_period_end, updated_at
			FROM subscription WHERE user_id = $1 FOR UPDATE
		`, session.Metadata.UserID)

	case models.EventSubscriptionUpdated, models.EventSubscriptionDeleted:
		sub, err := ev.Subscription()
		if err != nil {
			return nil, err
		}
		row = tx.QueryRow(`
			SELECT user_id, customer_id, subscription_id, status, current_period_end, cancel_at_period_end, updated_at
			FROM subscription WHERE subscription_id = $1 FOR UPDATE
		`, sub.ID)

	case models.EventPaymentFailed:
		inv, err := ev.Invoice()
		if err != nil {
			return nil, err
		}
		if inv.SubscriptionID == "" {
			return nil, nil
		}
		row = tx.QueryRow(`
			SELECT user_id, customer_id, subscription_id, status, current_period_end, cancel_at_period_end, updated_at
			FROM subscription WHERE subscription_id = $1 FOR UPDATE
		`, inv.SubscriptionID)

	default:
		return nil, nil
	}

	var sub models.Subscription
	err := row.Scan(&sub.UserID, &sub.CustomerID, &sub.SubscriptionID,
		&sub.Status, &sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd, &sub.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return &sub, nil
}
