// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/namepoll/namepoll/models"
	"github.com/namepoll/namepoll/notify"
)

// isPremium reports whether the user has an active subscription.
func isPremium(db *sql.DB, userID string) (bool, error) {
	var premium bool
	err := db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM subscription
			WHERE user_id = $1 AND status = $2
		)
	`, userID, models.SubStatusActive).Scan(&premium)
	return premium, err
}

// generationCount returns the user's metered-action counter (0 when no
// row exists yet).
func generationCount(db *sql.DB, userID string) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT generation_count FROM generation_usage WHERE user_id = $1
	`, userID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return count, err
}

// usageSummary builds the usage block returned to clients.
func usageSummary(db *sql.DB, userID string, freeLimit int) (models.UsageSummary, error) {
	premium, err := isPremium(db, userID)
	if err != nil {
		return models.UsageSummary{}, err
	}
	used, err := generationCount(db, userID)
	if err != nil {
		return models.UsageSummary{}, err
	}

	remaining := -1
	if !premium {
		remaining = freeLimit - used
		if remaining < 0 {
			remaining = 0
		}
	}

	return models.UsageSummary{
		GenerationsUsed:      used,
		GenerationsRemaining: remaining,
		IsPremium:            premium,
	}, nil
}

// recordGeneration increments the user's counter by one. For free-tier
// users the increment is conditional on the counter being under the
// limit, as a single atomic statement - two racing calls cannot both
// slip past the cap, and a stale client-side check cannot overdraw.
// Returns false when the limit blocked the increment.
func recordGeneration(db *sql.DB, userID string, premium bool, freeLimit int) (bool, error) {
	var res sql.Result
	var err error

	if premium {
		res, err = db.Exec(`
			INSERT INTO generation_usage (user_id, generation_count, updated_at)
			VALUES ($1, 1, $2)
			ON CONFLICT (user_id) DO UPDATE
			SET generation_count = generation_usage.generation_count + 1, updated_at = $2
		`, userID, time.Now())
	} else {
		res, err = db.Exec(`
			INSERT INTO generation_usage (user_id, generation_count, updated_at)
			VALUES ($1, 1, $2)
			ON CONFLICT (user_id) DO UPDATE
			SET generation_count = generation_usage.generation_count + 1, updated_at = $2
			WHERE generation_usage.generation_count < $3
		`, userID, time.Now(), freeLimit)
	}
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// loadSubscription fetches the user's subscription record, defaulting
// to a not_started record when none exists.
func loadSubscription(db *sql.DB, userID string) (models.Subscription, error) {
	var sub models.Subscription
	err := db.QueryRow(`
		SELECT user_id, customer_id, subscription_id, status, current_period_end, cancel_at_period_end, updated_at
		FROM subscription WHERE user_id = $1
	`, userID).Scan(&sub.UserID, &sub.CustomerID, &sub.SubscriptionID,
		&sub.Status, &sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd, &sub.UpdatedAt)

	if err == sql.ErrNoRows {
		return models.Subscription{
			UserID: userID,
			Status: models.SubStatusNotStarted,
		}, nil
	}
	if err != nil {
		return models.Subscription{}, err
	}
	return sub, nil
}

// broadcast publishes a change event after a committed mutation.
// Fire-and-forget: a notifier failure is logged and never surfaced,
// viewers self-heal on the next full reload.
func broadcast(notifier notify.Notifier, pollID, table, action string) {
	err := notifier.Publish(context.Background(), notify.Change{
		PollID: pollID,
		Table:  table,
		Action: action,
	})
	if err != nil {
		slog.Warn("failed to publish change event", "error", err, "poll_id", pollID)
	}
}
