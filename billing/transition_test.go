// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/namepoll/namepoll/models"
)

func mustParseEvent(t *testing.T, payload string) Event {
	t.Helper()
	ev, err := ParseEvent([]byte(payload))
	if err != nil {
		t.Fatalf("Failed to parse event: %v", err)
	}
	return ev
}

func checkoutEvent(t *testing.T, userID, customerID, subscriptionID string) Event {
	t.Helper()
	return mustParseEvent(t, fmt.Sprintf(`{
		"id": "evt_checkout",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"mode": "subscription",
			"customer": %q,
			"subscription": %q,
			"metadata": {"user_id": %q}
		}}
	}`, customerID, subscriptionID, userID))
}

func TestTransitionCheckout(t *testing.T) {
	now := time.Now()
	ev := checkoutEvent(t, "user_1", "cus_1", "sub_1")

	next, err := Transition(nil, ev, now)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if next == nil {
		t.Fatal("Expected a new subscription record")
	}
	if next.UserID != "user_1" {
		t.Errorf("Expected user_1, got %s", next.UserID)
	}
	if next.Status != models.SubStatusActive {
		t.Errorf("Expected active status, got %s", next.Status)
	}
	if next.SubscriptionID == nil || *next.SubscriptionID != "sub_1" {
		t.Errorf("Expected subscription_id sub_1, got %v", next.SubscriptionID)
	}
}

func TestTransitionCheckoutNonSubscriptionMode(t *testing.T) {
	ev := mustParseEvent(t, `{
		"id": "evt_pay",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "mode": "payment", "customer": "cus_1", "metadata": {"user_id": "user_1"}}}
	}`)

	next, err := Transition(nil, ev, time.Now())
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if next != nil {
		t.Errorf("One-time payment checkout should be a no-op, got %+v", next)
	}
}

func TestTransitionCheckoutReplayAfterUpdate(t *testing.T) {
	now := time.Now()
	subID := "sub_1"
	cusID := "cus_1"
	periodEnd := now.Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)

	// State a subscription.updated already produced
	current := &models.Subscription{
		UserID:            "user_1",
		CustomerID:        &cusID,
		SubscriptionID:    &subID,
		Status:            models.SubStatusActive,
		CurrentPeriodEnd:  &periodEnd,
		CancelAtPeriodEnd: true,
		UpdatedAt:         now,
	}

	// Replayed checkout must not roll back period end or cancel flag
	next, err := Transition(current, checkoutEvent(t, "user_1", "cus_1", "sub_1"), now)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if next != nil {
		t.Errorf("Replayed checkout should be a no-op, got %+v", next)
	}
}

func TestTransitionUpdate(t *testing.T) {
	now := time.Now()
	subID := "sub_1"
	cusID := "cus_1"
	current := &models.Subscription{
		UserID:         "user_1",
		CustomerID:     &cusID,
		SubscriptionID: &subID,
		Status:         models.SubStatusActive,
		UpdatedAt:      now,
	}

	periodEnd := now.Add(30 * 24 * time.Hour).Unix()
	ev := mustParseEvent(t, fmt.Sprintf(`{
		"id": "evt_upd",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_1",
			"customer": "cus_1",
			"status": "active",
			"current_period_end": %d,
			"cancel_at_period_end": true
		}}
	}`, periodEnd))

	next, err := Transition(current, ev, now)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if next == nil {
		t.Fatal("Expected an updated record")
	}
	if !next.CancelAtPeriodEnd {
		t.Error("Expected cancel_at_period_end to be set")
	}
	if next.CurrentPeriodEnd == nil || next.CurrentPeriodEnd.Unix() != periodEnd {
		t.Errorf("Expected period end %d, got %v", periodEnd, next.CurrentPeriodEnd)
	}

	// Applying the same event again is a no-op
	again, err := Transition(next, ev, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if again != nil {
		t.Errorf("Replayed update should be a no-op, got %+v", again)
	}
}

func TestTransitionUpdateNeverCreates(t *testing.T) {
	ev := mustParseEvent(t, `{
		"id": "evt_upd",
		"type": "customer.subscription.updated",
		"data": {"object": {"id": "sub_unknown", "customer": "cus_1", "status": "active"}}
	}`)

	next, err := Transition(nil, ev, time.Now())
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if next != nil {
		t.Errorf("Update without a record should be a no-op, got %+v", next)
	}
}

func TestTransitionDeleted(t *testing.T) {
	now := time.Now()
	subID := "sub_1"
	current := &models.Subscription{
		UserID:         "user_1",
		SubscriptionID: &subID,
		Status:         models.SubStatusActive,
		UpdatedAt:      now,
	}

	ev := mustParseEvent(t, `{
		"id": "evt_del",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "customer": "cus_1", "status": "canceled"}}
	}`)

	next, err := Transition(current, ev, now)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if next == nil || next.Status != models.SubStatusCanceled {
		t.Fatalf("Expected canceled record, got %+v", next)
	}

	// Replay is a no-op
	again, err := Transition(next, ev, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if again != nil {
		t.Errorf("Replayed delete should be a no-op, got %+v", again)
	}
}

func TestTransitionPaymentFailed(t *testing.T) {
	now := time.Now()
	subID := "sub_1"
	current := &models.Subscription{
		UserID:         "user_1",
		SubscriptionID: &subID,
		Status:         models.SubStatusActive,
		UpdatedAt:      now,
	}

	ev := mustParseEvent(t, `{
		"id": "evt_fail",
		"type": "invoice.payment_failed",
		"data": {"object": {"id": "in_1", "subscription": "sub_1"}}
	}`)

	next, err := Transition(current, ev, now)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if next == nil || next.Status != models.SubStatusPastDue {
		t.Fatalf("Expected past_due record, got %+v", next)
	}
}

func TestTransitionUnknownEventType(t *testing.T) {
	ev := mustParseEvent(t, `{
		"id": "evt_other",
		"type": "customer.created",
		"data": {"object": {}}
	}`)

	next, err := Transition(nil, ev, time.Now())
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if next != nil {
		t.Errorf("Unknown event type should be a no-op, got %+v", next)
	}
}

func TestParseEventRejectsGarbage(t *testing.T) {
	if _, err := ParseEvent([]byte("not json")); err == nil {
		t.Error("Expected error for malformed payload")
	}
	if _, err := ParseEvent([]byte(`{"type": "x"}`)); err == nil {
		t.Error("Expected error for event without id")
	}
}
