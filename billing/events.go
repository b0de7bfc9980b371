// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package billing

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedEvent = errors.New("malformed webhook event")

// Event is one webhook delivery from the payment processor. Data holds
// the event-type-specific object and is decoded lazily by the accessor
// for the expected type.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// CheckoutSession is the object carried by checkout.session.completed.
type CheckoutSession struct {
	ID                 string `json:"id"`
	Mode               string `json:"mode"`
	CustomerID         string `json:"customer"`
	SubscriptionID     string `json:"subscription"`
	SubscriptionStatus string `json:"subscription_status"`
	Metadata           struct {
		UserID string `json:"user_id"`
	} `json:"metadata"`
}

// SubscriptionObject is the object carried by the
// customer.subscription.* events.
type SubscriptionObject struct {
	ID                string `json:"id"`
	CustomerID        string `json:"customer"`
	Status            string `json:"status"`
	CurrentPeriodEnd  int64  `json:"current_period_end"` // unix seconds
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

// Invoice is the object carried by invoice.payment_failed.
type Invoice struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription"`
}

// ParseEvent decodes a webhook payload into an Event envelope.
func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.ID == "" || ev.Type == "" {
		return Event{}, ErrMalformedEvent
	}
	return ev, nil
}

// CheckoutSession decodes the event object as a checkout session.
func (ev Event) CheckoutSession() (CheckoutSession, error) {
	var s CheckoutSession
	if err := json.Unmarshal(ev.Data.Object, &s); err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: checkout session: %v", ErrMalformedEvent, err)
	}
	return s, nil
}

// Subscription decodes the event object as a subscription.
func (ev Event) Subscription() (SubscriptionObject, error) {
	var s SubscriptionObject
	if err := json.Unmarshal(ev.Data.Object, &s); err != nil {
		return SubscriptionObject{}, fmt.Errorf("%w: subscription: %v", ErrMalformedEvent, err)
	}
	return s, nil
}

// Invoice decodes the event object as an invoice.
func (ev Event) Invoice() (Invoice, error) {
	var inv Invoice
	if err := json.Unmarshal(ev.Data.Object, &inv); err != nil {
		return Invoice{}, fmt.Errorf("%w: invoice: %v", ErrMalformedEvent, err)
	}
	return inv, nil
}
