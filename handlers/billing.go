// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/namepoll/namepoll/billing"
	"github.com/namepoll/namepoll/cliparse"
	"github.com/namepoll/namepoll/middleware"
	"github.com/namepoll/namepoll/models"
)

// maxWebhookBody bounds how much of a webhook payload we will read.
const maxWebhookBody = 1 << 20

type BillingHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	client *billing.Client
}

func NewBillingHandler(db *sql.DB, cfg cliparse.Config) *BillingHandler {
	return &BillingHandler{
		db:     db,
		cfg:    cfg,
		client: billing.NewClient(cfg.PaymentBaseURL, cfg.PaymentSecretKey),
	}
}

// CreateCheckout handles POST /billing/checkout
// Ensures the user has a payment customer, then opens a subscription
// checkout session and returns its URL for the client to redirect to.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUser(w, r, h.cfg.UserTokenSalt)
	if !ok {
		return
	}

	if !h.client.Configured() {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Billing is not configured")
		return
	}

	var name string
	var customerID *string
	err := h.db.QueryRow(`
		SELECT name, payment_customer_id FROM profile WHERE id = $1
	`, userID).Scan(&name, &customerID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		slog.Error("failed to query profile", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if customerID == nil {
		id, err := h.client.CreateCustomer(r.Context(), name, userID)
		if err != nil {
			slog.Error("failed to create payment customer", "error", err, "user_id", userID)
			middleware.ErrorResponse(w, http.StatusBadGateway, "Payment provider error")
			return
		}
		_, err = h.db.Exec(`
			UPDATE profile SET payment_customer_id = $1 WHERE id = $2
		`, id, userID)
		if err != nil {
			slog.Error("failed to store payment customer id", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		customerID = &id
	}

	url, err := h.client.CreateCheckoutSession(r.Context(), billing.CheckoutParams{
		CustomerID:  *customerID,
		UserID:      userID,
		ProductName: "Unlimited Polls",
		UnitAmount:  999,
		Currency:    "usd",
		Interval:    "month",
		SuccessURL:  h.cfg.CheckoutSuccessURL,
		CancelURL:   h.cfg.CheckoutCancelURL,
	})
	if err != nil {
		slog.Error("failed to create checkout session", "error", err, "user_id", userID)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Payment provider error")
		return
	}

	slog.Info("checkout session created", "user_id", userID)
	middleware.JSONResponse(w, http.StatusOK, models.CheckoutResponse{URL: url})
}

// Webhook handles POST /billing/webhook
// Verifies the provider signature, then applies the event to the
// subscription table. Replayed events are acknowledged without effect,
// so the provider's retries are always safe.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	if h.cfg.PaymentWebhookSecret != "" {
		err := billing.VerifySignature(payload, r.Header.Get("Stripe-Signature"), h.cfg.PaymentWebhookSecret, time.Now())
		if err != nil {
			slog.Warn("webhook signature rejected", "error", err)
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid signature")
			return
		}
	}

	ev, err := billing.ParseEvent(payload)
	if err != nil {
		slog.Warn("malformed webhook event", "error", err)
		middleware.ErrorResponse(w, http.StatusBadRequest, "Malformed event")
		return
	}

	applied, err := billing.Apply(h.db, ev, time.Now())
	if err != nil {
		if errors.Is(err, billing.ErrMalformedEvent) {
			slog.Warn("unprocessable webhook event", "error", err, "event_id", ev.ID, "type", ev.Type)
			middleware.ErrorResponse(w, http.StatusBadRequest, "Malformed event")
			return
		}
		slog.Error("failed to apply webhook event", "error", err, "event_id", ev.ID, "type", ev.Type)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to process event")
		return
	}

	if applied {
		slog.Info("webhook event applied", "event_id", ev.ID, "type", ev.Type)
	} else {
		slog.Info("webhook event skipped", "event_id", ev.ID, "type", ev.Type)
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"received": true})
}

// GetSubscription handles GET /billing/subscription
func (h *BillingHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUser(w, r, h.cfg.UserTokenSalt)
	if !ok {
		return
	}

	sub, err := loadSubscription(h.db, userID)
	if err != nil {
		slog.Error("failed to query subscription", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, sub)
}
