// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/namepoll/namepoll/auth"
	"github.com/namepoll/namepoll/cliparse"
	"github.com/namepoll/namepoll/middleware"
	"github.com/namepoll/namepoll/models"
)

type ProfileHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewProfileHandler(db *sql.DB, cfg cliparse.Config) *ProfileHandler {
	return &ProfileHandler{db: db, cfg: cfg}
}

// Signup handles POST /signup
// Creates a profile and returns a signed user token. This is the thin
// stand-in for the external identity provider.
func (h *ProfileHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	userID := uuid.NewString()
	_, err := h.db.Exec(`
		INSERT INTO profile (id, name, created_at)
		VALUES ($1, $2, $3)
	`, userID, name, time.Now())
	if err != nil {
		slog.Error("failed to insert profile", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign up")
		return
	}

	slog.Info("profile created", "user_id", userID)

	middleware.JSONResponse(w, http.StatusCreated, models.SignupResponse{
		UserID:    userID,
		UserToken: auth.GenerateUserToken(userID, h.cfg.UserTokenSalt),
	})
}

// GetMe handles GET /me
// Returns the caller's profile, usage summary, and subscription state.
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUser(w, r, h.cfg.UserTokenSalt)
	if !ok {
		return
	}

	var profile models.Profile
	err := h.db.QueryRow(`
		SELECT id, name, payment_customer_id, created_at
		FROM profile WHERE id = $1
	`, userID).Scan(&profile.ID, &profile.Name, &profile.PaymentCustomerID, &profile.CreatedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		slog.Error("failed to query profile", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	usage, err := usageSummary(h.db, userID, h.cfg.FreeGenerationLimit)
	if err != nil {
		slog.Error("failed to query usage", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	sub, err := loadSubscription(h.db, userID)
	if err != nil {
		slog.Error("failed to query subscription", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MeResponse{
		Profile:      profile,
		Usage:        usage,
		Subscription: sub,
	})
}
