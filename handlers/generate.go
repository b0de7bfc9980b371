// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/namepoll/namepoll/cliparse"
	"github.com/namepoll/namepoll/llm"
	"github.com/namepoll/namepoll/middleware"
	"github.com/namepoll/namepoll/models"
)

type GenerateHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	client *llm.Client
}

func NewGenerateHandler(db *sql.DB, cfg cliparse.Config) *GenerateHandler {
	return &GenerateHandler{
		db:     db,
		cfg:    cfg,
		client: llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel),
	}
}

// GenerateNames handles POST /generate-names
// Free-tier users get cfg.FreeGenerationLimit calls ever; subscribers
// are unmetered. The counter is only consumed when the model call
// succeeds, so a provider outage never burns a user's quota.
func (h *GenerateHandler) GenerateNames(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUser(w, r, h.cfg.UserTokenSalt)
	if !ok {
		return
	}

	if !h.client.Configured() {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Name generation is not configured")
		return
	}

	var req models.GenerateNamesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	title := strings.TrimSpace(req.Title)
	count := req.Count
	if count <= 0 {
		count = 5
	}
	if count > 10 {
		count = 10
	}

	premium, err := isPremium(h.db, userID)
	if err != nil {
		slog.Error("failed to check subscription", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !premium {
		used, err := generationCount(h.db, userID)
		if err != nil {
			slog.Error("failed to query usage", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if used >= h.cfg.FreeGenerationLimit {
			middleware.UpgradeRequiredResponse(w, "Free generation limit reached. Upgrade for unlimited name generation.")
			return
		}
	}

	names, err := h.client.GenerateNames(r.Context(), title, count)
	if err != nil {
		slog.Error("name generation failed", "error", err, "user_id", userID)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Name generation failed")
		return
	}

	// The pre-check above is advisory; this conditional increment is
	// what actually enforces the limit under concurrent requests.
	recorded, err := recordGeneration(h.db, userID, premium, h.cfg.FreeGenerationLimit)
	if err != nil {
		slog.Error("failed to record generation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !recorded {
		middleware.UpgradeRequiredResponse(w, "Free generation limit reached. Upgrade for unlimited name generation.")
		return
	}

	usage, err := usageSummary(h.db, userID, h.cfg.FreeGenerationLimit)
	if err != nil {
		slog.Error("failed to query usage", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("names generated", "user_id", userID, "count", len(names))

	middleware.JSONResponse(w, http.StatusOK, models.GenerateNamesResponse{
		Names: names,
		Usage: usage,
	})
}
