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

	"github.com/namepoll/namepoll/cliparse"
	"github.com/namepoll/namepoll/middleware"
	"github.com/namepoll/namepoll/models"
	"github.com/namepoll/namepoll/notify"
)

type OptionHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	notifier notify.Notifier
}

func NewOptionHandler(db *sql.DB, cfg cliparse.Config, notifier notify.Notifier) *OptionHandler {
	return &OptionHandler{db: db, cfg: cfg, notifier: notifier}
}

// AddOption handles POST /polls/{id}/options
// Any signed-in user can add an option to any poll, not just the poll
// owner. The option records who added it.
func (h *OptionHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	userID, ok := middleware.RequireUser(w, r, h.cfg.UserTokenSalt)
	if !ok {
		return
	}

	var req models.AddOptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	var exists bool
	err := h.db.QueryRow("SELECT EXISTS(SELECT 1 FROM poll WHERE id = $1)", pollID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	optionID := uuid.NewString()
	_, err = h.db.Exec(`
		INSERT INTO option (id, poll_id, name, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, optionID, pollID, name, userID, time.Now())
	if err != nil {
		slog.Error("failed to insert option", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add option")
		return
	}

	slog.Info("option added", "option_id", optionID, "poll_id", pollID, "user_id", userID)
	broadcast(h.notifier, pollID, "option", "insert")

	middleware.JSONResponse(w, http.StatusCreated, models.AddOptionResponse{OptionID: optionID})
}

// RenameOption handles PATCH /options/{id}
// Only the user who added the option may rename it.
func (h *OptionHandler) RenameOption(w http.ResponseWriter, r *http.Request) {
	optionID := r.PathValue("id")
	if optionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "option_id is required")
		return
	}

	userID, ok := middleware.RequireUser(w, r, h.cfg.UserTokenSalt)
	if !ok {
		return
	}

	var req models.RenameOptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	pollID, creatorID, ok := h.lookupOption(w, optionID)
	if !ok {
		return
	}

	if creatorID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the option creator can rename it")
		return
	}

	_, err := h.db.Exec("UPDATE option SET name = $1 WHERE id = $2", name, optionID)
	if err != nil {
		slog.Error("failed to rename option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to rename option")
		return
	}

	slog.Info("option renamed", "option_id", optionID, "poll_id", pollID)
	broadcast(h.notifier, pollID, "option", "update")

	w.WriteHeader(http.StatusNoContent)
}

// RemoveOption handles DELETE /options/{id}
// Only the user who added the option may remove it; its votes cascade.
func (h *OptionHandler) RemoveOption(w http.ResponseWriter, r *http.Request) {
	optionID := r.PathValue("id")
	if optionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "option_id is required")
		return
	}

	userID, ok := middleware.RequireUser(w, r, h.cfg.UserTokenSalt)
	if !ok {
		return
	}

	pollID, creatorID, ok := h.lookupOption(w, optionID)
	if !ok {
		return
	}

	if creatorID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the option creator can remove it")
		return
	}

	_, err := h.db.Exec("DELETE FROM option WHERE id = $1", optionID)
	if err != nil {
		slog.Error("failed to delete option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to remove option")
		return
	}

	slog.Info("option removed", "option_id", optionID, "poll_id", pollID)
	broadcast(h.notifier, pollID, "option", "delete")

	w.WriteHeader(http.StatusNoContent)
}

// lookupOption fetches the option's poll and creator, writing the error
// response itself when the option is missing or the query fails.
func (h *OptionHandler) lookupOption(w http.ResponseWriter, optionID string) (pollID, creatorID string, ok bool) {
	err := h.db.QueryRow(`
		SELECT poll_id, user_id FROM option WHERE id = $1
	`, optionID).Scan(&pollID, &creatorID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Option not found")
		return "", "", false
	}
	if err != nil {
		slog.Error("failed to query option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return "", "", false
	}
	return pollID, creatorID, true
}
