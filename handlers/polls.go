// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/namepoll/namepoll/cliparse"
	"github.com/namepoll/namepoll/middleware"
	"github.com/namepoll/namepoll/models"
	"github.com/namepoll/namepoll/notify"
)

type PollHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	notifier notify.Notifier
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config, notifier notify.Notifier) *PollHandler {
	return &PollHandler{db: db, cfg: cfg, notifier: notifier}
}

// CreatePoll handles POST /polls
// Creates a poll and its initial options as one unit. Free-tier users
// are limited to cfg.FreePollLimit owned polls.
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUser(w, r, h.cfg.UserTokenSalt)
	if !ok {
		return
	}

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	title := strings.TrimSpace(req.Title)
	if title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	var optionNames []string
	for _, name := range req.Options {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			optionNames = append(optionNames, trimmed)
		}
	}
	if len(optionNames) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least 2 options are required")
		return
	}

	// Free-tier gate on poll creation
	premium, err := isPremium(h.db, userID)
	if err != nil {
		slog.Error("failed to check subscription", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !premium {
		var owned int
		err := h.db.QueryRow("SELECT COUNT(*) FROM poll WHERE user_id = $1", userID).Scan(&owned)
		if err != nil {
			slog.Error("failed to count polls", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if owned >= h.cfg.FreePollLimit {
			middleware.UpgradeRequiredResponse(w, "Free poll limit reached. Upgrade to create unlimited polls.")
			return
		}
	}

	pollID := uuid.NewString()
	now := time.Now()

	// Poll and options are inserted atomically: a failed option insert
	// rolls back the poll so it is never left without options.
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO poll (id, title, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`, pollID, title, userID, now)
	if err != nil {
		slog.Error("failed to insert poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	options := make([]models.Option, 0, len(optionNames))
	for i, name := range optionNames {
		opt := models.Option{
			ID:     uuid.NewString(),
			PollID: pollID,
			Name:   name,
			UserID: userID,
			// Spread creation timestamps so insertion order survives
			// as the tie-break in tally sorting.
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		}
		_, err = tx.Exec(`
			INSERT INTO option (id, poll_id, name, user_id, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, opt.ID, opt.PollID, opt.Name, opt.UserID, opt.CreatedAt)
		if err != nil {
			slog.Error("failed to insert option", "error", err, "poll_id", pollID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
		options = append(options, opt)
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	slog.Info("poll created", "poll_id", pollID, "user_id", userID, "options", len(options))
	broadcast(h.notifier, pollID, "poll", "insert")

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		PollID:  pollID,
		Options: options,
	})
}

// ListPolls handles GET /polls
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT p.id, p.title, p.user_id, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM option o WHERE o.poll_id = p.id),
		       (SELECT COUNT(*) FROM vote v WHERE v.poll_id = p.id)
		FROM poll p
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		slog.Error("failed to query polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	polls := []models.PollListItem{}
	for rows.Next() {
		var item models.PollListItem
		if err := rows.Scan(&item.Poll.ID, &item.Poll.Title, &item.Poll.UserID,
			&item.Poll.CreatedAt, &item.Poll.UpdatedAt,
			&item.OptionCount, &item.VoteCount); err != nil {
			slog.Error("failed to scan poll", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		item.Age = humanize.Time(item.Poll.CreatedAt)
		polls = append(polls, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollListResponse{Polls: polls})
}

// GetPoll handles GET /polls/{id}
// Returns the poll, its options, derived tallies, and - for an
// authenticated caller - which options they voted for.
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	// Authentication is optional on reads.
	userID, err := middleware.UserID(r, h.cfg.UserTokenSalt)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid user token")
		return
	}

	var poll models.Poll
	err = h.db.QueryRow(`
		SELECT id, title, user_id, created_at, updated_at
		FROM poll WHERE id = $1
	`, pollID).Scan(&poll.ID, &poll.Title, &poll.UserID, &poll.CreatedAt, &poll.UpdatedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	options, err := pollOptions(h.db, pollID)
	if err != nil {
		slog.Error("failed to query options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	tallies, _, err := computeTallies(h.db, pollID)
	if err != nil {
		slog.Error("failed to compute tallies", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	detail := models.PollDetail{
		Poll:      poll,
		Options:   options,
		Tallies:   tallies,
		VoteCap:   h.cfg.VoteCap,
		OwnedByMe: userID != "" && userID == poll.UserID,
	}

	if userID != "" {
		myVotes, err := votedOptionIDs(h.db, pollID, userID)
		if err != nil {
			slog.Error("failed to query caller votes", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		detail.MyVotes = myVotes
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// RenamePoll handles PATCH /polls/{id}
// Only the poll owner may rename it.
func (h *PollHandler) RenamePoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	userID, ok := middleware.RequireUser(w, r, h.cfg.UserTokenSalt)
	if !ok {
		return
	}

	var req models.RenamePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	var ownerID string
	err := h.db.QueryRow("SELECT user_id FROM poll WHERE id = $1", pollID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the poll owner can rename it")
		return
	}

	_, err = h.db.Exec(`
		UPDATE poll SET title = $1, updated_at = $2 WHERE id = $3
	`, title, time.Now(), pollID)
	if err != nil {
		slog.Error("failed to rename poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to rename poll")
		return
	}

	slog.Info("poll renamed", "poll_id", pollID)
	broadcast(h.notifier, pollID, "poll", "update")

	w.WriteHeader(http.StatusNoContent)
}

// DeletePoll handles DELETE /polls/{id}
// Only the poll owner may delete it; options and votes cascade.
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	userID, ok := middleware.RequireUser(w, r, h.cfg.UserTokenSalt)
	if !ok {
		return
	}

	var ownerID string
	err := h.db.QueryRow("SELECT user_id FROM poll WHERE id = $1", pollID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the poll owner can delete it")
		return
	}

	_, err = h.db.Exec("DELETE FROM poll WHERE id = $1", pollID)
	if err != nil {
		slog.Error("failed to delete poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete poll")
		return
	}

	slog.Info("poll deleted", "poll_id", pollID)
	broadcast(h.notifier, pollID, "poll", "delete")

	w.WriteHeader(http.StatusNoContent)
}

// pollOptions fetches a poll's options in insertion order.
func pollOptions(db *sql.DB, pollID string) ([]models.Option, error) {
	rows, err := db.Query(`
		SELECT id, poll_id, name, user_id, created_at
		FROM option
		WHERE poll_id = $1
		ORDER BY created_at, id
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []models.Option{}
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Name, &opt.UserID, &opt.CreatedAt); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

// votedOptionIDs returns the option IDs the user currently holds votes
// for within a poll.
func votedOptionIDs(db *sql.DB, pollID, userID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT option_id FROM vote
		WHERE poll_id = $1 AND user_id = $2
		ORDER BY created_at
	`, pollID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
