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

type VoteHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	notifier notify.Notifier
}

func NewVoteHandler(db *sql.DB, cfg cliparse.Config, notifier notify.Notifier) *VoteHandler {
	return &VoteHandler{db: db, cfg: cfg, notifier: notifier}
}

// CastVote handles POST /polls/{id}/votes
// A signed-in user gets at most one vote per option and at most
// cfg.VoteCap votes per poll. Voting twice for the same option is a
// benign no-op, not an error. The per-poll cap is enforced under a
// lock on the poll row so two concurrent requests at cap-1 cannot
// both get in.
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	userID, err := middleware.UserID(r, h.cfg.UserTokenSalt)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid user token")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.OptionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "option_id is required")
		return
	}

	if userID == "" {
		h.castAnonymousVote(w, pollID, req)
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Lock the poll row for the duration of the cap check and insert.
	var lockedID string
	err = tx.QueryRow("SELECT id FROM poll WHERE id = $1 FOR UPDATE", pollID).Scan(&lockedID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to lock poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var optionPollID string
	err = tx.QueryRow("SELECT poll_id FROM option WHERE id = $1", req.OptionID).Scan(&optionPollID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Option not found")
		return
	}
	if err != nil {
		slog.Error("failed to query option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if optionPollID != pollID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Option does not belong to this poll")
		return
	}

	// Duplicate check before the cap check: re-voting an option the
	// user already voted for must succeed as a no-op even at the cap.
	var already bool
	err = tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM vote WHERE poll_id = $1 AND option_id = $2 AND user_id = $3)
	`, pollID, req.OptionID, userID).Scan(&already)
	if err != nil {
		slog.Error("failed to query existing vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if already {
		if err := tx.Commit(); err != nil {
			slog.Error("failed to commit transaction", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
			Duplicate: true,
			Message:   "You already voted for this option",
		})
		return
	}

	var used int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM vote WHERE poll_id = $1 AND user_id = $2
	`, pollID, userID).Scan(&used)
	if err != nil {
		slog.Error("failed to count votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if used >= h.cfg.VoteCap {
		middleware.ErrorResponse(w, http.StatusForbidden, "Vote limit reached for this poll. Retract a vote to change your picks.")
		return
	}

	var voterName *string
	var name string
	err = tx.QueryRow("SELECT name FROM profile WHERE id = $1", userID).Scan(&name)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query profile", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if err == nil {
		voterName = &name
	}

	voteID := uuid.NewString()
	res, err := tx.Exec(`
		INSERT INTO vote (id, poll_id, option_id, user_id, voter_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (poll_id, option_id, user_id) DO NOTHING
	`, voteID, pollID, req.OptionID, userID, voterName, time.Now())
	if err != nil {
		slog.Error("failed to insert vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast vote")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast vote")
		return
	}

	if n, _ := res.RowsAffected(); n == 0 {
		// Lost a race with the user's own duplicate request.
		middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
			Duplicate: true,
			Message:   "You already voted for this option",
		})
		return
	}

	slog.Info("vote cast", "vote_id", voteID, "poll_id", pollID, "option_id", req.OptionID, "user_id", userID)
	broadcast(h.notifier, pollID, "vote", "insert")

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{VoteID: voteID})
}

// castAnonymousVote records a vote with no user identity, only a
// display name. No dedup and no cap apply; the deployment opts into
// this with -allow-anon.
func (h *VoteHandler) castAnonymousVote(w http.ResponseWriter, pollID string, req models.CastVoteRequest) {
	if !h.cfg.AllowAnonymousVotes {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Sign in to vote")
		return
	}

	voterName := strings.TrimSpace(req.VoterName)
	if voterName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_name is required for anonymous votes")
		return
	}

	var optionPollID string
	err := h.db.QueryRow("SELECT poll_id FROM option WHERE id = $1", req.OptionID).Scan(&optionPollID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Option not found")
		return
	}
	if err != nil {
		slog.Error("failed to query option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if optionPollID != pollID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Option does not belong to this poll")
		return
	}

	voteID := uuid.NewString()
	_, err = h.db.Exec(`
		INSERT INTO vote (id, poll_id, option_id, user_id, voter_name, created_at)
		VALUES ($1, $2, $3, NULL, $4, $5)
	`, voteID, pollID, req.OptionID, voterName, time.Now())
	if err != nil {
		slog.Error("failed to insert anonymous vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast vote")
		return
	}

	slog.Info("anonymous vote cast", "vote_id", voteID, "poll_id", pollID, "option_id", req.OptionID)
	broadcast(h.notifier, pollID, "vote", "insert")

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{VoteID: voteID})
}

// RetractVote handles DELETE /polls/{id}/votes/{optionID}
// Removes the caller's vote for one option. Retracting a vote that was
// never cast is a no-op, matching the duplicate-vote behavior.
func (h *VoteHandler) RetractVote(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	optionID := r.PathValue("optionID")
	if pollID == "" || optionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id and option_id are required")
		return
	}

	userID, ok := middleware.RequireUser(w, r, h.cfg.UserTokenSalt)
	if !ok {
		return
	}

	res, err := h.db.Exec(`
		DELETE FROM vote WHERE poll_id = $1 AND option_id = $2 AND user_id = $3
	`, pollID, optionID, userID)
	if err != nil {
		slog.Error("failed to delete vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to retract vote")
		return
	}

	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("vote retracted", "poll_id", pollID, "option_id", optionID, "user_id", userID)
		broadcast(h.notifier, pollID, "vote", "delete")
	}

	w.WriteHeader(http.StatusNoContent)
}
