// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/namepoll/namepoll/cliparse"
	"github.com/namepoll/namepoll/middleware"
	"github.com/namepoll/namepoll/models"
	"github.com/namepoll/namepoll/notify"
)

type ResultsHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	notifier notify.Notifier
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config, notifier notify.Notifier) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg, notifier: notifier}
}

// GetResults handles GET /polls/{id}/results
// Results are always derived from the vote table at read time; there
// is no stored counter to drift out of sync.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
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

	tallies, total, err := computeTallies(h.db, pollID)
	if err != nil {
		slog.Error("failed to compute tallies", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		PollID:  pollID,
		Tallies: tallies,
		Total:   total,
	})
}

// StreamEvents handles GET /polls/{id}/events
// Server-sent events: each committed mutation to the poll produces one
// "change" event; clients re-fetch the poll on receipt. A periodic
// heartbeat keeps intermediaries from closing the idle connection.
func (h *ResultsHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	events, cancel, err := h.notifier.Subscribe(r.Context(), pollID)
	if err != nil {
		slog.Error("failed to subscribe to poll events", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case change, open := <-events:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: change\ndata: {\"poll_id\":%q,\"table\":%q,\"action\":%q}\n\n",
				change.PollID, change.Table, change.Action)
			flusher.Flush()
		}
	}
}

// computeTallies aggregates votes per option. Options with zero votes
// are included. Sort order: vote count descending, then option
// creation order so fresh polls list options as entered.
func computeTallies(db *sql.DB, pollID string) ([]models.OptionTally, int, error) {
	rows, err := db.Query(`
		SELECT o.id, o.name, COUNT(v.id)
		FROM option o
		LEFT JOIN vote v ON v.option_id = o.id
		WHERE o.poll_id = $1
		GROUP BY o.id, o.name, o.created_at
		ORDER BY COUNT(v.id) DESC, o.created_at ASC, o.id ASC
	`, pollID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tallies := []models.OptionTally{}
	total := 0
	for rows.Next() {
		var t models.OptionTally
		if err := rows.Scan(&t.OptionID, &t.Name, &t.VoteCount); err != nil {
			return nil, 0, err
		}
		total += t.VoteCount
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range tallies {
		if tallies[i].VoteCount == 0 {
			continue
		}
		names, err := voterNames(db, tallies[i].OptionID)
		if err != nil {
			return nil, 0, err
		}
		tallies[i].VoterNames = names
	}

	return tallies, total, nil
}

// voterNames lists the display names attached to an option's votes, in
// voting order. Votes without a name are skipped.
func voterNames(db *sql.DB, optionID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT voter_name FROM vote
		WHERE option_id = $1 AND voter_name IS NOT NULL
		ORDER BY created_at
	`, optionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
