// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/namepoll/namepoll/cliparse"
	"github.com/namepoll/namepoll/handlers"
	"github.com/namepoll/namepoll/middleware"
	"github.com/namepoll/namepoll/notify"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, notifier notify.Notifier) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	profileHandler := handlers.NewProfileHandler(db, cfg)
	pollHandler := handlers.NewPollHandler(db, cfg, notifier)
	optionHandler := handlers.NewOptionHandler(db, cfg, notifier)
	voteHandler := handlers.NewVoteHandler(db, cfg, notifier)
	resultsHandler := handlers.NewResultsHandler(db, cfg, notifier)
	billingHandler := handlers.NewBillingHandler(db, cfg)
	generateHandler := handlers.NewGenerateHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Accounts
	mux.HandleFunc("POST /signup", middleware.WithLogging(profileHandler.Signup))
	mux.HandleFunc("GET /me", middleware.WithLogging(profileHandler.GetMe))

	// Poll management
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls", middleware.WithLogging(pollHandler.ListPolls))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("PATCH /polls/{id}", middleware.WithLogging(pollHandler.RenamePoll))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(pollHandler.DeletePoll))

	// Options
	mux.HandleFunc("POST /polls/{id}/options", middleware.WithLogging(optionHandler.AddOption))
	mux.HandleFunc("PATCH /options/{id}", middleware.WithLogging(optionHandler.RenameOption))
	mux.HandleFunc("DELETE /options/{id}", middleware.WithLogging(optionHandler.RemoveOption))

	// Voting
	mux.HandleFunc("POST /polls/{id}/votes", middleware.WithLogging(voteHandler.CastVote))
	mux.HandleFunc("DELETE /polls/{id}/votes/{optionID}", middleware.WithLogging(voteHandler.RetractVote))

	// Results and live updates
	mux.HandleFunc("GET /polls/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /polls/{id}/events", resultsHandler.StreamEvents)

	// Billing
	mux.HandleFunc("POST /billing/checkout", middleware.WithLogging(billingHandler.CreateCheckout))
	mux.HandleFunc("POST /billing/webhook", middleware.WithLogging(billingHandler.Webhook))
	mux.HandleFunc("GET /billing/subscription", middleware.WithLogging(billingHandler.GetSubscription))

	// AI name generation
	mux.HandleFunc("POST /generate-names", middleware.WithLogging(generateHandler.GenerateNames))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("namepoll API v1"))
	})

	return mux
}
