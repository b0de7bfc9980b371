// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the namepoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, notifier)

# Endpoints

Health:

	GET /health

Accounts:

	POST /signup - Create a profile and receive a user token
	GET  /me     - Profile, usage, and subscription state

Poll management (authenticated, owner-only for rename/delete):

	POST   /polls      - Create poll with initial options
	GET    /polls      - List polls
	GET    /polls/{id} - Poll details with tallies
	PATCH  /polls/{id} - Rename poll
	DELETE /polls/{id} - Delete poll

Options (any signed-in user can add; creator-only edit/remove):

	POST   /polls/{id}/options - Add option
	PATCH  /options/{id}       - Rename option
	DELETE /options/{id}       - Remove option

Voting:

	POST   /polls/{id}/votes            - Cast vote
	DELETE /polls/{id}/votes/{optionID} - Retract vote

Results:

	GET /polls/{id}/results - Derived tallies
	GET /polls/{id}/events  - Server-sent change events

Billing:

	POST /billing/checkout     - Open subscription checkout
	POST /billing/webhook      - Payment provider webhook
	GET  /billing/subscription - Subscription state

AI name generation (metered for free tier):

	POST /generate-names

# Handler Initialization

The router creates handler instances with dependency injection; all
handlers receive the database connection and configuration, and
mutating handlers also receive the change notifier.
*/
package router
