// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Subscription status constants. These mirror the payment processor's
// subscription lifecycle; "not_started" is our own resting state for
// users who never checked out.
const (
	SubStatusNotStarted = "not_started"
	SubStatusActive     = "active"
	SubStatusPastDue    = "past_due"
	SubStatusCanceled   = "canceled"
)

// Webhook event types we dispatch on. Anything else is logged and acked.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentFailed       = "invoice.payment_failed"
)

// Request types

type SignupRequest struct {
	Name string `json:"name"`
}

type CreatePollRequest struct {
	Title   string   `json:"title"`
	Options []string `json:"options"`
}

type RenamePollRequest struct {
	Title string `json:"title"`
}

type AddOptionRequest struct {
	Name string `json:"name"`
}

type RenameOptionRequest struct {
	Name string `json:"name"`
}

type CastVoteRequest struct {
	OptionID string `json:"option_id"`
	// VoterName is only honored when the server runs with -allow-anon
	// and the request carries no user token.
	VoterName string `json:"voter_name,omitempty"`
}

type GenerateNamesRequest struct {
	Title string `json:"title"`
	Count int    `json:"count,omitempty"`
}

// Response types

type SignupResponse struct {
	UserID    string `json:"user_id"`
	UserToken string `json:"user_token"`
}

type CreatePollResponse struct {
	PollID  string   `json:"poll_id"`
	Options []Option `json:"options"`
}

type AddOptionResponse struct {
	OptionID string `json:"option_id"`
}

type CastVoteResponse struct {
	VoteID    string `json:"vote_id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type GenerateNamesResponse struct {
	Names []string     `json:"names"`
	Usage UsageSummary `json:"usage"`
}

type UsageSummary struct {
	GenerationsUsed      int  `json:"generations_used"`
	GenerationsRemaining int  `json:"generations_remaining"` // -1 when premium
	IsPremium            bool `json:"is_premium"`
}

type MeResponse struct {
	Profile      Profile      `json:"profile"`
	Usage        UsageSummary `json:"usage"`
	Subscription Subscription `json:"subscription"`
}

// Domain types

type Profile struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	PaymentCustomerID *string   `json:"-"` // never exposed
	CreatedAt         time.Time `json:"created_at"`
}

type Poll struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Option struct {
	ID        string    `json:"id"`
	PollID    string    `json:"poll_id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Vote struct {
	ID        string    `json:"id"`
	PollID    string    `json:"poll_id"`
	OptionID  string    `json:"option_id"`
	UserID    *string   `json:"user_id,omitempty"`
	VoterName *string   `json:"voter_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Subscription struct {
	UserID            string     `json:"user_id"`
	CustomerID        *string    `json:"-"` // never exposed
	SubscriptionID    *string    `json:"-"` // never exposed
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// OptionTally is one row of a poll's derived results. Counts are
// recomputed from vote rows on every read, never cached.
type OptionTally struct {
	OptionID   string   `json:"option_id"`
	Name       string   `json:"name"`
	VoteCount  int      `json:"vote_count"`
	VoterNames []string `json:"voter_names,omitempty"`
}

type PollDetail struct {
	Poll      Poll          `json:"poll"`
	Options   []Option      `json:"options"`
	Tallies   []OptionTally `json:"tallies"`
	MyVotes   []string      `json:"my_votes,omitempty"` // option IDs the caller voted for
	VoteCap   int           `json:"vote_cap"`
	OwnedByMe bool          `json:"owned_by_me"`
}

// PollListItem is a poll row on the list view with derived counts and a
// human-readable age ("3 days ago").
type PollListItem struct {
	Poll        Poll   `json:"poll"`
	OptionCount int    `json:"option_count"`
	VoteCount   int    `json:"vote_count"`
	Age         string `json:"age"`
}

type PollListResponse struct {
	Polls []PollListItem `json:"polls"`
}

type ResultsResponse struct {
	PollID  string        `json:"poll_id"`
	Tallies []OptionTally `json:"tallies"`
	Total   int           `json:"total_votes"`
}

// Error response

type ErrorResponse struct {
	Error           string `json:"error"`
	Message         string `json:"message,omitempty"`
	RequiresUpgrade bool   `json:"requires_upgrade,omitempty"`
}
