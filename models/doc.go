// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - SignupRequest: name
  - CreatePollRequest: title, options
  - RenamePollRequest / RenameOptionRequest: title / name
  - AddOptionRequest: name
  - CastVoteRequest: option_id, voter_name (anon mode only)
  - GenerateNamesRequest: title, count

# Response Types

Types for JSON responses:

  - SignupResponse: user_id, user_token
  - CreatePollResponse: poll_id, options
  - CastVoteResponse: vote_id, duplicate, message
  - CheckoutResponse: url
  - GenerateNamesResponse: names, usage
  - ErrorResponse: error, message, requires_upgrade

# Domain Types

Internal data structures mapped 1:1 to tables:

  - Profile: user record with optional payment customer mapping
  - Poll: poll metadata (title, owner, timestamps)
  - Option: voting option with its own creator
  - Vote: one (poll, option, user) fact record
  - Subscription: payment-processor subscription state
  - OptionTally: derived per-option vote count

# Constants

Subscription statuses:

	SubStatusNotStarted = "not_started"
	SubStatusActive     = "active"
	SubStatusPastDue    = "past_due"
	SubStatusCanceled   = "canceled"

Webhook event types:

	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentFailed       = "invoice.payment_failed"
*/
package models
