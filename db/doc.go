// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db provides database schema creation.

# Schema

Seven tables, owned top-down with cascade deletes:

  - profile: user records (id issued by the identity provider)
  - poll: title + owner
  - option: belongs to one poll, has its own creator
  - vote: one row per (poll, option, user); unique index enforced
  - generation_usage: per-user metered-action counter
  - subscription: payment-processor subscription state
  - webhook_event: processed-event ledger for idempotent replay

# Invariants enforced at the storage layer

  - vote(poll_id, option_id, user_id) is unique; a racing duplicate
    insert becomes a conflict, never a second row
  - subscription.subscription_id is unique (webhook upsert key)
  - webhook_event.id is the idempotency key for event delivery
  - deleting a poll cascades to its options and votes
  - deleting an option cascades to its votes

Tally counts are intentionally absent from the schema: they are derived
by counting vote rows on every read.

# Usage

	if err := db.CreateSchema(conn); err != nil {
		// handle
	}

CreateSchema uses IF NOT EXISTS and is safe to run at every startup.
*/
package db
