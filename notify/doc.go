// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package notify broadcasts poll change events to connected viewers.
//
// Handlers publish a Change after every committed mutation; the SSE
// endpoint subscribes per poll and forwards events to the browser.
// Delivery is at-most-once and fire-and-forget. Ordering against a
// concurrent manual refresh is not guaranteed, and clients re-fetch
// the poll rather than patching state from the event payload.
//
// The production implementation rides on Redis pub/sub; NopNotifier
// drops everything for deployments without Redis.
package notify
