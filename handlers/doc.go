// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package handlers implements the HTTP endpoints.
//
// Each handler struct owns a database handle and the server config;
// mutating handlers also carry the change notifier. Handlers write
// their own JSON error responses via the middleware helpers and return
// nothing.
package handlers
