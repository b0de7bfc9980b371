// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP helpers shared by all handlers.

  - WithLogging: request start/finish logging via slog
  - CORS: cross-origin headers and preflight handling
  - JSONResponse / ErrorResponse / UpgradeRequiredResponse: response writers
  - ParseJSONBody: request body decoding
  - UserID / RequireUser: bearer-token authentication

The error taxonomy maps to HTTP statuses as follows: validation
failures are 400, missing/forged tokens are 401, ownership failures are
403, free-tier limits are 403 with requires_upgrade set, uniqueness
conflicts are 409, and external service failures are 502.
*/
package middleware
