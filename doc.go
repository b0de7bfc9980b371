// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the namepoll API server.

Namepoll is a team polling service: anyone signed in can create polls,
add options, and cast up to a fixed number of votes per poll. Results
are always derived from the vote table. An AI assistant suggests
option names, metered for the free tier, and a subscription unlocks
unlimited polls and generations.

# Starting the Server

The server requires environment variables or CLI flags for
configuration. A .env file in the working directory is loaded first:

	DATABASE_URL=postgres://... USER_TOKEN_SALT=... go run main.go

Or with flags:

	go run main.go -p 3319 -d "postgres://..." -token-salt "..."

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string
  - USER_TOKEN_SALT (-token-salt): Secret for user token HMAC

Optional settings:

  - PORT (-p): Server port (default: 3319)
  - DATABASE_TYPE (-t): "postgres" or "sqlite" (default: postgres)
  - REDIS_ADDR (-redis): Redis address for live poll updates
  - PAYMENT_SECRET_KEY (-payment-key): Payment provider API key
  - PAYMENT_WEBHOOK_SECRET (-webhook-secret): Webhook signing secret
  - LLM_API_KEY (-llm-key): Model provider API key
  - VOTE_CAP (-vote-cap): Votes per user per poll (default: 3)
  - ALLOW_ANONYMOUS_VOTES (-allow-anon): Accept name-only votes

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (profiles, polls, options, votes,
    results, billing, generation)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers, token extraction
  - models: Request/response types
  - auth: Token generation and validation
  - db: Schema creation
  - cliparse: Configuration parsing
  - billing: Payment provider client, webhook verification, and the
    subscription state machine
  - llm: Chat-completions client for name suggestions
  - notify: Poll change broadcasting over Redis pub/sub

See package documentation for each component.
*/
package main
