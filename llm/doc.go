// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package llm is a minimal client for an OpenAI-compatible chat
// completions API, used for poll name suggestions. It sends one
// non-streaming request and expects the model to reply with a JSON
// array of strings.
package llm
