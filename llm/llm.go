// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("llm service not configured")

// Client calls an OpenAI-compatible chat completions API. Only the
// non-streaming path is needed: name generation is a single short
// round trip.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates an LLM client. apiKey may be empty, in which case
// every call fails with ErrNotConfigured.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "You are a creative naming assistant. You always respond with a valid JSON array of name suggestions."

// GenerateNames asks the model for count name suggestions relevant to
// the given context and parses the JSON-array reply.
func (c *Client) GenerateNames(ctx context.Context, currentTitle string, count int) ([]string, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	prompt := fmt.Sprintf(`You are helping people come up with creative names. Generate %d creative and unique name suggestions for the following context:

%q

Requirements:
- Names should be relevant to the context
- Keep names concise (1-4 words)
- Make them creative and memorable
- Vary the style (some professional, some fun, some descriptive)
- Return ONLY a JSON array of strings, nothing else

Example format: ["Name 1", "Name 2", "Name 3"]`, count, currentTitle)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.9,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal llm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build llm request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("llm returned %d: %s", resp.StatusCode, errBody)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, errors.New("llm returned no choices")
	}

	return parseNames(chat.Choices[0].Message.Content)
}

// parseNames extracts the JSON string array from the model's reply.
// Models occasionally wrap the array in a code fence; strip it before
// unmarshaling.
func parseNames(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	var names []string
	if err := json.Unmarshal([]byte(content), &names); err != nil {
		return nil, fmt.Errorf("llm reply is not a JSON array: %w", err)
	}

	out := names[:0]
	for _, n := range names {
		if trimmed := strings.TrimSpace(n); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("llm reply contained no names")
	}
	return out, nil
}
