// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/lib/pq"

	"github.com/namepoll/namepoll/models"
	"github.com/namepoll/namepoll/testutil"
)

// fakeLLMServer serves a fixed set of suggestions in the
// chat-completions wire format.
func fakeLLMServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"[\"Nova\",\"Zephyr\",\"Quasar\"]"}}]}`))
	}))
}

func TestGenerateNames(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	llmServer := fakeLLMServer(t)
	defer llmServer.Close()

	cfg := testutil.GetTestConfig()
	cfg.LLMBaseURL = llmServer.URL
	cfg.LLMAPIKey = "test-key"
	cfg.LLMModel = "test-model"
	handler := NewGenerateHandler(db, cfg)

	_, token := testutil.CreateTestUser(t, db, cfg, "Alice")
	headers := map[string]string{"X-User-Token": token}

	generate := func() *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/generate-names",
			models.GenerateNamesRequest{Title: "Team Name", Count: 3}, headers)
		w := httptest.NewRecorder()
		handler.GenerateNames(w, req)
		return w
	}

	// First call on the free tier
	w := generate()
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.GenerateNamesResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Names) != 3 {
		t.Fatalf("Expected 3 names, got %v", resp.Names)
	}
	if resp.Usage.GenerationsUsed != 1 {
		t.Errorf("Expected 1 generation used, got %d", resp.Usage.GenerationsUsed)
	}
	if resp.Usage.GenerationsRemaining != cfg.FreeGenerationLimit-1 {
		t.Errorf("Expected %d remaining, got %d", cfg.FreeGenerationLimit-1, resp.Usage.GenerationsRemaining)
	}

	// Second call exhausts the free limit
	w = generate()
	testutil.AssertStatus(t, w, http.StatusOK)

	// Third call is rejected with the upgrade signal
	w = generate()
	testutil.AssertStatus(t, w, http.StatusForbidden)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if !errResp.RequiresUpgrade {
		t.Error("Expected requires_upgrade to be true")
	}
}

func TestGenerateNamesPremiumBypassesLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	llmServer := fakeLLMServer(t)
	defer llmServer.Close()

	cfg := testutil.GetTestConfig()
	cfg.LLMBaseURL = llmServer.URL
	cfg.LLMAPIKey = "test-key"
	cfg.LLMModel = "test-model"
	handler := NewGenerateHandler(db, cfg)

	userID, token := testutil.CreateTestUser(t, db, cfg, "Alice")
	testutil.ActivateTestSubscription(t, db, userID)
	headers := map[string]string{"X-User-Token": token}

	// Well past the free limit
	for i := 0; i < cfg.FreeGenerationLimit+2; i++ {
		req := testutil.MakeRequest("POST", "/generate-names",
			models.GenerateNamesRequest{Title: "Team Name"}, headers)
		w := httptest.NewRecorder()
		handler.GenerateNames(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.GenerateNamesResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Usage.IsPremium {
			t.Error("Expected premium usage summary")
		}
		if resp.Usage.GenerationsRemaining != -1 {
			t.Errorf("Expected unmetered remaining, got %d", resp.Usage.GenerationsRemaining)
		}
	}
}

func TestGenerateNamesProviderFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer llmServer.Close()

	cfg := testutil.GetTestConfig()
	cfg.LLMBaseURL = llmServer.URL
	cfg.LLMAPIKey = "test-key"
	cfg.LLMModel = "test-model"
	handler := NewGenerateHandler(db, cfg)

	userID, token := testutil.CreateTestUser(t, db, cfg, "Alice")
	headers := map[string]string{"X-User-Token": token}

	req := testutil.MakeRequest("POST", "/generate-names",
		models.GenerateNamesRequest{Title: "Team Name"}, headers)
	w := httptest.NewRecorder()
	handler.GenerateNames(w, req)
	testutil.AssertStatus(t, w, http.StatusBadGateway)

	// A failed call never consumes quota
	var count int
	err := db.QueryRow("SELECT COALESCE((SELECT generation_count FROM generation_usage WHERE user_id = $1), 0)", userID).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query usage: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no quota consumed, got %d", count)
	}
}

func TestGenerateNamesUnconfigured(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewGenerateHandler(db, cfg)

	_, token := testutil.CreateTestUser(t, db, cfg, "Alice")
	req := testutil.MakeRequest("POST", "/generate-names",
		models.GenerateNamesRequest{Title: "Team Name"}, map[string]string{"X-User-Token": token})
	w := httptest.NewRecorder()
	handler.GenerateNames(w, req)
	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
}
