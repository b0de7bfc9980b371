// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/lib/pq"

	"github.com/namepoll/namepoll/auth"
	"github.com/namepoll/namepoll/models"
	"github.com/namepoll/namepoll/testutil"
)

func TestSignup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewProfileHandler(db, cfg)

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
	}{
		{
			name:           "valid signup",
			requestBody:    models.SignupRequest{Name: "Alice"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "blank name",
			requestBody:    models.SignupRequest{Name: "   "},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/signup", tt.requestBody, nil)
			w := httptest.NewRecorder()

			handler.Signup(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.SignupResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.UserID == "" || resp.UserToken == "" {
					t.Fatal("Expected non-empty user_id and user_token")
				}

				// Token round-trips through the verifier
				parsed, err := auth.ParseUserToken(resp.UserToken, cfg.UserTokenSalt)
				if err != nil {
					t.Fatalf("Token failed verification: %v", err)
				}
				if parsed != resp.UserID {
					t.Errorf("Token user mismatch: %s != %s", parsed, resp.UserID)
				}
			}
		})
	}
}

func TestGetMe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewProfileHandler(db, cfg)

	userID, token := testutil.CreateTestUser(t, db, cfg, "Alice")

	t.Run("fresh account", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/me", nil, map[string]string{"X-User-Token": token})
		w := httptest.NewRecorder()

		handler.GetMe(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.MeResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Profile.ID != userID || resp.Profile.Name != "Alice" {
			t.Errorf("Unexpected profile: %+v", resp.Profile)
		}
		if resp.Usage.IsPremium {
			t.Error("Fresh account should not be premium")
		}
		if resp.Usage.GenerationsRemaining != cfg.FreeGenerationLimit {
			t.Errorf("Expected %d generations remaining, got %d", cfg.FreeGenerationLimit, resp.Usage.GenerationsRemaining)
		}
		if resp.Subscription.Status != models.SubStatusNotStarted {
			t.Errorf("Expected not_started subscription, got %s", resp.Subscription.Status)
		}
	})

	t.Run("premium account", func(t *testing.T) {
		testutil.ActivateTestSubscription(t, db, userID)

		req := testutil.MakeRequest("GET", "/me", nil, map[string]string{"X-User-Token": token})
		w := httptest.NewRecorder()

		handler.GetMe(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.MeResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Usage.IsPremium {
			t.Error("Expected premium usage summary")
		}
		if resp.Subscription.Status != models.SubStatusActive {
			t.Errorf("Expected active subscription, got %s", resp.Subscription.Status)
		}
	})

	t.Run("no token", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/me", nil, nil)
		w := httptest.NewRecorder()

		handler.GetMe(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("forged token", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/me", nil, map[string]string{
			"X-User-Token": auth.GenerateUserToken(userID, "wrong-salt"),
		})
		w := httptest.NewRecorder()

		handler.GetMe(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}
