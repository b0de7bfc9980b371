// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id1, err := GenerateID(16)
	if err != nil {
		t.Fatalf("GenerateID failed: %v", err)
	}
	if len(id1) != 32 {
		t.Errorf("Expected 32 hex chars, got %d", len(id1))
	}

	id2, err := GenerateID(16)
	if err != nil {
		t.Fatalf("GenerateID failed: %v", err)
	}
	if id1 == id2 {
		t.Error("Expected unique IDs")
	}
}

func TestUserTokenRoundTrip(t *testing.T) {
	token := GenerateUserToken("user_1", "test-salt")
	if !strings.HasPrefix(token, "user_1.") {
		t.Errorf("Expected token to start with the user ID, got %s", token)
	}

	userID, err := ParseUserToken(token, "test-salt")
	if err != nil {
		t.Fatalf("ParseUserToken failed: %v", err)
	}
	if userID != "user_1" {
		t.Errorf("Expected user_1, got %s", userID)
	}
}

func TestParseUserTokenRejectsForgeries(t *testing.T) {
	token := GenerateUserToken("user_1", "test-salt")

	tests := []struct {
		name  string
		token string
		salt  string
	}{
		{"wrong salt", token, "other-salt"},
		{"tampered user", "user_2." + strings.SplitN(token, ".", 2)[1], "test-salt"},
		{"no separator", "user_1", "test-salt"},
		{"empty token", "", "test-salt"},
		{"garbage signature", "user_1.not-a-real-signature", "test-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUserToken(tt.token, tt.salt)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestUserTokenSurvivesDotsInID(t *testing.T) {
	// UUIDs never contain dots, but the parser must still pick the
	// last separator if an ID ever does.
	token := GenerateUserToken("user.with.dots", "test-salt")
	userID, err := ParseUserToken(token, "test-salt")
	if err != nil {
		t.Fatalf("ParseUserToken failed: %v", err)
	}
	if userID != "user.with.dots" {
		t.Errorf("Expected 'user.with.dots', got %s", userID)
	}
}
