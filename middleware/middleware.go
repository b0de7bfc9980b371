// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/namepoll/namepoll/auth"
	"github.com/namepoll/namepoll/models"
)

// WithLogging wraps a handler with request logging
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Log request
		slog.Info("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		)

		// Call the next handler
		next(w, r)

		// Log completion
		duration := time.Since(start)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// UpgradeRequiredResponse writes the distinct "upgrade required" signal
// used when a free-tier limit is hit, so clients can show the paywall
// instead of a generic error.
func UpgradeRequiredResponse(w http.ResponseWriter, message string) {
	JSONResponse(w, http.StatusForbidden, models.ErrorResponse{
		Error:           http.StatusText(http.StatusForbidden),
		Message:         message,
		RequiresUpgrade: true,
	})
}

// ParseJSONBody parses the request body into the given struct
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

// CORS middleware allows cross-origin requests from the frontend
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// UserID extracts and verifies the caller's user ID from the request.
// Accepts "Authorization: Bearer <token>" or the X-User-Token header.
// Returns "" when no token is present; returns auth.ErrInvalidToken for
// a malformed or forged token.
func UserID(r *http.Request, tokenSalt string) (string, error) {
	token := r.Header.Get("X-User-Token")
	if token == "" {
		if ah := r.Header.Get("Authorization"); strings.HasPrefix(ah, "Bearer ") {
			token = strings.TrimPrefix(ah, "Bearer ")
		}
	}
	if token == "" {
		return "", nil
	}
	return auth.ParseUserToken(token, tokenSalt)
}

// RequireUser is UserID plus the standard 401 response when the caller
// is not authenticated. Returns ok=false after writing the response.
func RequireUser(w http.ResponseWriter, r *http.Request, tokenSalt string) (string, bool) {
	userID, err := UserID(r, tokenSalt)
	if err != nil {
		ErrorResponse(w, http.StatusUnauthorized, "Invalid user token")
		return "", false
	}
	if userID == "" {
		ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return userID, true
}
