// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidToken = errors.New("invalid user token")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateUserToken creates a signed bearer token for a user ID.
// Format: "<userID>.<HMAC-SHA256(userID, salt)>". The token stands in
// for the external identity provider's session: anyone holding it acts
// as that user.
func GenerateUserToken(userID, salt string) string {
	return userID + "." + sign(userID, salt)
}

// ParseUserToken verifies a token and returns the user ID it carries.
func ParseUserToken(token, salt string) (string, error) {
	dot := strings.LastIndexByte(token, '.')
	if dot <= 0 || dot == len(token)-1 {
		return "", ErrInvalidToken
	}
	userID := token[:dot]
	if !hmac.Equal([]byte(token[dot+1:]), []byte(sign(userID, salt))) {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func sign(msg, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(msg))
	// URL-safe base64 and trim padding for cleaner tokens
	return strings.TrimRight(base64.URLEncoding.EncodeToString(h.Sum(nil)), "=")
}
