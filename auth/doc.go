// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides ID generation and user token signing.

User tokens are HMAC-signed bearer tokens ("<user_id>.<signature>")
acting as a thin stand-in for an external identity provider's sessions.
They are deterministic per (user, salt) and verified in constant time.

	token := auth.GenerateUserToken(userID, salt)
	userID, err := auth.ParseUserToken(token, salt)

IDs are random hex strings:

	id, err := auth.GenerateID(16) // 32 hex chars
*/
package auth
