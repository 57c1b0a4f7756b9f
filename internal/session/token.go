// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/samber/oops"
)

// TokenBytes is the entropy of a session token; hex encoding doubles the length.
const TokenBytes = 32

// GenerateToken creates a random token and the store key derived from it.
// The token goes to the client; only the key is stored.
func GenerateToken() (token, key string, err error) {
	buf := make([]byte, TokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	token = hex.EncodeToString(buf)
	return token, KeyForToken(token), nil
}

// KeyForToken returns the hex SHA-256 of token, used as the store key.
func KeyForToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// validToken reports whether token has the shape GenerateToken produces.
// Anything else is ignored without a store lookup.
func validToken(token string) bool {
	if len(token) != hex.EncodedLen(TokenBytes) {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
