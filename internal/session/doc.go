// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package session implements opaque-token cookie sessions.
//
// The client holds a random token in a cookie. The server stores a Record
// under the SHA-256 hash of that token, so a leaked store never yields a
// usable cookie. A request's *Session implements auth.SessionBinding: it
// loads the record lazily, mints a token on the first BindAccount and
// removes the record on Destroy.
package session
