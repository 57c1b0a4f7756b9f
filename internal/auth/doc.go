// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package auth provides credential authentication for lireddit accounts.
//
// # Domain Types
//
// Accounts should be created with NewAccount, which assigns a fresh ID and
// timestamps. The password must be hashed before it reaches the account.
//
// # Service
//
// Service exposes the three account operations used by the API layer:
//   - Register - validates credentials, stores a new account and binds it to the session
//   - Login - verifies credentials and binds the account to the session
//   - CurrentUser - resolves the account bound to the session, if any
//
// Validation and business failures (short username, taken username, wrong
// password) are returned as FieldError values inside a Result. Only
// infrastructure faults are returned as Go errors.
package auth
