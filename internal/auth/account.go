// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package auth

import (
	"context"
	"time"
	"unicode/utf16"

	"github.com/oklog/ulid/v2"
)

// Credential length constraints, counted in UTF-16 code units so a
// character outside the Basic Multilingual Plane counts as two.
const (
	MinUsernameLength = 3
	MinPasswordLength = 4
)

// Field names reported in FieldError.
const (
	FieldUsername = "username"
	FieldPassword = "password"
)

// Field error messages.
const (
	MsgUsernameTooShort = "length must be greater than 2"
	MsgPasswordTooShort = "length must be greater than 3"
	MsgUsernameTaken    = "username already taken"
	MsgUnknownUsername  = "that username doesn't exist"
	MsgIncorrectPass    = "incorrect password"
)

// Account is a registered user.
type Account struct {
	ID           ulid.ULID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates an account with a fresh ID. The password must already be hashed.
func NewAccount(username, passwordHash string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Credentials are the username and plaintext password submitted by a client.
type Credentials struct {
	Username string
	Password string
}

// FieldError describes a user-correctable problem with one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of Register or Login: either an account or field errors.
type Result struct {
	Account *Account
	Errors  []FieldError
}

// OK reports whether the operation produced an account.
func (r *Result) OK() bool {
	return r != nil && r.Account != nil
}

func succeeded(acc *Account) *Result {
	return &Result{Account: acc}
}

func failed(fe FieldError) *Result {
	return &Result{Errors: []FieldError{fe}}
}

// ValidateCredentials checks registration input. It returns the first
// failing field, username before password, or nil if both are acceptable.
func ValidateCredentials(creds Credentials) *FieldError {
	if textLength(creds.Username) < MinUsernameLength {
		return &FieldError{Field: FieldUsername, Message: MsgUsernameTooShort}
	}
	if textLength(creds.Password) < MinPasswordLength {
		return &FieldError{Field: FieldPassword, Message: MsgPasswordTooShort}
	}
	return nil
}

// textLength returns the length of s in UTF-16 code units. Invalid UTF-8
// bytes count as one unit each.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account.
	// Returns an error matching ErrUsernameTaken if the username is in use.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	// Returns an error matching ErrNotFound if no account has the ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByUsername retrieves an account by exact username.
	// Returns an error matching ErrNotFound if no account has the username.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// Delete removes an account.
	Delete(ctx context.Context, id ulid.ULID) error
}

// SessionBinding is the request-scoped view of the caller's session.
type SessionBinding interface {
	// AccountID returns the bound account, if any.
	AccountID(ctx context.Context) (ulid.ULID, bool, error)

	// BindAccount records the account as the session's identity.
	BindAccount(ctx context.Context, id ulid.ULID) error
}
