// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package response holds API response bodies and writers.
package response

import (
	"time"

	"github.com/lireddit/lireddit/internal/auth"
)

// User is the public view of an account. The password hash is never included.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserFromAccount converts an account, returning nil for nil.
func UserFromAccount(a *auth.Account) *User {
	if a == nil {
		return nil
	}
	return &User{
		ID:        a.ID.String(),
		Username:  a.Username,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// UserResponse carries the user or null.
type UserResponse struct {
	User *User `json:"user"`
}

// FieldErrorsResponse carries user-correctable input errors.
type FieldErrorsResponse struct {
	Errors []auth.FieldError `json:"errors"`
}
