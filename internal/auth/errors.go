// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned by repositories when a username is already in use.
var ErrUsernameTaken = errors.New("username already taken")
