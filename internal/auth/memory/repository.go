// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package memory provides an in-process auth.AccountRepository for
// development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lireddit/lireddit/internal/auth"
)

// AccountRepository keeps accounts in maps guarded by a mutex.
// Username uniqueness is checked and claimed under the same lock.
type AccountRepository struct {
	mu         sync.RWMutex
	byID       map[ulid.ULID]auth.Account
	byUsername map[string]ulid.ULID
}

// NewAccountRepository creates an empty AccountRepository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:       make(map[ulid.ULID]auth.Account),
		byUsername: make(map[string]ulid.ULID),
	}
}

// Create stores a new account.
func (r *AccountRepository) Create(_ context.Context, account *auth.Account) error {
	if account == nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").Errorf("account is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[account.Username]; taken {
		return oops.Code("ACCOUNT_USERNAME_TAKEN").
			With("username", account.Username).
			Wrap(auth.ErrUsernameTaken)
	}
	if _, exists := r.byID[account.ID]; exists {
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("id", account.ID.String()).
			Errorf("account id already exists")
	}

	r.byID[account.ID] = *account
	r.byUsername[account.Username] = account.ID
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return &acc, nil
}

// GetByUsername retrieves an account by exact username.
func (r *AccountRepository) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	acc := r.byID[id]
	return &acc, nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.byID[id]
	if !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	delete(r.byID, id)
	delete(r.byUsername, acc.Username)
	return nil
}

// Len returns the number of stored accounts.
func (r *AccountRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
