// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samber/oops"
)

// ErrNotFound is returned by a Store when no live record exists for a key.
var ErrNotFound = errors.New("session not found")

// Record is the server-side state of a session.
type Record struct {
	AccountID string    `json:"account_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists session records by key.
type Store interface {
	// Get returns the record for key, or an error matching ErrNotFound.
	Get(ctx context.Context, key string) (*Record, error)

	// Put writes rec under key; it disappears after ttl.
	Put(ctx context.Context, key string, rec *Record, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Expired entries are dropped on read.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the live record for key.
func (s *MemoryStore) Get(_ context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
	}
	rec := e.rec
	return &rec, nil
}

// Put stores a copy of rec.
func (s *MemoryStore) Put(_ context.Context, key string, rec *Record, ttl time.Duration) error {
	if rec == nil {
		return oops.Code("SESSION_SAVE_FAILED").Errorf("record is nil")
	}
	if ttl <= 0 {
		return oops.Code("SESSION_SAVE_FAILED").With("ttl", ttl.String()).Errorf("ttl must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{rec: *rec, expiresAt: s.now().Add(ttl)}
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
