// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package redis stores session records in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/lireddit/lireddit/internal/session"
	"github.com/lireddit/lireddit/internal/store"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "lireddit:sess"

// Config holds Redis connection settings.
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0).
	URL string

	// KeyPrefix is prepended to every session key.
	KeyPrefix string

	PoolSize     int
	MinIdleConns int
}

// DefaultConfig returns the local default configuration.
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379/0",
		KeyPrefix:    DefaultKeyPrefix,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// Store is a session.Store on Redis. Records are JSON values with a TTL.
type Store struct {
	client *redis.Client
	prefix string
}

var _ session.Store = (*Store)(nil)

// New connects to cfg.URL and waits for the server to answer PING.
func New(ctx context.Context, cfg Config, retryCfg store.RetryConfig) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, oops.Code("SESSION_CONFIG_INVALID").With("operation", "parse redis url").Wrap(err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}

	client := redis.NewClient(opts)
	err = store.WaitFor(ctx, "redis", retryCfg, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close() //nolint:errcheck // connect error takes precedence
		return nil, err
	}
	return NewWithClient(client, cfg.KeyPrefix), nil
}

// NewWithClient wraps an existing client. An empty prefix uses DefaultKeyPrefix.
func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(k string) string {
	return fmt.Sprintf("%s:%s", s.prefix, k)
}

// Get returns the record stored under key.
func (s *Store) Get(ctx context.Context, key string) (*session.Record, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, oops.Code("SESSION_NOT_FOUND").Wrap(session.ErrNotFound)
		}
		return nil, oops.Code("SESSION_GET_FAILED").With("operation", "redis get").Wrap(err)
	}

	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, oops.Code("SESSION_DECODE_FAILED").Wrap(err)
	}
	return &rec, nil
}

// Put writes rec under key with the given ttl.
func (s *Store) Put(ctx context.Context, key string, rec *session.Record, ttl time.Duration) error {
	if rec == nil {
		return oops.Code("SESSION_SAVE_FAILED").Errorf("record is nil")
	}
	if ttl <= 0 {
		return oops.Code("SESSION_SAVE_FAILED").With("ttl", ttl.String()).Errorf("ttl must be positive")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("operation", "encode record").Wrap(err)
	}
	if err := s.client.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("operation", "redis set").Wrap(err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").With("operation", "redis del").Wrap(err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
