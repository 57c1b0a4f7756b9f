// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package store owns PostgreSQL connectivity: pool construction with a
// startup retry and the embedded schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// RetryConfig bounds how long startup waits for a dependency to answer.
type RetryConfig struct {
	Attempts    uint64
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryConfig waits roughly half a minute before giving up.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:    8,
		BaseBackoff: 250 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
	}
}

func (c RetryConfig) backoff() retry.Backoff {
	base := c.BaseBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	b := retry.NewExponential(base)
	if c.MaxBackoff > 0 {
		b = retry.WithCappedDuration(c.MaxBackoff, b)
	}
	return retry.WithMaxRetries(c.Attempts, b)
}

// WaitFor calls probe until it succeeds, the retries run out, or ctx ends.
// It is meant for startup only; request paths never retry.
func WaitFor(ctx context.Context, name string, cfg RetryConfig, probe func(context.Context) error) error {
	attempt := 0
	err := retry.Do(ctx, cfg.backoff(), func(ctx context.Context) error {
		attempt++
		if err := probe(ctx); err != nil {
			slog.DebugContext(ctx, "dependency not ready", "dependency", name, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DEPENDENCY_UNAVAILABLE").
			With("dependency", name).
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}

// Connect creates a pgx pool for databaseURL and waits until it answers a ping.
// The caller owns the pool and must Close it.
func Connect(ctx context.Context, databaseURL string, cfg RetryConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := WaitFor(ctx, "postgres", cfg, pool.Ping); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
