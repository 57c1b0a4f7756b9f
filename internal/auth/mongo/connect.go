// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package mongo

import (
	"context"

	"github.com/samber/oops"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lireddit/lireddit/internal/store"
)

// Connect opens a client for uri and waits until the primary answers a ping.
// The caller owns the client and must Disconnect it.
func Connect(ctx context.Context, uri string, cfg store.RetryConfig) (*driver.Client, error) {
	client, err := driver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, oops.Code("MONGO_CONNECT_FAILED").With("operation", "create client").Wrap(err)
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	if err := store.WaitFor(ctx, "mongodb", cfg, ping); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return client, nil
}

// Open connects to uri and returns an AccountRepository on database with its
// indexes in place, plus the client for shutdown.
func Open(ctx context.Context, uri, database string, cfg store.RetryConfig) (*AccountRepository, *driver.Client, error) {
	client, err := Connect(ctx, uri, cfg)
	if err != nil {
		return nil, nil, err
	}
	repo := NewAccountRepository(client.Database(database).Collection(CollectionName))
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, err
	}
	return repo, client, nil
}
