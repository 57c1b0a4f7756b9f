// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package mongo implements auth.AccountRepository on MongoDB.
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lireddit/lireddit/internal/auth"
)

// Collection and index names.
const (
	CollectionName = "accounts"
	UsernameIndex  = "accounts_username_key"
)

type accountDocument struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// AccountRepository implements auth.AccountRepository using a MongoDB collection.
type AccountRepository struct {
	coll *driver.Collection
}

// NewAccountRepository creates an AccountRepository over coll.
// Call EnsureIndexes once before serving traffic.
func NewAccountRepository(coll *driver.Collection) *AccountRepository {
	return &AccountRepository{coll: coll}
}

// EnsureIndexes creates the unique username index. It is idempotent.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, driver.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(UsernameIndex),
	})
	if err != nil {
		return oops.Code("ACCOUNT_INDEX_FAILED").
			With("index", UsernameIndex).
			Wrap(err)
	}
	return nil
}

// Create stores a new account. The unique index on username decides
// concurrent registrations of the same name.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.coll.InsertOne(ctx, accountDocument{
		ID:           account.ID.String(),
		Username:     account.Username,
		PasswordHash: account.PasswordHash,
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	})
	if err != nil {
		if driver.IsDuplicateKeyError(err) {
			return oops.Code("ACCOUNT_USERNAME_TAKEN").
				With("username", account.Username).
				Wrap(auth.ErrUsernameTaken)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", account.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	return r.findOne(ctx, "_id", id.String())
}

// GetByUsername retrieves an account by exact username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	return r.findOne(ctx, "username", username)
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "delete account").
			With("id", id.String()).
			Wrap(err)
	}
	if res.DeletedCount == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, key, value string) (*auth.Account, error) {
	var doc accountDocument
	err := r.coll.FindOne(ctx, bson.M{key: value}).Decode(&doc)
	if errors.Is(err, driver.ErrNoDocuments) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With(key, value).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_FIND_FAILED").
			With("operation", "find account").
			With(key, value).
			Wrap(err)
	}

	id, err := ulid.Parse(doc.ID)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", doc.ID).
			Wrap(err)
	}

	return &auth.Account{
		ID:           id,
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
