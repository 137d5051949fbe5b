package db

import (
	"context"

	"github.com/compose-ci/compose"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

// Insert inserts the specified item into the specified collection.
func Insert(ctx context.Context, collection string, item any) error {
	_, err := compose.GetEnvironment().DB().Collection(collection).InsertOne(ctx,
		item,
	)
	return errors.Wrapf(errors.WithStack(err), "inserting document")
}

// FindOne runs the query against the given collection, decoding the
// single matching document into "out". Returns ErrNotFound when no
// document matches.
func FindOne(ctx context.Context, collection string, query any, out any) error {
	res := compose.GetEnvironment().DB().Collection(collection).FindOne(ctx,
		query,
	)
	if err := res.Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return errors.Wrapf(err, "finding document")
	}

	return errors.Wrap(res.Decode(out), "decoding document")
}

// UpdateOne updates one matching document in the collection. Returns
// ErrNotFound when no document matches the query, which callers using
// conditional (guarded) updates rely on to detect a lost race.
func UpdateOne(ctx context.Context, collection string, query any, update any) error {
	res, err := compose.GetEnvironment().DB().Collection(collection).UpdateOne(ctx,
		query,
		update,
	)
	if err != nil {
		return errors.Wrapf(err, "updating document")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// Remove removes one item matching the query from the specified collection.
func Remove(ctx context.Context, collection string, query any) error {
	_, err := compose.GetEnvironment().DB().Collection(collection).DeleteOne(ctx,
		query,
	)
	return errors.Wrapf(errors.WithStack(err), "deleting document")
}

// Count runs a count command with the specified query against the collection.
func Count(ctx context.Context, collection string, query any) (int, error) {
	res, err := compose.GetEnvironment().DB().Collection(collection).CountDocuments(ctx,
		query,
	)
	return int(res), errors.WithStack(err)
}
