package db

import (
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned by queries and guarded updates that match no
// document.
var ErrNotFound = errors.New("document not found")

// ResultsNotFound reports whether the error indicates a missing
// document rather than a database failure.
func ResultsNotFound(err error) bool {
	if err == nil {
		return false
	}
	cause := errors.Cause(err)
	return cause == ErrNotFound || cause == mongo.ErrNoDocuments
}

func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(errors.Cause(err)) {
		return true
	}

	return strings.Contains(errors.Cause(err).Error(), "duplicate key")
}
