package repository

import (
	"context"
)

// Key value storage for persisted credential entries.
// String keys and string values, like browser local storage.
type TokenRepo interface {
	// Return values for requested keys that exist
	// Missing keys are not an error, they are just absent in the result
	Get(ctx context.Context, keys ...string) (map[string]string, error)

	// Overwrite all given entries at once
	// Either all entries are written or none
	Set(ctx context.Context, entries map[string]string) error
}
