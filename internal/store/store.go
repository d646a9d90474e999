package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable is returned when the backend cannot be read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrMalformedData is returned when a stored value does not parse as the expected shape.
	ErrMalformedData = errors.New("malformed data")
)

// UpdateFunc receives the current value of a key (ok is false when the key is
// absent) and returns the value to store in its place.
type UpdateFunc func(old string, ok bool) (string, error)

// KVStore defines the key-value persistence used by the room directory.
// MemoryStore, SQLiteStore, PostgresStore and RedisStore implement this interface.
type KVStore interface {
	// Connection management
	Close() error
	Ping(ctx context.Context) error

	// Key operations
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// Update applies fn to the current value of key atomically with respect to
	// other writers of the same backend. An error returned by fn aborts the
	// update and is passed through unchanged.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// unavailable wraps a backend error in ErrStorageUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

var errStoreClosed = errors.New("store closed")
