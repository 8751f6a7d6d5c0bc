// Package storage provides durable key/value storage scoped by origin.
//
// An origin plays the role a browser origin plays for localStorage: every
// Storage value is bound to one origin and never sees another origin's keys.
// Values are opaque bytes; callers own the encoding.
//
// Backends:
//
//   - SQLite: a local database file, schema applied by goose (see OpenSQLite).
//   - Redis:  one hash per origin, for instances that share a Redis server.
//   - Memory: process-local, used in tests and by the "memory" driver.
//
// Writes are last-writer-wins per key; there is no versioning.
package storage

import (
	"context"
	"errors"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Storage is durable per-origin key/value storage.
//
// Get returns (nil, nil) when the key is absent. Delete of an absent key is
// not an error. SetMany and Delete with several keys apply atomically.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
	Origin() string
}
