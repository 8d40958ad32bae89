// Package storage provides the durable token store for LinkHub.
//
// This file defines the KV interface every backend implements and the
// configuration used to pick one.
package storage

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv store closed")
)

// KV is a durable key-value store holding small string values.
//
// The session core uses a single key for the bearer token. Implementations
// must be safe for concurrent use and must make Set/Remove visible to the
// next process that opens the same store.
type KV interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverBadger = "badger"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config selects and configures a KV backend.
type Config struct {
	// Driver is one of "badger" (default), "redis" or "memory".
	Driver string

	// Dir is the badger data directory.
	Dir string

	// RedisURL is the redis connection URL (redis://host:port/db).
	RedisURL string

	// RedisPrefix namespaces keys in a shared redis.
	// Default: "linkhub:"
	RedisPrefix string

	// SealKey, when set, encrypts values at rest (32 bytes).
	SealKey []byte
}
