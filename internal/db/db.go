// Package db defines the contracts of the shared embedding cache backend.
package db

import (
	"context"
	"time"
)

// Store is the cache backend as main wires it: the blob operations plus
// lifecycle. Consumers depend on the narrow interfaces below.
type Store interface {
	Pinger
	BlobStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BlobStore keeps opaque values under string keys. Get returns
// ErrKeyNotFound for a missing key; a ttl under one second means no expiry.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
