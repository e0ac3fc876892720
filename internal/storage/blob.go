// Package storage persists the movement ledger as a single serialized blob
// under one fixed key. Blob backends only know about keys and bytes; the
// Gateway owns the encoding.
package storage

import (
	"context"
	"errors"
)

// BlobStore is a minimal durable key-value store.
type BlobStore interface {
	// Get returns the value for key. ok is false when the key was never written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Put replaces the value for key as a single write.
	Put(ctx context.Context, key string, value []byte) error
}

var ErrEmptyKey = errors.New("empty storage key")

// Ensure interface conformance
var (
	_ BlobStore = (*MemoryStore)(nil)
	_ BlobStore = (*FileStore)(nil)
	_ BlobStore = (*SQLiteStore)(nil)
	_ BlobStore = (*PostgresStore)(nil)
)
