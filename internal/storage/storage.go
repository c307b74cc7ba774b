// Package storage holds the durable key-value slots behind the local cart
// and the persisted session identity. Values are opaque bytes; callers own
// the encoding.
package storage

import "context"

// Store is implemented by every backend. Get returns domain.ErrNotFound for
// a missing key; Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
