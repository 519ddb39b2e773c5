package repository

import "context"

// KVStore is a durable device-wide key-value store
type KVStore interface {
	// Get returns nil and no error when the key is absent
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// Update runs fn against the current value of key and stores its result
	// in one atomic step. Returning nil from fn deletes the key.
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
	Close() error
}
