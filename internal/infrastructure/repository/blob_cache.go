package repository

import (
	"context"
	"fmt"

	domainRepo "github.com/sangkips/posync/internal/domain/repository"
)

// BlobCache keeps small binary assets (logos, product images) on the device.
// Blobs live under the local prefix and are wiped with the rest of the
// business data.
type BlobCache struct {
	store domainRepo.KVStore
}

// NewBlobCache creates a blob cache on top of the device store
func NewBlobCache(store domainRepo.KVStore) *BlobCache {
	return &BlobCache{store: store}
}

// Get returns the blob and whether it was found
func (c *BlobCache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	v, err := c.store.Get(ctx, BlobPrefix+name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	return v, v != nil, nil
}

func (c *BlobCache) Put(ctx context.Context, name string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	if err := c.store.Put(ctx, BlobPrefix+name, data); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return nil
}

func (c *BlobCache) Delete(ctx context.Context, name string) error {
	return c.store.Delete(ctx, BlobPrefix+name)
}

// Clear removes every cached blob
func (c *BlobCache) Clear(ctx context.Context) error {
	_, err := c.store.DeletePrefix(ctx, BlobPrefix)
	return err
}
