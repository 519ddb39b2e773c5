package repository

import (
	"context"

	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/enum"
)

// DeleteQueue persists delete intents the server has not acknowledged yet
type DeleteQueue interface {
	// Enqueue adds an entry; an entry with the same id and table is a no-op
	Enqueue(ctx context.Context, pending entity.PendingDelete) error
	List(ctx context.Context) ([]entity.PendingDelete, error)
	Remove(ctx context.Context, id string, table enum.SyncTable) error
}
