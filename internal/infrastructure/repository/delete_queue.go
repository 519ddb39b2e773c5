package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/enum"
	domainRepo "github.com/sangkips/posync/internal/domain/repository"
)

// KeyPendingDeletes holds the delete queue. It is outside the local prefix
// so that it survives logout.
const KeyPendingDeletes = "queue:pending_deletes"

type deleteQueue struct {
	mu    sync.Mutex
	store domainRepo.KVStore
}

// NewDeleteQueue creates a delete queue persisted in the device store
func NewDeleteQueue(store domainRepo.KVStore) domainRepo.DeleteQueue {
	return &deleteQueue{store: store}
}

func (q *deleteQueue) Enqueue(ctx context.Context, pending entity.PendingDelete) error {
	if pending.ID == "" || !pending.Table.IsValid() {
		return fmt.Errorf("invalid pending delete %q on %q", pending.ID, pending.Table)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return updateCollection(ctx, q.store, KeyPendingDeletes, func(rows []entity.PendingDelete) ([]entity.PendingDelete, error) {
		for _, r := range rows {
			if r.ID == pending.ID && r.Table == pending.Table {
				return rows, nil
			}
		}
		return append(rows, pending), nil
	})
}

func (q *deleteQueue) List(ctx context.Context) ([]entity.PendingDelete, error) {
	rows, err := loadCollection[entity.PendingDelete](ctx, q.store, KeyPendingDeletes)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []entity.PendingDelete{}
	}
	return rows, nil
}

func (q *deleteQueue) Remove(ctx context.Context, id string, table enum.SyncTable) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return updateCollection(ctx, q.store, KeyPendingDeletes, func(rows []entity.PendingDelete) ([]entity.PendingDelete, error) {
		out := rows[:0]
		for _, r := range rows {
			if r.ID == id && r.Table == table {
				continue
			}
			out = append(out, r)
		}
		return out, nil
	})
}
