package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/enum"
	"github.com/sangkips/posync/internal/domain/repository"
	"github.com/sangkips/posync/internal/infrastructure/remote"
	infraRepo "github.com/sangkips/posync/internal/infrastructure/repository"
	"github.com/sangkips/posync/internal/metrics"
	"github.com/sangkips/posync/pkg/utils"
	"go.uber.org/zap"
)

// PushResult reports a push attempt
type PushResult struct {
	Skipped    bool           `json:"skipped"`
	Degraded   bool           `json:"degraded"`
	Noop       bool           `json:"noop"`
	Counts     map[string]int `json:"counts,omitempty"`
	ServerTime *time.Time     `json:"serverTime,omitempty"`
	Replayed   int            `json:"replayed"`
}

// PushChanges sends every eligible local record to the server. Only one
// push runs at a time; a push requested meanwhile is skipped, not queued.
// Local storage is never modified by a push.
func (e *SyncEngine) PushChanges(ctx context.Context) (*PushResult, error) {
	if !e.pushing.CompareAndSwap(false, true) {
		e.metrics.RecordPush(metrics.OutcomeSkipped, nil)
		return &PushResult{Skipped: true}, nil
	}
	defer e.pushing.Store(false)

	res, err := e.push(ctx)
	switch {
	case err != nil:
		e.metrics.RecordPush(metrics.OutcomeError, nil)
	case res.Degraded:
		e.metrics.RecordPush(metrics.OutcomeDegraded, nil)
	case res.Noop:
		e.metrics.RecordPush(metrics.OutcomeNoop, nil)
	default:
		e.metrics.RecordPush(metrics.OutcomeOK, res.Counts)
	}
	return res, err
}

func (e *SyncEngine) push(ctx context.Context) (*PushResult, error) {
	if err := e.remote.Ready(); err != nil {
		return nil, err
	}

	ctx = e.tenants.WithTenant(ctx)
	if _, ok := infraRepo.GetTenantID(ctx); !ok {
		e.log.Debug("push skipped, no tenant")
		return &PushResult{Degraded: true}, nil
	}

	provider, err := e.providers.Provider(ctx)
	if err != nil {
		return nil, err
	}

	changes := BuildPushChanges(ctx, provider)
	res := &PushResult{Counts: changes.Counts()}

	if changes.Empty() {
		res.Noop = true
	} else {
		resp, err := e.remote.Push(ctx, changes)
		if err != nil {
			return nil, fmt.Errorf("push changes: %w", err)
		}
		res.ServerTime = resp.ServerTime
	}

	res.Replayed, err = e.ReplayDeletes(ctx)
	if err != nil {
		e.log.Debug("delete replay incomplete", zap.Error(err))
	}
	return res, nil
}

// BuildPushChanges reads the device copy of every collection visible to ctx
// and maps the records with a valid UUIDv4 id to their wire rows. Reads are
// local only so nothing is written while collecting.
func BuildPushChanges(ctx context.Context, provider repository.StorageProvider) remote.ChangeSet {
	var changes remote.ChangeSet
	ctx = infraRepo.LocalOnly(ctx)

	for _, p := range provider.GetProducts(ctx) {
		if IsSyncable(p.ID) {
			changes.Products = append(changes.Products, remote.ToWireProduct(p))
		}
	}
	for _, c := range provider.GetClients(ctx) {
		if IsSyncable(c.ID) {
			changes.Clients = append(changes.Clients, remote.ToWireClient(c))
		}
	}
	for _, s := range provider.GetSales(ctx) {
		if !IsSyncable(s.ID) {
			continue
		}
		row, items := remote.ToWireSale(s)
		changes.Sales = append(changes.Sales, row)
		changes.SaleItems = append(changes.SaleItems, items...)
	}
	for _, t := range provider.GetTransactions(ctx) {
		if IsSyncable(t.ID) {
			changes.FinancialTransactions = append(changes.FinancialTransactions, remote.ToWireTransaction(t))
		}
	}
	if est := provider.GetEstablishment(ctx); est != nil && IsSyncable(est.ID) {
		changes.Establishments = []remote.EstablishmentRow{remote.ToWireEstablishment(*est)}
	}

	return changes
}

// ReplayDeletes sends every queued delete to the server. Acknowledged
// entries leave the queue; failed ones stay for the next replay.
func (e *SyncEngine) ReplayDeletes(ctx context.Context) (int, error) {
	if e.queue == nil {
		return 0, nil
	}
	pending, err := e.queue.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending deletes: %w", err)
	}
	if len(pending) == 0 {
		e.metrics.SetPendingDeletes(0)
		return 0, nil
	}
	if err := e.remote.Ready(); err != nil {
		e.metrics.SetPendingDeletes(len(pending))
		return 0, err
	}

	replayed := 0
	var firstErr error
	for _, p := range pending {
		if err := e.remote.Delete(ctx, p.Table.String(), []string{p.ID}); err != nil {
			e.metrics.RecordReplay(metrics.OutcomeError)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := e.queue.Remove(ctx, p.ID, p.Table); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		e.metrics.RecordReplay(metrics.OutcomeOK)
		replayed++
	}

	e.metrics.SetPendingDeletes(len(pending) - replayed)
	return replayed, firstErr
}

// DeleteRemote deletes a record on the server. Any failure, including no
// endpoint or no credential, queues the delete for replay instead. Ids that
// are not UUIDs were never pushed and are ignored.
func (e *SyncEngine) DeleteRemote(ctx context.Context, table enum.SyncTable, id string) (queued bool, err error) {
	if !utils.IsValidUUID(id) {
		return false, nil
	}

	err = e.remote.Ready()
	if err == nil {
		err = e.remote.Delete(ctx, table.String(), []string{id})
	}
	if err == nil {
		return false, nil
	}

	e.log.Debug("remote delete failed, queueing",
		zap.String("table", table.String()),
		zap.String("id", id),
		zap.Error(err),
	)
	if qErr := e.enqueueDelete(ctx, id, table); qErr != nil {
		return false, fmt.Errorf("queue delete: %w", qErr)
	}
	return true, nil
}

// enqueueDelete records a delete the server has not acknowledged
func (e *SyncEngine) enqueueDelete(ctx context.Context, id string, table enum.SyncTable) error {
	if err := e.queue.Enqueue(ctx, entity.PendingDelete{ID: id, Table: table}); err != nil {
		return err
	}
	if pending, err := e.queue.List(ctx); err == nil {
		e.metrics.SetPendingDeletes(len(pending))
	}
	return nil
}
