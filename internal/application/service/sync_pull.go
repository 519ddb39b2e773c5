package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sangkips/posync/internal/application/merge"
	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/enum"
	"github.com/sangkips/posync/internal/domain/repository"
	"github.com/sangkips/posync/internal/infrastructure/remote"
	infraRepo "github.com/sangkips/posync/internal/infrastructure/repository"
	"github.com/sangkips/posync/internal/metrics"
	"github.com/sangkips/posync/pkg/apperror"
	"go.uber.org/zap"
)

// lastPullPrefix keys the serverTime of the last pull per tenant
const lastPullPrefix = "sync:last_pull:"

// PullResult reports a pull
type PullResult struct {
	Degraded   bool           `json:"degraded"`
	Purged     int            `json:"purged"`
	Adopted    int            `json:"adopted"`
	Counts     map[string]int `json:"counts,omitempty"`
	Skipped    int            `json:"skipped"`
	ServerTime time.Time      `json:"serverTime"`
}

// PullChanges fetches server changes and upserts them locally record by
// record, so local records not yet pushed survive. Without a tenant there
// is nothing to attach rows to and the pull is skipped.
func (e *SyncEngine) PullChanges(ctx context.Context) (*PullResult, error) {
	res, err := e.pull(ctx)
	switch {
	case err != nil:
		e.metrics.RecordPull(metrics.OutcomeError, nil)
	case res.Degraded:
		e.metrics.RecordPull(metrics.OutcomeDegraded, nil)
	default:
		e.metrics.RecordPull(metrics.OutcomeOK, res.Counts)
	}
	return res, err
}

func (e *SyncEngine) pull(ctx context.Context) (*PullResult, error) {
	tenantID, err := e.tenants.ResolveTenantID(ctx)
	if err != nil {
		e.log.Debug("tenant unresolved", zap.Error(err))
	}
	if tenantID == nil {
		return &PullResult{Degraded: true}, nil
	}
	ctx = infraRepo.WithTenant(ctx, tenantID)

	provider, err := e.providers.Provider(ctx)
	if err != nil {
		return nil, err
	}

	res := &PullResult{Counts: map[string]int{}}

	// residue of another tenant's session on a shared device
	purged, err := provider.PurgeForeignTenants(ctx, *tenantID)
	if err != nil {
		e.log.Warn("foreign tenant cleanup failed", zap.Error(err))
	}
	res.Purged = purged

	// records written before the tenant was known belong to it now
	adopted, err := provider.AdoptUntagged(ctx, *tenantID)
	if err != nil {
		e.log.Warn("adopting untagged records failed", zap.Error(err))
	}
	res.Adopted = adopted

	if err := e.remote.Ready(); err != nil {
		return nil, err
	}

	req := remote.PullRequest{Tables: remote.AllTables, Since: e.lastPull(ctx, *tenantID)}
	resp, err := e.remote.Pull(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("pull changes: %w", err)
	}

	deleted, err := e.pendingDeletes(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.apply(ctx, provider, &resp.Changes, deleted, res); err != nil {
		return nil, err
	}

	res.ServerTime = resp.ServerTime
	e.storeLastPull(ctx, *tenantID, resp.ServerTime)
	return res, nil
}

// apply upserts pulled rows. Rows with a delete still queued on this device
// are skipped so a delete the server has not seen is never undone.
func (e *SyncEngine) apply(ctx context.Context, provider repository.StorageProvider, changes *remote.ChangeSet, deleted map[entity.PendingDelete]bool, res *PullResult) error {
	for _, row := range changes.Products {
		if deleted[entity.PendingDelete{ID: row.ID, Table: enum.SyncTableProducts}] {
			res.Skipped++
			continue
		}
		p := remote.FromWireProduct(row)
		if err := e.applyOne(remote.TableProducts, row.ID, 1, provider.UpsertProduct(ctx, &p), res); err != nil {
			return err
		}
	}

	for _, row := range changes.Clients {
		if deleted[entity.PendingDelete{ID: row.ID, Table: enum.SyncTableClients}] {
			res.Skipped++
			continue
		}
		c := remote.FromWireClient(row)
		if err := e.applyOne(remote.TableClients, row.ID, 1, provider.UpsertClient(ctx, &c), res); err != nil {
			return err
		}
	}

	if err := e.applySales(ctx, provider, changes, res); err != nil {
		return err
	}

	for _, row := range changes.FinancialTransactions {
		t := remote.FromWireTransaction(row)
		if err := e.applyOne(remote.TableTransactions, row.ID, 1, provider.AddTransaction(ctx, &t), res); err != nil {
			return err
		}
	}

	// the last establishment row for this tenant wins
	tenantID, _ := infraRepo.GetTenantID(ctx)
	var latest *entity.Establishment
	for _, row := range changes.Establishments {
		if row.ID != tenantID {
			res.Skipped++
			continue
		}
		est := remote.FromWireEstablishment(row)
		latest = &est
	}
	if latest != nil {
		if err := e.applyOne(remote.TableEstablishments, latest.ID, 1, provider.UpsertEstablishment(ctx, latest), res); err != nil {
			return err
		}
	}
	return nil
}

// applySales joins item rows to their sale before writing it. A sale row
// without pulled items keeps its local items; items pulled without their
// sale row are merged into the local sale by id.
func (e *SyncEngine) applySales(ctx context.Context, provider repository.StorageProvider, changes *remote.ChangeSet, res *PullResult) error {
	if len(changes.Sales) == 0 && len(changes.SaleItems) == 0 {
		return nil
	}

	groups := remote.GroupSaleItems(changes.SaleItems)
	local := map[string]entity.Sale{}
	for _, s := range provider.GetSales(infraRepo.LocalOnly(ctx)) {
		local[s.ID] = s
	}

	for _, row := range changes.Sales {
		items, pulled := groups[row.ID]
		delete(groups, row.ID)
		if !pulled {
			if existing, ok := local[row.ID]; ok {
				items = existing.Items
			}
		}
		s := merge.Resolve(local[row.ID], remote.FromWireSale(row, items))
		if err := e.applyOne(remote.TableSales, row.ID, 1, provider.AddSale(ctx, &s), res); err != nil {
			return err
		}
		if pulled {
			res.Counts[remote.TableSaleItems] += len(items)
		}
	}

	for saleID, items := range groups {
		existing, ok := local[saleID]
		if !ok {
			e.log.Debug("sale items without a known sale", zap.String("sale_id", saleID), zap.Int("items", len(items)))
			res.Skipped += len(items)
			continue
		}
		existing.Items = merge.ByID(existing.Items, items)
		if err := e.applyOne(remote.TableSaleItems, saleID, len(items), provider.AddSale(ctx, &existing), res); err != nil {
			return err
		}
	}
	return nil
}

// applyOne counts n written rows for table. Rows tagged with another tenant
// are skipped; any other write failure aborts the pull.
func (e *SyncEngine) applyOne(table, id string, n int, err error, res *PullResult) error {
	if errors.Is(err, apperror.ErrTenantMismatch) {
		e.log.Warn("skipping pulled row of another tenant", zap.String("table", table), zap.String("id", id))
		res.Skipped++
		return nil
	}
	if err != nil {
		return apperror.WrapWrite("apply pulled "+table, err)
	}
	if n > 0 {
		res.Counts[table] += n
	}
	return nil
}

// pendingDeletes returns the deletes the server has not acknowledged yet
func (e *SyncEngine) pendingDeletes(ctx context.Context) (map[entity.PendingDelete]bool, error) {
	deleted := map[entity.PendingDelete]bool{}
	if e.queue == nil {
		return deleted, nil
	}
	pending, err := e.queue.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending deletes: %w", err)
	}
	for _, d := range pending {
		deleted[d] = true
	}
	return deleted, nil
}

func (e *SyncEngine) lastPull(ctx context.Context, tenantID string) *time.Time {
	if e.store == nil {
		return nil
	}
	raw, err := e.store.Get(ctx, lastPullPrefix+tenantID)
	if err != nil || raw == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return nil
	}
	return &t
}

func (e *SyncEngine) storeLastPull(ctx context.Context, tenantID string, serverTime time.Time) {
	if e.store == nil || serverTime.IsZero() {
		return
	}
	err := e.store.Put(ctx, lastPullPrefix+tenantID, []byte(serverTime.UTC().Format(time.RFC3339Nano)))
	if err != nil {
		e.log.Warn("failed to store pull checkpoint", zap.Error(err))
	}
}
