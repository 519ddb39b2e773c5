package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sangkips/posync/internal/application/merge"
	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/enum"
	domainRepo "github.com/sangkips/posync/internal/domain/repository"
	"github.com/sangkips/posync/pkg/logger"
	"github.com/sangkips/posync/pkg/utils"
	"go.uber.org/zap"
)

// Keys of the key-value backend. Everything under LocalPrefix is business
// data and is wiped on logout.
const (
	LocalPrefix         = "local:"
	KeyProducts         = LocalPrefix + "products"
	KeyClients          = LocalPrefix + "clients"
	KeySales            = LocalPrefix + "sales"
	KeyTransactions     = LocalPrefix + "financial_transactions"
	KeyEstablishment    = LocalPrefix + "establishment"
	BlobPrefix          = LocalPrefix + "blob:"
	defaultReconcileTTL = 3 * time.Second
)

// KeyValueOptions tunes read-time reconciliation with the remote store
type KeyValueOptions struct {
	Remote           domainRepo.RemoteReader
	ReconcileOnRead  bool
	ReconcileTimeout time.Duration
}

type keyValueProvider struct {
	mu    sync.Mutex
	store domainRepo.KVStore
	opts  KeyValueOptions
	log   *zap.Logger
}

// NewKeyValueProvider creates the key-value backend on top of the device
// store. The store is shared and is not closed by the provider.
func NewKeyValueProvider(store domainRepo.KVStore, opts KeyValueOptions, log *zap.Logger) domainRepo.StorageProvider {
	if opts.ReconcileTimeout <= 0 {
		opts.ReconcileTimeout = defaultReconcileTTL
	}
	return &keyValueProvider{store: store, opts: opts, log: logger.OrNop(log).Named("keyvalue")}
}

// KeyValueFactory builds key-value providers. The backend is always available.
type KeyValueFactory struct {
	Store   domainRepo.KVStore
	Options KeyValueOptions
	Log     *zap.Logger
}

func (f KeyValueFactory) Available() bool {
	return f.Store != nil
}

func (f KeyValueFactory) New() domainRepo.StorageProvider {
	return NewKeyValueProvider(f.Store, f.Options, f.Log)
}

func (p *keyValueProvider) Kind() domainRepo.ProviderKind {
	return domainRepo.ProviderKeyValue
}

// Init checks the store is readable and gives legacy sale items their ids
func (p *keyValueProvider) Init(ctx context.Context) error {
	if p.store == nil {
		return errNotInitialized
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	backfilled := 0
	err := updateCollection(ctx, p.store, KeySales, func(sales []entity.Sale) ([]entity.Sale, error) {
		for i := range sales {
			for j := range sales[i].Items {
				if sales[i].Items[j].ID == "" {
					sales[i].Items[j].ID = utils.DeriveID(sales[i].ID, strconv.Itoa(j))
					backfilled++
				}
			}
		}
		return sales, nil
	})
	if err != nil {
		return fmt.Errorf("failed to open key-value storage: %w", err)
	}
	if backfilled > 0 {
		p.log.Info("backfilled sale item ids", zap.Int("count", backfilled))
	}
	return nil
}

func (p *keyValueProvider) Close() error {
	return nil
}

func (p *keyValueProvider) GetProducts(ctx context.Context) []entity.Product {
	var fetch func(context.Context) ([]entity.Product, error)
	if p.opts.Remote != nil {
		fetch = p.opts.Remote.FetchProducts
	}
	rows := readReconciled(ctx, p, KeyProducts, enum.SyncTableProducts, fetch)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].UpdatedAt.After(rows[j].UpdatedAt) })
	return rows
}

func (p *keyValueProvider) GetClients(ctx context.Context) []entity.Client {
	var fetch func(context.Context) ([]entity.Client, error)
	if p.opts.Remote != nil {
		fetch = p.opts.Remote.FetchClients
	}
	rows := readReconciled(ctx, p, KeyClients, enum.SyncTableClients, fetch)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].UpdatedAt.After(rows[j].UpdatedAt) })
	return rows
}

func (p *keyValueProvider) GetSales(ctx context.Context) []entity.Sale {
	var fetch func(context.Context) ([]entity.Sale, error)
	if p.opts.Remote != nil {
		fetch = p.opts.Remote.FetchSales
	}
	rows := readReconciled(ctx, p, KeySales, "", fetch)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	return rows
}

func (p *keyValueProvider) GetTransactions(ctx context.Context) []entity.FinancialTransaction {
	var fetch func(context.Context) ([]entity.FinancialTransaction, error)
	if p.opts.Remote != nil {
		fetch = p.opts.Remote.FetchTransactions
	}
	rows := readReconciled(ctx, p, KeyTransactions, "", fetch)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	return rows
}

func (p *keyValueProvider) UpsertProduct(ctx context.Context, product *entity.Product) error {
	if err := AssignTenant(ctx, &product.TenantID); err != nil {
		return err
	}
	return upsertRecord(ctx, p, KeyProducts, *product)
}

func (p *keyValueProvider) UpsertClient(ctx context.Context, client *entity.Client) error {
	if err := AssignTenant(ctx, &client.TenantID); err != nil {
		return err
	}
	return upsertRecord(ctx, p, KeyClients, *client)
}

func (p *keyValueProvider) AddSale(ctx context.Context, sale *entity.Sale) error {
	if err := AssignTenant(ctx, &sale.TenantID); err != nil {
		return err
	}
	sale.EnsureItemIDs()
	return upsertRecord(ctx, p, KeySales, *sale)
}

func (p *keyValueProvider) AddTransaction(ctx context.Context, t *entity.FinancialTransaction) error {
	if err := AssignTenant(ctx, &t.TenantID); err != nil {
		return err
	}
	return upsertRecord(ctx, p, KeyTransactions, *t)
}

func (p *keyValueProvider) DeleteProduct(ctx context.Context, id string) error {
	return deleteRecord[entity.Product](ctx, p, KeyProducts, id)
}

func (p *keyValueProvider) DeleteClient(ctx context.Context, id string) error {
	return deleteRecord[entity.Client](ctx, p, KeyClients, id)
}

func (p *keyValueProvider) GetEstablishment(ctx context.Context) *entity.Establishment {
	tenantID, ok := GetTenantID(ctx)
	if !ok {
		return nil
	}
	raw, err := p.store.Get(ctx, KeyEstablishment)
	if err != nil {
		p.log.Warn("local read failed", zap.String("key", KeyEstablishment), zap.Error(err))
		return nil
	}
	if raw == nil {
		return nil
	}
	var est entity.Establishment
	if err := json.Unmarshal(raw, &est); err != nil {
		p.log.Warn("local read failed", zap.String("key", KeyEstablishment), zap.Error(err))
		return nil
	}
	if est.ID != tenantID {
		return nil
	}
	return &est
}

func (p *keyValueProvider) UpsertEstablishment(ctx context.Context, est *entity.Establishment) error {
	if err := assignEstablishment(ctx, est); err != nil {
		return err
	}
	raw, err := json.Marshal(est)
	if err != nil {
		return err
	}
	if err := p.store.Put(ctx, KeyEstablishment, raw); err != nil {
		return fmt.Errorf("failed to upsert establishment: %w", err)
	}
	return nil
}

func (p *keyValueProvider) PurgeForeignTenants(ctx context.Context, tenantID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	errs := []error{
		purgeCollection[entity.Product](ctx, p.store, KeyProducts, tenantID, &removed),
		purgeCollection[entity.Client](ctx, p.store, KeyClients, tenantID, &removed),
		purgeCollection[entity.Sale](ctx, p.store, KeySales, tenantID, &removed),
		purgeCollection[entity.FinancialTransaction](ctx, p.store, KeyTransactions, tenantID, &removed),
	}
	for _, err := range errs {
		if err != nil {
			return removed, fmt.Errorf("failed to purge foreign tenants: %w", err)
		}
	}

	err := p.store.Update(ctx, KeyEstablishment, func(raw []byte) ([]byte, error) {
		if raw == nil {
			return nil, nil
		}
		var est entity.Establishment
		if err := json.Unmarshal(raw, &est); err != nil || est.ID != tenantID {
			removed++
			return nil, nil
		}
		return raw, nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to purge foreign tenants: %w", err)
	}
	return removed, nil
}

func (p *keyValueProvider) AdoptUntagged(ctx context.Context, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	adopted := 0
	tag := func(t **string) {
		if *t == nil {
			id := tenantID
			*t = &id
			adopted++
		}
	}
	errs := []error{
		adoptCollection(ctx, p.store, KeyProducts, func(r *entity.Product) { tag(&r.TenantID) }),
		adoptCollection(ctx, p.store, KeyClients, func(r *entity.Client) { tag(&r.TenantID) }),
		adoptCollection(ctx, p.store, KeySales, func(r *entity.Sale) { tag(&r.TenantID) }),
		adoptCollection(ctx, p.store, KeyTransactions, func(r *entity.FinancialTransaction) { tag(&r.TenantID) }),
	}
	for _, err := range errs {
		if err != nil {
			return adopted, fmt.Errorf("failed to adopt untagged rows: %w", err)
		}
	}
	return adopted, nil
}

func (p *keyValueProvider) ClearAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.store.DeletePrefix(ctx, LocalPrefix); err != nil {
		return fmt.Errorf("failed to clear local data: %w", err)
	}
	return nil
}

func loadCollection[T any](ctx context.Context, store domainRepo.KVStore, key string) ([]T, error) {
	raw, err := store.Get(ctx, key)
	if err != nil || raw == nil {
		return nil, err
	}
	var rows []T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("corrupt collection %s: %w", key, err)
	}
	return rows, nil
}

// updateCollection is a read-modify-write of a whole collection in one
// store transaction. Callers hold the provider mutex.
func updateCollection[T any](ctx context.Context, store domainRepo.KVStore, key string, fn func([]T) ([]T, error)) error {
	return store.Update(ctx, key, func(raw []byte) ([]byte, error) {
		var rows []T
		if raw != nil {
			if err := json.Unmarshal(raw, &rows); err != nil {
				return nil, fmt.Errorf("corrupt collection %s: %w", key, err)
			}
		}
		next, err := fn(rows)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []T{}
		}
		return json.Marshal(next)
	})
}

func visibleRows[T entity.Record](ctx context.Context, rows []T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if Visible(ctx, r.GetTenantID()) {
			out = append(out, r)
		}
	}
	return out
}

// readReconciled returns the local rows visible to ctx. When a remote reader
// is wired and a tenant is active, remote rows the device does not have are
// added to the local copy and written back. Local rows always win, and rows
// with a queued delete are never brought back. Any remote failure falls back
// to local data.
func readReconciled[T entity.Record](ctx context.Context, p *keyValueProvider, key string, table enum.SyncTable, fetch func(context.Context) ([]T, error)) []T {
	local, err := loadCollection[T](ctx, p.store, key)
	if err != nil {
		p.log.Warn("local read failed", zap.String("key", key), zap.Error(err))
		return []T{}
	}
	rows := visibleRows(ctx, local)

	_, hasTenant := GetTenantID(ctx)
	if fetch == nil || !p.opts.ReconcileOnRead || !hasTenant || IsLocalOnly(ctx) {
		return rows
	}

	rctx, cancel := context.WithTimeout(ctx, p.opts.ReconcileTimeout)
	defer cancel()
	remote, err := fetch(rctx)
	if err != nil {
		p.log.Debug("remote reconcile skipped", zap.String("key", key), zap.Error(err))
		return rows
	}
	remote = visibleRows(ctx, remote)
	if len(remote) == 0 {
		return rows
	}

	deleted, err := pendingDeleteIDs(ctx, p.store, table)
	if err != nil {
		p.log.Warn("remote reconcile skipped, delete queue unreadable", zap.String("key", key), zap.Error(err))
		return rows
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var merged []T
	added := 0
	err = updateCollection(ctx, p.store, key, func(all []T) ([]T, error) {
		known := make(map[string]struct{}, len(all))
		for _, r := range all {
			known[r.GetID()] = struct{}{}
		}
		var fresh []T
		for _, r := range remote {
			id := r.GetID()
			if _, ok := known[id]; ok {
				continue
			}
			if _, ok := deleted[id]; ok {
				continue
			}
			fresh = append(fresh, r)
		}
		added = len(fresh)
		merged = merge.ByID(all, fresh)
		return merged, nil
	})
	if err != nil {
		p.log.Warn("reconciled write-back failed", zap.String("key", key), zap.Error(err))
		return rows
	}
	if added > 0 {
		p.log.Debug("reconciled remote rows", zap.String("key", key), zap.Int("added", added))
	}
	return visibleRows(ctx, merged)
}

// pendingDeleteIDs returns the ids of table with a delete still waiting for
// the server. Tables without remote deletes have none.
func pendingDeleteIDs(ctx context.Context, store domainRepo.KVStore, table enum.SyncTable) (map[string]struct{}, error) {
	ids := map[string]struct{}{}
	if !table.IsValid() {
		return ids, nil
	}
	pending, err := loadCollection[entity.PendingDelete](ctx, store, KeyPendingDeletes)
	if err != nil {
		return nil, err
	}
	for _, d := range pending {
		if d.Table == table {
			ids[d.ID] = struct{}{}
		}
	}
	return ids, nil
}

func upsertRecord[T entity.Record](ctx context.Context, p *keyValueProvider, key string, rec T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := updateCollection(ctx, p.store, key, func(rows []T) ([]T, error) {
		return merge.ByID(rows, []T{rec}), nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func deleteRecord[T entity.Record](ctx context.Context, p *keyValueProvider, key, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := updateCollection(ctx, p.store, key, func(rows []T) ([]T, error) {
		out := rows[:0]
		for _, r := range rows {
			if r.GetID() == id && Visible(ctx, r.GetTenantID()) {
				continue
			}
			out = append(out, r)
		}
		return out, nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", key, err)
	}
	return nil
}

func purgeCollection[T entity.Record](ctx context.Context, store domainRepo.KVStore, key, tenantID string, removed *int) error {
	return updateCollection(ctx, store, key, func(rows []T) ([]T, error) {
		out := rows[:0]
		for _, r := range rows {
			if t := r.GetTenantID(); t != nil && *t != tenantID {
				*removed++
				continue
			}
			out = append(out, r)
		}
		return out, nil
	})
}

func adoptCollection[T any](ctx context.Context, store domainRepo.KVStore, key string, tag func(*T)) error {
	return updateCollection(ctx, store, key, func(rows []T) ([]T, error) {
		for i := range rows {
			tag(&rows[i])
		}
		return rows, nil
	})
}
