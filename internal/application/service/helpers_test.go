package service

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/enum"
	"github.com/sangkips/posync/internal/domain/repository"
	"github.com/sangkips/posync/internal/infrastructure/kvstore"
	"github.com/sangkips/posync/internal/infrastructure/remote"
	infraRepo "github.com/sangkips/posync/internal/infrastructure/repository"
	"github.com/sangkips/posync/pkg/apperror"
	"github.com/sangkips/posync/pkg/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newStore(t *testing.T) repository.KVStore {
	t.Helper()
	store, err := kvstore.Open(filepath.Join(t.TempDir(), "local.kv"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newProvider(t *testing.T, store repository.KVStore) repository.StorageProvider {
	t.Helper()
	p := infraRepo.NewKeyValueProvider(store, infraRepo.KeyValueOptions{}, zap.NewNop())
	require.NoError(t, p.Init(context.Background()))
	return p
}

type fixedProvider struct {
	p repository.StorageProvider
}

func (f fixedProvider) Provider(context.Context) (repository.StorageProvider, error) {
	return f.p, nil
}

type staticTenant struct {
	id *string
}

func (s staticTenant) ResolveTenantID(context.Context) (*string, error) {
	return s.id, nil
}

func (s staticTenant) WithTenant(ctx context.Context) context.Context {
	return infraRepo.WithTenant(ctx, s.id)
}

var errOffline = apperror.WrapRemote("fake", errors.New("connection refused"))

// fakeServer is an in-memory sync server shared by one or more devices
type fakeServer struct {
	mu         sync.Mutex
	configured bool
	credential error
	offline    bool
	serverTime time.Time
	pushGate   chan struct{}
	// failDeletes is how many upcoming deletes are rejected
	failDeletes int

	products     map[string]remote.ProductRow
	clients      map[string]remote.ClientRow
	sales        map[string]remote.SaleRow
	saleItems    map[string]remote.SaleItemRow
	transactions map[string]remote.TransactionRow
	ests         []remote.EstablishmentRow

	pushes  []remote.ChangeSet
	pulls   []remote.PullRequest
	deletes []remote.DeleteRequest
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		configured:   true,
		serverTime:   t0,
		products:     map[string]remote.ProductRow{},
		clients:      map[string]remote.ClientRow{},
		sales:        map[string]remote.SaleRow{},
		saleItems:    map[string]remote.SaleItemRow{},
		transactions: map[string]remote.TransactionRow{},
	}
}

func (s *fakeServer) setOffline(v bool) {
	s.mu.Lock()
	s.offline = v
	s.mu.Unlock()
}

func (s *fakeServer) Ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.configured {
		return apperror.ErrRemoteNotConfigured
	}
	return s.credential
}

func (s *fakeServer) Push(_ context.Context, changes remote.ChangeSet) (*remote.PushResponse, error) {
	if s.pushGate != nil {
		<-s.pushGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return nil, errOffline
	}
	s.pushes = append(s.pushes, changes)
	for _, r := range changes.Products {
		s.products[r.ID] = r
	}
	for _, r := range changes.Clients {
		s.clients[r.ID] = r
	}
	for _, r := range changes.Sales {
		s.sales[r.ID] = r
	}
	for _, r := range changes.SaleItems {
		s.saleItems[r.ID] = r
	}
	for _, r := range changes.FinancialTransactions {
		s.transactions[r.ID] = r
	}
	s.ests = append(s.ests, changes.Establishments...)
	st := s.serverTime
	return &remote.PushResponse{OK: true, ServerTime: &st}, nil
}

func (s *fakeServer) Pull(_ context.Context, req remote.PullRequest) (*remote.PullResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return nil, errOffline
	}
	s.pulls = append(s.pulls, req)

	var c remote.ChangeSet
	for _, r := range s.products {
		c.Products = append(c.Products, r)
	}
	for _, r := range s.clients {
		c.Clients = append(c.Clients, r)
	}
	for _, r := range s.sales {
		c.Sales = append(c.Sales, r)
	}
	for _, r := range s.saleItems {
		c.SaleItems = append(c.SaleItems, r)
	}
	for _, r := range s.transactions {
		c.FinancialTransactions = append(c.FinancialTransactions, r)
	}
	c.Establishments = append(c.Establishments, s.ests...)
	sort.Slice(c.Products, func(i, j int) bool { return c.Products[i].ID < c.Products[j].ID })
	return &remote.PullResponse{Changes: c, ServerTime: s.serverTime}, nil
}

func (s *fakeServer) Delete(_ context.Context, table string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return errOffline
	}
	if s.failDeletes > 0 {
		s.failDeletes--
		return errOffline
	}
	s.deletes = append(s.deletes, remote.DeleteRequest{Table: table, IDs: ids})
	for _, id := range ids {
		switch table {
		case string(enum.SyncTableProducts):
			delete(s.products, id)
		case string(enum.SyncTableClients):
			delete(s.clients, id)
		}
	}
	return nil
}

func (s *fakeServer) rejectDeletes(n int) {
	s.mu.Lock()
	s.failDeletes = n
	s.mu.Unlock()
}

func (s *fakeServer) pullCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pulls)
}

func (s *fakeServer) pushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pushes)
}

func (s *fakeServer) lastPush() remote.ChangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes[len(s.pushes)-1]
}

// serverReader lets a key-value provider reconcile against the fake server
type serverReader struct {
	s *fakeServer
}

func (r serverReader) pull(ctx context.Context, tables ...string) (*remote.ChangeSet, error) {
	resp, err := r.s.Pull(ctx, remote.PullRequest{Tables: tables})
	if err != nil {
		return nil, err
	}
	return &resp.Changes, nil
}

func (r serverReader) FetchProducts(ctx context.Context) ([]entity.Product, error) {
	c, err := r.pull(ctx, remote.TableProducts)
	if err != nil {
		return nil, err
	}
	var out []entity.Product
	for _, row := range c.Products {
		out = append(out, remote.FromWireProduct(row))
	}
	return out, nil
}

func (r serverReader) FetchClients(ctx context.Context) ([]entity.Client, error) {
	c, err := r.pull(ctx, remote.TableClients)
	if err != nil {
		return nil, err
	}
	var out []entity.Client
	for _, row := range c.Clients {
		out = append(out, remote.FromWireClient(row))
	}
	return out, nil
}

func (r serverReader) FetchSales(ctx context.Context) ([]entity.Sale, error) {
	c, err := r.pull(ctx, remote.TableSales, remote.TableSaleItems)
	if err != nil {
		return nil, err
	}
	items := remote.GroupSaleItems(c.SaleItems)
	var out []entity.Sale
	for _, row := range c.Sales {
		out = append(out, remote.FromWireSale(row, items[row.ID]))
	}
	return out, nil
}

func (r serverReader) FetchTransactions(ctx context.Context) ([]entity.FinancialTransaction, error) {
	c, err := r.pull(ctx, remote.TableTransactions)
	if err != nil {
		return nil, err
	}
	var out []entity.FinancialTransaction
	for _, row := range c.FinancialTransactions {
		out = append(out, remote.FromWireTransaction(row))
	}
	return out, nil
}

// device bundles the local side of one installation
type device struct {
	store    repository.KVStore
	provider repository.StorageProvider
	queue    repository.DeleteQueue
	engine   *SyncEngine
}

func newDevice(t *testing.T, server SyncRemote, tenant *string) *device {
	t.Helper()
	store := newStore(t)
	d := &device{
		store:    store,
		provider: newProvider(t, store),
		queue:    infraRepo.NewDeleteQueue(store),
	}
	d.engine = NewSyncEngine(SyncEngineConfig{
		Providers:   fixedProvider{d.provider},
		Remote:      server,
		Tenants:     staticTenant{tenant},
		Queue:       d.queue,
		Store:       store,
		SettleDelay: 10 * time.Millisecond,
		Log:         zap.NewNop(),
	})
	t.Cleanup(d.engine.Wait)
	return d
}

func newProduct(name string) *entity.Product {
	return &entity.Product{
		ID:        utils.NewID(),
		Name:      name,
		SellPrice: 2.5,
		CostPrice: 1,
		Quantity:  5,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
}
