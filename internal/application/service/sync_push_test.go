package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/enum"
	infraRepo "github.com/sangkips/posync/internal/infrastructure/repository"
	"github.com/sangkips/posync/pkg/apperror"
	"github.com/sangkips/posync/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPush_NotConfigured(t *testing.T) {
	server := newFakeServer()
	server.configured = false
	d := newDevice(t, server, strPtr("t1"))

	_, err := d.engine.PushChanges(context.Background())
	assert.ErrorIs(t, err, apperror.ErrRemoteNotConfigured)
	assert.Equal(t, 0, server.pushCount())
}

func TestPush_MissingCredential(t *testing.T) {
	server := newFakeServer()
	server.credential = apperror.ErrMissingCredential
	d := newDevice(t, server, strPtr("t1"))
	ctx := infraRepo.WithTenant(context.Background(), strPtr("t1"))
	require.NoError(t, d.provider.UpsertProduct(ctx, newProduct("Coffee")))

	_, err := d.engine.PushChanges(context.Background())
	assert.ErrorIs(t, err, apperror.ErrMissingCredential)
	assert.Equal(t, 0, server.pushCount())
}

func TestPush_EmptyIsNoop(t *testing.T) {
	server := newFakeServer()
	d := newDevice(t, server, strPtr("t1"))

	res, err := d.engine.PushChanges(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Noop)
	assert.Equal(t, 0, server.pushCount())
}

func TestPush_DegradedSkips(t *testing.T) {
	server := newFakeServer()
	d := newDevice(t, server, nil)
	require.NoError(t, d.provider.UpsertProduct(context.Background(), newProduct("untagged")))

	res, err := d.engine.PushChanges(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, 0, server.pushCount())
}

func TestPush_OnlyValidUUIDv4Records(t *testing.T) {
	server := newFakeServer()
	d := newDevice(t, server, strPtr("t1"))
	ctx := infraRepo.WithTenant(context.Background(), strPtr("t1"))

	good := newProduct("good")
	legacy := newProduct("legacy")
	legacy.ID = "local-42"
	v1 := newProduct("v1")
	v1.ID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	for _, p := range []*entity.Product{good, legacy, v1} {
		require.NoError(t, d.provider.UpsertProduct(ctx, p))
	}
	require.NoError(t, d.provider.UpsertClient(ctx, &entity.Client{ID: "tmp", Name: "placeholder"}))

	res, err := d.engine.PushChanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"products": 1}, res.Counts)

	pushed := server.lastPush()
	require.Len(t, pushed.Products, 1)
	assert.Equal(t, good.ID, pushed.Products[0].ID)
	assert.Empty(t, pushed.Clients)

	// ineligible records stay local
	assert.Len(t, d.provider.GetProducts(ctx), 3)
}

func TestPush_SaleItemIDsStable(t *testing.T) {
	server := newFakeServer()
	d := newDevice(t, server, strPtr("t1"))
	ctx := infraRepo.WithTenant(context.Background(), strPtr("t1"))

	// a legacy sale written before item ids existed
	sale := &entity.Sale{
		ID:           utils.NewID(),
		Date:         t0,
		DocumentType: enum.DocumentTypeReceipt,
		Status:       enum.SaleStatusPaid,
		TenantID:     strPtr("t1"),
		Items: []entity.SaleItem{
			{ProductID: "p1", ProductName: "Coffee", Quantity: 1},
			{ProductID: "p2", ProductName: "Tea", Quantity: 2},
		},
	}
	require.NoError(t, d.provider.AddSale(ctx, sale))
	before := d.provider.GetSales(ctx)

	_, err := d.engine.PushChanges(context.Background())
	require.NoError(t, err)
	first := server.lastPush().SaleItems

	_, err = d.engine.PushChanges(context.Background())
	require.NoError(t, err)
	second := server.lastPush().SaleItems

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Len(t, server.saleItems, 2, "no duplicate item rows on the server")
	assert.Equal(t, before, d.provider.GetSales(ctx), "push never writes locally")
}

func TestPush_ConcurrentPushIsSkipped(t *testing.T) {
	server := newFakeServer()
	server.pushGate = make(chan struct{})
	d := newDevice(t, server, strPtr("t1"))
	ctx := infraRepo.WithTenant(context.Background(), strPtr("t1"))
	require.NoError(t, d.provider.UpsertProduct(ctx, newProduct("Coffee")))

	var wg sync.WaitGroup
	wg.Add(1)
	var first *PushResult
	go func() {
		defer wg.Done()
		first, _ = d.engine.PushChanges(context.Background())
	}()

	require.Eventually(t, d.engine.pushing.Load, time.Second, time.Millisecond)
	second, err := d.engine.PushChanges(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	close(server.pushGate)
	wg.Wait()
	require.NotNil(t, first)
	assert.False(t, first.Skipped)
	assert.Equal(t, 1, server.pushCount())
}

func TestPush_ReplaysQueuedDeletes(t *testing.T) {
	server := newFakeServer()
	d := newDevice(t, server, strPtr("t1"))
	ctx := context.Background()
	id := utils.NewID()
	require.NoError(t, d.queue.Enqueue(ctx, entity.PendingDelete{ID: id, Table: enum.SyncTableProducts}))

	res, err := d.engine.PushChanges(ctx)
	require.NoError(t, err)
	assert.True(t, res.Noop)
	assert.Equal(t, 1, res.Replayed)

	pending, err := d.queue.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	require.Len(t, server.deletes, 1)
	assert.Equal(t, "products", server.deletes[0].Table)
	assert.Equal(t, []string{id}, server.deletes[0].IDs)
}

func TestPush_FailureKeepsQueue(t *testing.T) {
	server := newFakeServer()
	d := newDevice(t, server, strPtr("t1"))
	ctx := infraRepo.WithTenant(context.Background(), strPtr("t1"))
	require.NoError(t, d.provider.UpsertProduct(ctx, newProduct("Coffee")))
	require.NoError(t, d.queue.Enqueue(ctx, entity.PendingDelete{ID: utils.NewID(), Table: enum.SyncTableClients}))

	server.setOffline(true)
	_, err := d.engine.PushChanges(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsUserFacing(err))

	pending, _ := d.queue.List(ctx)
	assert.Len(t, pending, 1)
}

func TestSchedulePush(t *testing.T) {
	server := newFakeServer()
	d := newDevice(t, server, strPtr("t1"))
	ctx, cancel := context.WithCancel(infraRepo.WithTenant(context.Background(), strPtr("t1")))
	require.NoError(t, d.provider.UpsertProduct(ctx, newProduct("Coffee")))

	d.engine.SchedulePush(ctx)
	cancel() // the background push outlives the request
	d.engine.Wait()

	assert.Equal(t, 1, server.pushCount())
}

func TestPush_SendsOfflineEditsWhenReadsReconcile(t *testing.T) {
	server := newFakeServer()
	store := newStore(t)
	provider := infraRepo.NewKeyValueProvider(store, infraRepo.KeyValueOptions{
		Remote:           serverReader{server},
		ReconcileOnRead:  true,
		ReconcileTimeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, provider.Init(context.Background()))
	engine := NewSyncEngine(SyncEngineConfig{
		Providers: fixedProvider{provider},
		Remote:    server,
		Tenants:   staticTenant{strPtr("t1")},
		Queue:     infraRepo.NewDeleteQueue(store),
		Store:     store,
		Log:       zap.NewNop(),
	})
	ctx := infraRepo.WithTenant(context.Background(), strPtr("t1"))

	p := newProduct("server")
	require.NoError(t, provider.UpsertProduct(ctx, p))
	_, err := engine.PushChanges(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, server.products[p.ID].Quantity)

	edit := *p
	edit.Name = "offline edit"
	edit.Quantity = 4
	edit.UpdatedAt = t0.Add(time.Minute)
	require.NoError(t, provider.UpsertProduct(ctx, &edit))

	// a screen reading before the push reconciles with the stale server copy
	list := provider.GetProducts(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "offline edit", list[0].Name)

	pulls := server.pullCount()
	_, err = engine.PushChanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pulls, server.pullCount(), "push reads the device copy only")

	pushed := server.lastPush().Products
	require.Len(t, pushed, 1)
	assert.Equal(t, "offline edit", pushed[0].Name)
	assert.Equal(t, 4, pushed[0].Quantity)
	assert.Equal(t, "offline edit", server.products[p.ID].Name)
}
