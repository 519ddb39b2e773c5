package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/enum"
	"github.com/sangkips/posync/internal/domain/repository"
	infraRepo "github.com/sangkips/posync/internal/infrastructure/repository"
	"github.com/sangkips/posync/pkg/apperror"
	"github.com/sangkips/posync/pkg/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signedToken(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type app struct {
	store    repository.KVStore
	selector *StorageSelector
	tenants  *TenantResolver
	queue    repository.DeleteQueue
	engine   *SyncEngine
	session  *oauth.Session
	data     *DataService
}

func newApp(t *testing.T, server *fakeServer, tenants map[string]*string) *app {
	t.Helper()
	log := zap.NewNop()
	a := &app{store: newStore(t), session: oauth.NewSession()}
	a.selector = NewStorageSelector(nil, infraRepo.KeyValueFactory{Store: a.store, Log: log}, time.Second, nil, log)
	a.tenants = NewTenantResolver(a.session, &fakeProfiles{tenants: tenants}, a.store, log)
	a.queue = infraRepo.NewDeleteQueue(a.store)
	a.engine = NewSyncEngine(SyncEngineConfig{
		Providers:   a.selector,
		Remote:      server,
		Tenants:     a.tenants,
		Queue:       a.queue,
		Store:       a.store,
		SettleDelay: 10 * time.Millisecond,
		Log:         log,
	})
	t.Cleanup(a.engine.Wait)
	a.data = NewDataService(a.selector, a.tenants, a.engine, a.queue, infraRepo.NewBlobCache(a.store), a.session, log)
	return a
}

func TestStartSession(t *testing.T) {
	a := newApp(t, newFakeServer(), map[string]*string{"u1": strPtr("t1")})

	_, err := a.data.StartSession(context.Background(), "not-a-jwt")
	assert.Error(t, err)
	assert.False(t, a.session.Active())

	info, err := a.data.StartSession(context.Background(), signedToken(t, "u1"))
	require.NoError(t, err)
	require.NotNil(t, info.TenantID)
	assert.Equal(t, "t1", *info.TenantID)
	assert.False(t, info.Degraded)
	assert.Equal(t, "keyvalue", info.Storage)

	info, err = a.data.StartSession(context.Background(), signedToken(t, "u-without-tenant"))
	require.NoError(t, err)
	assert.True(t, info.Degraded)
}

func TestSaveProduct_WritesLocallyThenPushes(t *testing.T) {
	server := newFakeServer()
	a := newApp(t, server, map[string]*string{"u1": strPtr("t1")})
	_, err := a.data.StartSession(context.Background(), signedToken(t, "u1"))
	require.NoError(t, err)

	saved, err := a.data.SaveProduct(context.Background(), &entity.Product{Name: "Rice", SellPrice: 3})
	require.NoError(t, err)
	assert.True(t, IsSyncable(saved.ID))
	require.NotNil(t, saved.TenantID)
	assert.Equal(t, "t1", *saved.TenantID)

	list, err := a.data.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	a.engine.Wait()
	require.Equal(t, 1, server.pushCount())
	assert.Equal(t, saved.ID, server.lastPush().Products[0].ID)
}

func TestWriteFailureIsUserFacing(t *testing.T) {
	a := newApp(t, newFakeServer(), map[string]*string{"u1": strPtr("t1")})
	_, err := a.data.StartSession(context.Background(), signedToken(t, "u1"))
	require.NoError(t, err)

	_, err = a.data.SaveProduct(context.Background(), &entity.Product{Name: "Foreign", TenantID: strPtr("t2")})
	require.Error(t, err)
	assert.True(t, apperror.IsUserFacing(err))
	assert.ErrorIs(t, err, apperror.ErrTenantMismatch)

	list, err := a.data.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOfflineDelete_ReplayedAfterNextPush(t *testing.T) {
	server := newFakeServer()
	a := newApp(t, server, map[string]*string{"u1": strPtr("t1")})
	_, err := a.data.StartSession(context.Background(), signedToken(t, "u1"))
	require.NoError(t, err)

	p, err := a.data.SaveProduct(context.Background(), &entity.Product{Name: "Soap"})
	require.NoError(t, err)
	a.engine.Wait()
	require.Contains(t, server.products, p.ID)

	server.setOffline(true)
	res, err := a.data.DeleteProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, res.Queued)

	list, err := a.data.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	pending, err := a.data.PendingDeletes(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, enum.SyncTableProducts, pending[0].Table)

	// back online but the server keeps refusing the delete for a while
	server.setOffline(false)
	const refusals = 3
	server.rejectDeletes(refusals)
	for i := 0; i < refusals; i++ {
		res, err := a.engine.Sync(context.Background())
		require.NoError(t, err, "attempt %d", i)
		assert.Equal(t, 0, res.Push.Replayed, "attempt %d", i)

		pending, err = a.data.PendingDeletes(context.Background())
		require.NoError(t, err)
		require.Len(t, pending, 1, "attempt %d", i)
		assert.Equal(t, p.ID, pending[0].ID)

		list, err = a.data.ListProducts(context.Background())
		require.NoError(t, err)
		assert.Empty(t, list, "attempt %d", i)
	}

	push, err := a.engine.PushChanges(context.Background())
	require.NoError(t, err)
	assert.True(t, push.Noop)
	assert.Equal(t, 1, push.Replayed)

	pending, err = a.data.PendingDeletes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.NotContains(t, server.products, p.ID)
}

func TestStartSession_AdoptsRecordsWrittenDegraded(t *testing.T) {
	server := newFakeServer()
	a := newApp(t, server, map[string]*string{"u1": strPtr("t1")})

	info, err := a.data.StartSession(context.Background(), signedToken(t, "u-pending"))
	require.NoError(t, err)
	require.True(t, info.Degraded)

	saved, err := a.data.SaveProduct(context.Background(), &entity.Product{Name: "Rice"})
	require.NoError(t, err)
	assert.Nil(t, saved.TenantID)
	a.engine.Wait()
	assert.Zero(t, server.pushCount(), "nothing is pushed without a tenant")

	info, err = a.data.StartSession(context.Background(), signedToken(t, "u1"))
	require.NoError(t, err)
	require.False(t, info.Degraded)
	assert.Equal(t, 1, info.Adopted)

	list, err := a.data.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)
	assert.Equal(t, "t1", *list[0].TenantID)

	a.engine.Wait()
	require.Equal(t, 1, server.pushCount())
	assert.Equal(t, saved.ID, server.lastPush().Products[0].ID)
}

func TestDelete_NonUUIDNeverReachesServer(t *testing.T) {
	server := newFakeServer()
	a := newApp(t, server, map[string]*string{"u1": strPtr("t1")})
	_, err := a.data.StartSession(context.Background(), signedToken(t, "u1"))
	require.NoError(t, err)

	_, err = a.data.SaveClient(context.Background(), &entity.Client{ID: "c-legacy", Name: "Ana"})
	require.NoError(t, err)
	res, err := a.data.DeleteClient(context.Background(), "c-legacy")
	require.NoError(t, err)
	assert.False(t, res.Queued)
	assert.Empty(t, server.deletes)
}

func TestEstablishment_DegradedWriteRejected(t *testing.T) {
	a := newApp(t, newFakeServer(), map[string]*string{})
	_, err := a.data.StartSession(context.Background(), signedToken(t, "u1"))
	require.NoError(t, err)

	_, err = a.data.SaveEstablishment(context.Background(), &entity.Establishment{ID: "t1", Name: "Shop"})
	assert.Error(t, err)

	_, err = a.data.GetEstablishment(context.Background())
	assert.Error(t, err)
}

func TestBlobs(t *testing.T) {
	a := newApp(t, newFakeServer(), nil)

	_, err := a.data.GetBlob(context.Background(), "logo.png")
	assert.Error(t, err)

	require.NoError(t, a.data.PutBlob(context.Background(), "logo.png", []byte{0x89, 'P', 'N', 'G'}))
	data, err := a.data.GetBlob(context.Background(), "logo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestLogout_ClearsDataButKeepsQueuedDeletes(t *testing.T) {
	server := newFakeServer()
	server.setOffline(true)
	a := newApp(t, server, map[string]*string{"u1": strPtr("t1")})
	_, err := a.data.StartSession(context.Background(), signedToken(t, "u1"))
	require.NoError(t, err)

	p, err := a.data.SaveProduct(context.Background(), &entity.Product{Name: "Tea"})
	require.NoError(t, err)
	_, err = a.data.SaveProduct(context.Background(), &entity.Product{Name: "Milk"})
	require.NoError(t, err)
	_, err = a.data.DeleteProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.NoError(t, a.data.PutBlob(context.Background(), "logo.png", []byte("x")))

	require.NoError(t, a.data.Logout(context.Background()))

	assert.False(t, a.session.Active())
	assert.Equal(t, StateUninitialized, a.selector.State())

	pending, err := a.queue.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = a.data.GetBlob(context.Background(), "logo.png")
	assert.Error(t, err)

	// signing back in shows nothing of the previous session
	_, err = a.data.StartSession(context.Background(), signedToken(t, "u1"))
	require.NoError(t, err)
	list, err := a.data.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
