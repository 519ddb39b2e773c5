package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sangkips/posync/internal/domain/repository"
	"github.com/sangkips/posync/internal/infrastructure/remote"
	"github.com/sangkips/posync/internal/metrics"
	"github.com/sangkips/posync/pkg/logger"
	"go.uber.org/zap"
)

// DefaultSettleDelay is how long a write settles before the background push
const DefaultSettleDelay = 500 * time.Millisecond

// SyncRemote is the part of the sync server the engine talks to
type SyncRemote interface {
	Ready() error
	Pull(ctx context.Context, req remote.PullRequest) (*remote.PullResponse, error)
	Push(ctx context.Context, changes remote.ChangeSet) (*remote.PushResponse, error)
	Delete(ctx context.Context, table string, ids []string) error
}

// ProviderSource hands out the selected local backend
type ProviderSource interface {
	Provider(ctx context.Context) (repository.StorageProvider, error)
}

// TenantSource resolves the active tenant
type TenantSource interface {
	ResolveTenantID(ctx context.Context) (*string, error)
	WithTenant(ctx context.Context) context.Context
}

// SyncEngine moves data between the local backend and the sync server.
// Push and pull share no lock; Sync runs them one after the other.
type SyncEngine struct {
	providers   ProviderSource
	remote      SyncRemote
	tenants     TenantSource
	queue       repository.DeleteQueue
	store       repository.KVStore
	settleDelay time.Duration
	metrics     *metrics.Sync
	log         *zap.Logger

	pushing atomic.Bool
	wg      sync.WaitGroup
}

// SyncEngineConfig wires a SyncEngine
type SyncEngineConfig struct {
	Providers   ProviderSource
	Remote      SyncRemote
	Tenants     TenantSource
	Queue       repository.DeleteQueue
	Store       repository.KVStore
	SettleDelay time.Duration
	Metrics     *metrics.Sync
	Log         *zap.Logger
}

// NewSyncEngine creates a sync engine
func NewSyncEngine(cfg SyncEngineConfig) *SyncEngine {
	delay := cfg.SettleDelay
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	return &SyncEngine{
		providers:   cfg.Providers,
		remote:      cfg.Remote,
		tenants:     cfg.Tenants,
		queue:       cfg.Queue,
		store:       cfg.Store,
		settleDelay: delay,
		metrics:     cfg.Metrics,
		log:         logger.OrNop(cfg.Log).Named("sync"),
	}
}

// SyncResult reports a combined push and pull
type SyncResult struct {
	Push *PushResult `json:"push"`
	Pull *PullResult `json:"pull"`
}

// Sync pushes local changes, then pulls remote ones
func (e *SyncEngine) Sync(ctx context.Context) (*SyncResult, error) {
	push, err := e.PushChanges(ctx)
	if err != nil {
		return nil, err
	}
	pull, err := e.PullChanges(ctx)
	if err != nil {
		return &SyncResult{Push: push}, err
	}
	return &SyncResult{Push: push, Pull: pull}, nil
}

// SchedulePush pushes in the background once the settle delay has passed.
// The push outlives ctx; its errors are logged.
func (e *SyncEngine) SchedulePush(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		time.Sleep(e.settleDelay)

		res, err := e.PushChanges(ctx)
		if err != nil {
			e.log.Warn("background push failed", zap.Error(err))
			return
		}
		if res.Skipped {
			e.log.Debug("background push skipped, another push in flight")
		}
	}()
}

// Wait blocks until every scheduled push has finished
func (e *SyncEngine) Wait() {
	e.wg.Wait()
}
