package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/repository"
	"github.com/sangkips/posync/internal/infrastructure/remote"
	infraRepo "github.com/sangkips/posync/internal/infrastructure/repository"
	"github.com/sangkips/posync/pkg/logger"
	"github.com/sangkips/posync/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// tenantCachePrefix keys the persisted user -> tenant cache
const tenantCachePrefix = "session:tenant:"

// offlineRetryInterval is how long a tenant recovered from the persisted
// cache is served before the server is asked again
const offlineRetryInterval = 30 * time.Second

// Identity exposes who is signed in on this device
type Identity interface {
	Claims() (*utils.BearerClaims, error)
}

// ProfileFetcher looks up the caller's profile on the server
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, userID string) (*remote.Profile, error)
}

type tenantCacheEntry struct {
	TenantID   *string   `json:"tenantId"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// resolution is an in-memory answer. A zero retryAt never expires.
type resolution struct {
	tenantID *string
	retryAt  time.Time
}

// TenantResolver maps the signed-in user to the tenant whose data the
// device may show. A nil tenant means degraded mode.
type TenantResolver struct {
	identity Identity
	profiles ProfileFetcher
	store    repository.KVStore
	group    singleflight.Group
	now      func() time.Time
	log      *zap.Logger

	mu    sync.RWMutex
	cache map[string]resolution
}

// NewTenantResolver creates a resolver. store persists the last resolution
// per user so a device restarted offline keeps its tenant.
func NewTenantResolver(identity Identity, profiles ProfileFetcher, store repository.KVStore, log *zap.Logger) *TenantResolver {
	return &TenantResolver{
		identity: identity,
		profiles: profiles,
		store:    store,
		now:      time.Now,
		log:      logger.OrNop(log).Named("tenant"),
		cache:    map[string]resolution{},
	}
}

// ResolveTenantID returns the tenant of the signed-in user. No session, or a
// profile without a tenant, yields nil and no error. A failed lookup falls
// back to the persisted resolution; the error is only returned when there
// is none.
func (r *TenantResolver) ResolveTenantID(ctx context.Context) (*string, error) {
	claims, err := r.identity.Claims()
	if err != nil {
		return nil, nil
	}
	userID := claims.UserID()

	r.mu.RLock()
	cached, ok := r.cache[userID]
	r.mu.RUnlock()
	if ok && (cached.retryAt.IsZero() || r.now().Before(cached.retryAt)) {
		return copyTenant(cached.tenantID), nil
	}

	v, err, _ := r.group.Do(userID, func() (interface{}, error) {
		return r.lookup(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return copyTenant(v.(*string)), nil
}

func (r *TenantResolver) lookup(ctx context.Context, userID string) (*string, error) {
	profile, err := r.profiles.FetchProfile(ctx, userID)
	if err != nil {
		cached, found := r.loadPersisted(ctx, userID)
		if found {
			r.log.Debug("tenant lookup failed, using cached tenant", zap.String("user_id", userID), zap.Error(err))
			r.mu.Lock()
			r.cache[userID] = resolution{tenantID: cached, retryAt: r.now().Add(offlineRetryInterval)}
			r.mu.Unlock()
			return cached, nil
		}
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}

	var tenantID *string
	if profile != nil && profile.EstablishmentID != nil && *profile.EstablishmentID != "" {
		id := *profile.EstablishmentID
		tenantID = &id
	}

	r.mu.Lock()
	r.cache[userID] = resolution{tenantID: tenantID}
	r.mu.Unlock()
	r.persist(ctx, userID, tenantID)
	return tenantID, nil
}

func (r *TenantResolver) loadPersisted(ctx context.Context, userID string) (*string, bool) {
	if r.store == nil {
		return nil, false
	}
	raw, err := r.store.Get(ctx, tenantCachePrefix+userID)
	if err != nil || raw == nil {
		return nil, false
	}
	var entry tenantCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		r.log.Warn("discarding unreadable tenant cache", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	return entry.TenantID, true
}

func (r *TenantResolver) persist(ctx context.Context, userID string, tenantID *string) {
	if r.store == nil {
		return
	}
	raw, err := json.Marshal(tenantCacheEntry{TenantID: tenantID, ResolvedAt: r.now().UTC()})
	if err == nil {
		err = r.store.Put(ctx, tenantCachePrefix+userID, raw)
	}
	if err != nil {
		r.log.Warn("failed to persist tenant cache", zap.String("user_id", userID), zap.Error(err))
	}
}

// WithTenant returns ctx carrying the resolved tenant. Resolution failures
// leave the context in degraded mode.
func (r *TenantResolver) WithTenant(ctx context.Context) context.Context {
	tenantID, err := r.ResolveTenantID(ctx)
	if err != nil {
		logger.FromContext(ctx).Debug("tenant unresolved, continuing degraded", zap.Error(err))
	}
	return infraRepo.WithTenant(ctx, tenantID)
}

// Refresh drops the in-memory resolution so the next call asks the server
func (r *TenantResolver) Refresh() {
	r.mu.Lock()
	r.cache = map[string]resolution{}
	r.mu.Unlock()
}

// Forget drops every cached resolution, in memory and on disk
func (r *TenantResolver) Forget(ctx context.Context) error {
	r.Refresh()
	if r.store == nil {
		return nil
	}
	_, err := r.store.DeletePrefix(ctx, tenantCachePrefix)
	return err
}

// IsSyncable reports whether a record with this id may be sent to the server
func IsSyncable(id string) bool {
	return utils.IsValidUUIDv4(id)
}

func (r *TenantResolver) stamp(ctx context.Context, id *string, tenantID **string) {
	if *id == "" {
		*id = utils.NewID()
	}
	if *tenantID == nil {
		if t, ok := infraRepo.GetTenantID(ctx); ok {
			*tenantID = &t
		}
	}
}

// StampProduct fills in id, timestamps and the context tenant
func (r *TenantResolver) StampProduct(ctx context.Context, p *entity.Product) {
	r.stamp(ctx, &p.ID, &p.TenantID)
	now := r.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

func (r *TenantResolver) StampClient(ctx context.Context, c *entity.Client) {
	r.stamp(ctx, &c.ID, &c.TenantID)
	now := r.now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

func (r *TenantResolver) StampSale(ctx context.Context, s *entity.Sale) {
	r.stamp(ctx, &s.ID, &s.TenantID)
	if s.Date.IsZero() {
		s.Date = r.now().UTC()
	}
	s.EnsureItemIDs()
}

func (r *TenantResolver) StampTransaction(ctx context.Context, t *entity.FinancialTransaction) {
	r.stamp(ctx, &t.ID, &t.TenantID)
	if t.Date.IsZero() {
		t.Date = r.now().UTC()
	}
}

func copyTenant(t *string) *string {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
