package service

import (
	"context"
	"fmt"

	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/enum"
	"github.com/sangkips/posync/internal/domain/repository"
	infraRepo "github.com/sangkips/posync/internal/infrastructure/repository"
	"github.com/sangkips/posync/pkg/apperror"
	"github.com/sangkips/posync/pkg/logger"
	"go.uber.org/zap"
)

// Session is the credential holder the UI hands its token to
type Session interface {
	Set(accessToken string) error
	Clear()
}

// DataService is the boundary the UI goes through: it stamps new records,
// writes them locally first and schedules a push afterwards.
type DataService struct {
	selector *StorageSelector
	tenants  *TenantResolver
	engine   *SyncEngine
	queue    repository.DeleteQueue
	blobs    *infraRepo.BlobCache
	session  Session
	log      *zap.Logger
}

// NewDataService creates a data service
func NewDataService(
	selector *StorageSelector,
	tenants *TenantResolver,
	engine *SyncEngine,
	queue repository.DeleteQueue,
	blobs *infraRepo.BlobCache,
	session Session,
	log *zap.Logger,
) *DataService {
	return &DataService{
		selector: selector,
		tenants:  tenants,
		engine:   engine,
		queue:    queue,
		blobs:    blobs,
		session:  session,
		log:      logger.OrNop(log).Named("data"),
	}
}

// DeleteResult tells the caller whether the server delete is still pending
type DeleteResult struct {
	ID     string `json:"id"`
	Queued bool   `json:"queued"`
}

func (s *DataService) provider(ctx context.Context) (context.Context, repository.StorageProvider, error) {
	ctx = s.tenants.WithTenant(ctx)
	p, err := s.selector.Provider(ctx)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, p, nil
}

// ListProducts returns the tenant's products, newest first
func (s *DataService) ListProducts(ctx context.Context) ([]entity.Product, error) {
	ctx, p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	return p.GetProducts(ctx), nil
}

// SaveProduct creates or replaces a product
func (s *DataService) SaveProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	ctx, p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	s.tenants.StampProduct(ctx, product)
	if err := p.UpsertProduct(ctx, product); err != nil {
		return nil, apperror.WrapWrite("save product", err)
	}
	s.engine.SchedulePush(ctx)
	return product, nil
}

// DeleteProduct removes a product locally, then on the server. A failed
// server delete is queued and replayed after the next push.
func (s *DataService) DeleteProduct(ctx context.Context, id string) (*DeleteResult, error) {
	return s.delete(ctx, enum.SyncTableProducts, id)
}

func (s *DataService) ListClients(ctx context.Context) ([]entity.Client, error) {
	ctx, p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	return p.GetClients(ctx), nil
}

func (s *DataService) SaveClient(ctx context.Context, client *entity.Client) (*entity.Client, error) {
	ctx, p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	s.tenants.StampClient(ctx, client)
	if err := p.UpsertClient(ctx, client); err != nil {
		return nil, apperror.WrapWrite("save client", err)
	}
	s.engine.SchedulePush(ctx)
	return client, nil
}

func (s *DataService) DeleteClient(ctx context.Context, id string) (*DeleteResult, error) {
	return s.delete(ctx, enum.SyncTableClients, id)
}

func (s *DataService) delete(ctx context.Context, table enum.SyncTable, id string) (*DeleteResult, error) {
	ctx, p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}

	switch table {
	case enum.SyncTableProducts:
		err = p.DeleteProduct(ctx, id)
	case enum.SyncTableClients:
		err = p.DeleteClient(ctx, id)
	default:
		return nil, apperror.NewBadRequestError(fmt.Sprintf("unsupported table %q", table))
	}
	if err != nil {
		return nil, apperror.WrapWrite("delete "+table.String(), err)
	}

	queued, err := s.engine.DeleteRemote(ctx, table, id)
	if err != nil {
		return nil, err
	}
	return &DeleteResult{ID: id, Queued: queued}, nil
}

func (s *DataService) ListSales(ctx context.Context) ([]entity.Sale, error) {
	ctx, p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	return p.GetSales(ctx), nil
}

// RecordSale writes a sale with its items
func (s *DataService) RecordSale(ctx context.Context, sale *entity.Sale) (*entity.Sale, error) {
	ctx, p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	s.tenants.StampSale(ctx, sale)
	if err := p.AddSale(ctx, sale); err != nil {
		return nil, apperror.WrapWrite("record sale", err)
	}
	s.engine.SchedulePush(ctx)
	return sale, nil
}

func (s *DataService) ListTransactions(ctx context.Context) ([]entity.FinancialTransaction, error) {
	ctx, p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	return p.GetTransactions(ctx), nil
}

func (s *DataService) RecordTransaction(ctx context.Context, t *entity.FinancialTransaction) (*entity.FinancialTransaction, error) {
	ctx, p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	s.tenants.StampTransaction(ctx, t)
	if err := p.AddTransaction(ctx, t); err != nil {
		return nil, apperror.WrapWrite("record transaction", err)
	}
	s.engine.SchedulePush(ctx)
	return t, nil
}

// GetEstablishment returns the cached establishment of the active tenant
func (s *DataService) GetEstablishment(ctx context.Context) (*entity.Establishment, error) {
	ctx, p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	est := p.GetEstablishment(ctx)
	if est == nil {
		return nil, apperror.NewNotFoundError("Establishment")
	}
	return est, nil
}

func (s *DataService) SaveEstablishment(ctx context.Context, est *entity.Establishment) (*entity.Establishment, error) {
	ctx, p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	est.UpdatedAt = s.tenants.now().UTC()
	if err := p.UpsertEstablishment(ctx, est); err != nil {
		return nil, apperror.WrapWrite("save establishment", err)
	}
	s.engine.SchedulePush(ctx)
	return est, nil
}

// PendingDeletes lists deletes the server has not acknowledged
func (s *DataService) PendingDeletes(ctx context.Context) ([]entity.PendingDelete, error) {
	return s.queue.List(ctx)
}

// GetBlob returns a cached asset
func (s *DataService) GetBlob(ctx context.Context, name string) ([]byte, error) {
	data, ok, err := s.blobs.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFoundError("Blob")
	}
	return data, nil
}

func (s *DataService) PutBlob(ctx context.Context, name string, data []byte) error {
	if err := s.blobs.Put(ctx, name, data); err != nil {
		return apperror.WrapWrite("cache blob", err)
	}
	return nil
}

// SessionInfo describes the active session
type SessionInfo struct {
	TenantID *string `json:"tenantId"`
	Degraded bool    `json:"degraded"`
	Storage  string  `json:"storage"`
	Adopted  int     `json:"adopted"`
}

// StartSession adopts the bearer token issued by the auth layer and
// resolves its tenant
func (s *DataService) StartSession(ctx context.Context, accessToken string) (*SessionInfo, error) {
	if err := s.session.Set(accessToken); err != nil {
		return nil, err
	}
	s.tenants.Refresh()

	tenantID, err := s.tenants.ResolveTenantID(ctx)
	if err != nil {
		s.log.Warn("tenant unresolved at sign-in, continuing degraded", zap.Error(err))
	}

	info := &SessionInfo{TenantID: tenantID, Degraded: tenantID == nil}
	p, err := s.selector.Provider(infraRepo.WithTenant(ctx, tenantID))
	if err != nil {
		return info, nil
	}
	info.Storage = p.Kind().String()

	// records written while degraded are attached to the tenant now known
	if tenantID != nil {
		adopted, err := p.AdoptUntagged(ctx, *tenantID)
		if err != nil {
			s.log.Warn("adopting untagged records failed", zap.Error(err))
		}
		info.Adopted = adopted
		if adopted > 0 {
			s.engine.SchedulePush(ctx)
		}
	}
	return info, nil
}

// Logout wipes local business data and forgets the session. Queued deletes
// survive so they can still reach the server later.
func (s *DataService) Logout(ctx context.Context) error {
	s.engine.Wait()

	if p, err := s.selector.Provider(ctx); err == nil {
		if err := p.ClearAll(ctx); err != nil {
			return apperror.WrapWrite("clear local data", err)
		}
	}
	if err := s.blobs.Clear(ctx); err != nil {
		s.log.Warn("failed to clear cached blobs", zap.Error(err))
	}
	if err := s.tenants.Forget(ctx); err != nil {
		s.log.Warn("failed to clear tenant cache", zap.Error(err))
	}
	s.session.Clear()
	return s.selector.Reset(ctx)
}
