package repository

import (
	"context"

	"github.com/sangkips/posync/internal/domain/entity"
)

// ProviderKind names a local storage backend
type ProviderKind string

const (
	ProviderKeyValue   ProviderKind = "keyvalue"
	ProviderRelational ProviderKind = "relational"
)

func (k ProviderKind) String() string {
	return string(k)
}

// StorageProvider is the device-local store the rest of the core reads from
// and writes to. The active tenant travels in the context; reads only ever
// return rows of that tenant, or untagged rows when no tenant is resolved.
//
// Reads never fail: an unreadable store yields an empty collection. Reads
// may reconcile with the remote store unless the context is marked local
// only; reconciliation only adds rows the device does not have.
// Writes return their error and must not be retried silently.
type StorageProvider interface {
	Init(ctx context.Context) error
	Close() error
	Kind() ProviderKind

	// GetProducts returns products, newest updatedAt first
	GetProducts(ctx context.Context) []entity.Product
	// GetClients returns clients, newest updatedAt first
	GetClients(ctx context.Context) []entity.Client
	// GetSales returns sales with their items, newest date first
	GetSales(ctx context.Context) []entity.Sale
	// GetTransactions returns financial transactions, newest date first
	GetTransactions(ctx context.Context) []entity.FinancialTransaction

	UpsertProduct(ctx context.Context, product *entity.Product) error
	UpsertClient(ctx context.Context, client *entity.Client) error
	DeleteProduct(ctx context.Context, id string) error
	DeleteClient(ctx context.Context, id string) error
	// AddSale writes a sale and its items atomically, replacing any previous
	// version with the same id.
	AddSale(ctx context.Context, sale *entity.Sale) error
	AddTransaction(ctx context.Context, tx *entity.FinancialTransaction) error

	GetEstablishment(ctx context.Context) *entity.Establishment
	UpsertEstablishment(ctx context.Context, establishment *entity.Establishment) error

	// PurgeForeignTenants removes every tagged row that belongs to a tenant
	// other than tenantID and returns how many rows were removed.
	PurgeForeignTenants(ctx context.Context, tenantID string) (int, error)
	// AdoptUntagged tags every row written without a tenant with tenantID
	// and returns how many rows were tagged.
	AdoptUntagged(ctx context.Context, tenantID string) (int, error)
	// ClearAll wipes all locally cached business data
	ClearAll(ctx context.Context) error
}

// ProviderFactory builds a provider. Available reports whether the backend
// can run on this device at all.
type ProviderFactory interface {
	Available() bool
	New() StorageProvider
}
