package repository

import (
	"context"

	"github.com/sangkips/posync/internal/domain/entity"
)

// RemoteReader fetches whole tables from the authoritative store. The server
// enforces tenant isolation for the credential in use.
type RemoteReader interface {
	FetchProducts(ctx context.Context) ([]entity.Product, error)
	FetchClients(ctx context.Context) ([]entity.Client, error)
	FetchSales(ctx context.Context) ([]entity.Sale, error)
	FetchTransactions(ctx context.Context) ([]entity.FinancialTransaction, error)
}
