package remote

import (
	"context"

	"github.com/sangkips/posync/internal/domain/entity"
	domainRepo "github.com/sangkips/posync/internal/domain/repository"
)

type reader struct {
	client *Client
}

// NewReader exposes full-table pulls as a repository.RemoteReader, used by
// the key-value backend to reconcile on read.
func NewReader(client *Client) domainRepo.RemoteReader {
	return &reader{client: client}
}

func (r *reader) pull(ctx context.Context, tables ...string) (*ChangeSet, error) {
	resp, err := r.client.Pull(ctx, PullRequest{Tables: tables})
	if err != nil {
		return nil, err
	}
	return &resp.Changes, nil
}

func (r *reader) FetchProducts(ctx context.Context) ([]entity.Product, error) {
	changes, err := r.pull(ctx, TableProducts)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Product, 0, len(changes.Products))
	for _, row := range changes.Products {
		out = append(out, FromWireProduct(row))
	}
	return out, nil
}

func (r *reader) FetchClients(ctx context.Context) ([]entity.Client, error) {
	changes, err := r.pull(ctx, TableClients)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Client, 0, len(changes.Clients))
	for _, row := range changes.Clients {
		out = append(out, FromWireClient(row))
	}
	return out, nil
}

func (r *reader) FetchSales(ctx context.Context) ([]entity.Sale, error) {
	changes, err := r.pull(ctx, TableSales, TableSaleItems)
	if err != nil {
		return nil, err
	}
	items := GroupSaleItems(changes.SaleItems)
	out := make([]entity.Sale, 0, len(changes.Sales))
	for _, row := range changes.Sales {
		out = append(out, FromWireSale(row, items[row.ID]))
	}
	return out, nil
}

func (r *reader) FetchTransactions(ctx context.Context) ([]entity.FinancialTransaction, error) {
	changes, err := r.pull(ctx, TableTransactions)
	if err != nil {
		return nil, err
	}
	out := make([]entity.FinancialTransaction, 0, len(changes.FinancialTransactions))
	for _, row := range changes.FinancialTransactions {
		out = append(out, FromWireTransaction(row))
	}
	return out, nil
}
