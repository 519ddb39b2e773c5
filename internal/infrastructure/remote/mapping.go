package remote

import (
	"sort"
	"strconv"

	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/enum"
	"github.com/sangkips/posync/pkg/utils"
)

func ToWireProduct(p entity.Product) ProductRow {
	return ProductRow{
		ID:              p.ID,
		Name:            p.Name,
		SellPrice:       p.SellPrice,
		CostPrice:       p.CostPrice,
		Category:        p.Category,
		Unit:            p.Unit,
		Quantity:        p.Quantity,
		ScanCode:        p.ScanCode,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		Image:           p.Image,
		EstablishmentID: p.TenantID,
	}
}

func FromWireProduct(r ProductRow) entity.Product {
	return entity.Product{
		ID:        r.ID,
		Name:      r.Name,
		SellPrice: r.SellPrice,
		CostPrice: r.CostPrice,
		Category:  r.Category,
		Unit:      r.Unit,
		Quantity:  r.Quantity,
		ScanCode:  r.ScanCode,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Image:     r.Image,
		TenantID:  r.EstablishmentID,
	}
}

func ToWireClient(c entity.Client) ClientRow {
	return ClientRow{
		ID:              c.ID,
		Name:            c.Name,
		Phone:           c.Phone,
		Address:         c.Address,
		TaxID:           c.TaxID,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		EstablishmentID: c.TenantID,
	}
}

func FromWireClient(r ClientRow) entity.Client {
	return entity.Client{
		ID:        r.ID,
		Name:      r.Name,
		Phone:     r.Phone,
		Address:   r.Address,
		TaxID:     r.TaxID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		TenantID:  r.EstablishmentID,
	}
}

// ItemID returns the wire id of the item at position in sale. A stored id
// that is a valid UUID is reused; anything else gets an id derived from the
// sale id and position, so the same sale always yields the same item ids.
func ItemID(saleID string, position int, stored string) string {
	if utils.IsValidUUID(stored) {
		return stored
	}
	return utils.DeriveID(saleID, strconv.Itoa(position))
}

// ToWireSale flattens a sale into its row and its item rows
func ToWireSale(s entity.Sale) (SaleRow, []SaleItemRow) {
	row := SaleRow{
		ID:                s.ID,
		HumanNumber:       s.HumanNumber,
		Date:              s.Date,
		DueDate:           s.DueDate,
		Total:             s.Total,
		Profit:            s.Profit,
		DocumentType:      s.DocumentType.String(),
		ClientID:          s.ClientID,
		ClientName:        s.ClientName,
		Observations:      s.Observations,
		ExternalReference: s.ExternalReference,
		PaymentMethod:     s.PaymentMethod,
		Status:            s.Status.String(),
		EstablishmentID:   s.TenantID,
	}

	items := make([]SaleItemRow, 0, len(s.Items))
	for i, item := range s.Items {
		items = append(items, SaleItemRow{
			ID:              ItemID(s.ID, i, item.ID),
			SaleID:          s.ID,
			Position:        i,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			UnitCost:        item.UnitCost,
			EstablishmentID: s.TenantID,
		})
	}
	return row, items
}

// FromWireSale composes a sale from its row and already grouped items
func FromWireSale(r SaleRow, items []entity.SaleItem) entity.Sale {
	if items == nil {
		items = []entity.SaleItem{}
	}
	return entity.Sale{
		ID:                r.ID,
		HumanNumber:       r.HumanNumber,
		Date:              r.Date,
		DueDate:           r.DueDate,
		Total:             r.Total,
		Profit:            r.Profit,
		DocumentType:      documentType(r.DocumentType),
		ClientID:          r.ClientID,
		ClientName:        r.ClientName,
		Items:             items,
		Observations:      r.Observations,
		ExternalReference: r.ExternalReference,
		PaymentMethod:     r.PaymentMethod,
		Status:            saleStatus(r.Status),
		TenantID:          r.EstablishmentID,
	}
}

// GroupSaleItems groups item rows by sale id, each group ordered by position
// and then by arrival
func GroupSaleItems(rows []SaleItemRow) map[string][]entity.SaleItem {
	bySale := map[string][]SaleItemRow{}
	for _, r := range rows {
		bySale[r.SaleID] = append(bySale[r.SaleID], r)
	}

	out := make(map[string][]entity.SaleItem, len(bySale))
	for saleID, group := range bySale {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Position < group[j].Position })
		items := make([]entity.SaleItem, 0, len(group))
		for _, r := range group {
			items = append(items, entity.SaleItem{
				ID:          r.ID,
				ProductID:   r.ProductID,
				ProductName: r.ProductName,
				Quantity:    r.Quantity,
				UnitPrice:   r.UnitPrice,
				UnitCost:    r.UnitCost,
			})
		}
		out[saleID] = items
	}
	return out
}

func ToWireTransaction(t entity.FinancialTransaction) TransactionRow {
	return TransactionRow{
		ID:              t.ID,
		Kind:            t.Kind.String(),
		Description:     t.Description,
		Amount:          t.Amount,
		Date:            t.Date,
		Category:        t.Category,
		EstablishmentID: t.TenantID,
	}
}

func FromWireTransaction(r TransactionRow) entity.FinancialTransaction {
	return entity.FinancialTransaction{
		ID:          r.ID,
		Kind:        enum.TransactionKind(r.Kind),
		Description: r.Description,
		Amount:      r.Amount,
		Date:        r.Date,
		Category:    r.Category,
		TenantID:    r.EstablishmentID,
	}
}

func ToWireEstablishment(e entity.Establishment) EstablishmentRow {
	return EstablishmentRow{
		ID:        e.ID,
		Name:      e.Name,
		TaxID:     e.TaxID,
		Phone:     e.Phone,
		Address:   e.Address,
		UpdatedAt: e.UpdatedAt,
	}
}

func FromWireEstablishment(r EstablishmentRow) entity.Establishment {
	return entity.Establishment{
		ID:        r.ID,
		Name:      r.Name,
		TaxID:     r.TaxID,
		Phone:     r.Phone,
		Address:   r.Address,
		UpdatedAt: r.UpdatedAt,
	}
}

func documentType(s string) enum.DocumentType {
	d := enum.DocumentType(s)
	if !d.IsValid() {
		return enum.DocumentTypeReceipt
	}
	return d
}

func saleStatus(s string) enum.SaleStatus {
	st := enum.SaleStatus(s)
	if !st.IsValid() {
		return enum.SaleStatusPending
	}
	return st
}
