package request

import (
	"time"

	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/internal/domain/enum"
)

// RecordSaleRequest represents a sale with its items
type RecordSaleRequest struct {
	ID                string            `json:"id" validate:"omitempty,max=64"`
	HumanNumber       *string           `json:"humanNumber"`
	Date              *time.Time        `json:"date"`
	DueDate           *time.Time        `json:"dueDate"`
	Total             float64           `json:"total" validate:"min=0"`
	Profit            *float64          `json:"profit"`
	DocumentType      string            `json:"documentType" validate:"required,document_type"`
	ClientID          *string           `json:"clientId"`
	ClientName        *string           `json:"clientName"`
	Items             []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	Observations      *string           `json:"observations"`
	ExternalReference *string           `json:"externalReference"`
	PaymentMethod     *string           `json:"paymentMethod"`
	Status            string            `json:"status" validate:"required,sale_status"`
}

// SaleItemRequest represents one line of a sale
type SaleItemRequest struct {
	ID          string  `json:"id" validate:"omitempty,syncid"`
	ProductID   string  `json:"productId" validate:"required"`
	ProductName string  `json:"productName" validate:"required"`
	Quantity    int     `json:"quantity" validate:"min=1"`
	UnitPrice   float64 `json:"unitPrice" validate:"min=0"`
	UnitCost    float64 `json:"unitCost" validate:"min=0"`
}

func (r *RecordSaleRequest) ToEntity() *entity.Sale {
	s := &entity.Sale{
		ID:                r.ID,
		HumanNumber:       r.HumanNumber,
		DueDate:           r.DueDate,
		Total:             r.Total,
		Profit:            r.Profit,
		DocumentType:      enum.DocumentType(r.DocumentType),
		ClientID:          r.ClientID,
		ClientName:        r.ClientName,
		Observations:      r.Observations,
		ExternalReference: r.ExternalReference,
		PaymentMethod:     r.PaymentMethod,
		Status:            enum.SaleStatus(r.Status),
	}
	if r.Date != nil {
		s.Date = *r.Date
	}
	s.Items = make([]entity.SaleItem, 0, len(r.Items))
	for _, item := range r.Items {
		s.Items = append(s.Items, entity.SaleItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			UnitCost:    item.UnitCost,
		})
	}
	return s
}

// RecordTransactionRequest represents a revenue or expense entry
type RecordTransactionRequest struct {
	ID          string     `json:"id" validate:"omitempty,max=64"`
	Kind        string     `json:"kind" validate:"required,transaction_kind"`
	Description string     `json:"description" validate:"max=255"`
	Amount      float64    `json:"amount" validate:"min=0"`
	Date        *time.Time `json:"date"`
	Category    *string    `json:"category"`
}

func (r *RecordTransactionRequest) ToEntity() *entity.FinancialTransaction {
	t := &entity.FinancialTransaction{
		ID:          r.ID,
		Kind:        enum.TransactionKind(r.Kind),
		Description: r.Description,
		Amount:      r.Amount,
		Category:    r.Category,
	}
	if r.Date != nil {
		t.Date = *r.Date
	}
	return t
}

// SaveEstablishmentRequest updates the active tenant's establishment
type SaveEstablishmentRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	TaxID   *string `json:"taxId"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// ToEntity builds the establishment of tenantID
func (r *SaveEstablishmentRequest) ToEntity(tenantID string) *entity.Establishment {
	return &entity.Establishment{
		ID:      tenantID,
		Name:    r.Name,
		TaxID:   r.TaxID,
		Phone:   r.Phone,
		Address: r.Address,
	}
}
