package entity

import (
	"time"

	"github.com/sangkips/posync/internal/domain/enum"
	"github.com/sangkips/posync/pkg/utils"
)

// Sale is a completed or pending sale. Items are owned by the sale and always
// travel embedded in it.
type Sale struct {
	ID                string            `gorm:"primaryKey;type:text" json:"id"`
	HumanNumber       *string           `json:"humanNumber,omitempty"`
	Date              time.Time         `gorm:"not null;index" json:"date"`
	DueDate           *time.Time        `json:"dueDate,omitempty"`
	Total             float64           `gorm:"not null;default:0" json:"total"`
	Profit            *float64          `json:"profit,omitempty"`
	DocumentType      enum.DocumentType `gorm:"type:text;not null" json:"documentType"`
	ClientID          *string           `json:"clientId,omitempty"`
	ClientName        *string           `json:"clientName,omitempty"`
	Items             []SaleItem        `gorm:"-" json:"items"`
	Observations      *string           `json:"observations,omitempty"`
	ExternalReference *string           `json:"externalReference,omitempty"`
	PaymentMethod     *string           `json:"paymentMethod,omitempty"`
	Status            enum.SaleStatus   `gorm:"type:text;not null" json:"status"`
	TenantID          *string           `gorm:"index" json:"tenantId,omitempty"`
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

func (s Sale) GetID() string        { return s.ID }
func (s Sale) GetTenantID() *string { return s.TenantID }

// EnsureItemIDs gives every item without a usable id a fresh one. Items
// that already carry a valid id keep it.
func (s *Sale) EnsureItemIDs() {
	seen := make(map[string]bool, len(s.Items))
	for i := range s.Items {
		id := s.Items[i].ID
		if !utils.IsValidUUID(id) || seen[id] {
			id = utils.NewID()
			s.Items[i].ID = id
		}
		seen[id] = true
	}
}

// SaleItem is one line of a sale. ID is assigned once, when the sale is first
// written, and never regenerated afterwards.
type SaleItem struct {
	ID          string  `json:"id,omitempty"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	UnitCost    float64 `json:"unitCost"`
}

func (i SaleItem) GetID() string { return i.ID }

// SaleItemRecord is the relational row backing a SaleItem
type SaleItemRecord struct {
	ID          string  `gorm:"primaryKey;type:text"`
	SaleID      string  `gorm:"not null;index"`
	Position    int     `gorm:"not null;default:0"`
	ProductID   string  `gorm:"not null"`
	ProductName string  `gorm:"not null"`
	Quantity    int     `gorm:"not null;default:0"`
	UnitPrice   float64 `gorm:"not null;default:0"`
	UnitCost    float64 `gorm:"not null;default:0"`
	TenantID    *string `gorm:"index"`
}

// TableName returns the table name for the SaleItemRecord model
func (SaleItemRecord) TableName() string {
	return "sale_items"
}
