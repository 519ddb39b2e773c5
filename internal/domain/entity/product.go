package entity

import "time"

// Product represents a sellable item kept in the device's local store.
// Quantity is never clamped here; callers must not submit negative values.
type Product struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	SellPrice float64   `gorm:"not null;default:0" json:"sellPrice"`
	CostPrice float64   `gorm:"not null;default:0" json:"costPrice"`
	Category  string    `json:"category"`
	Unit      *string   `json:"unit,omitempty"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	ScanCode  string    `gorm:"index" json:"scanCode"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;index" json:"updatedAt"`
	Image     *string   `json:"image,omitempty"`
	TenantID  *string   `gorm:"index" json:"tenantId,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

func (p Product) GetID() string        { return p.ID }
func (p Product) GetTenantID() *string { return p.TenantID }
