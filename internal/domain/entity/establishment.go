package entity

import "time"

// Establishment is the tenant's own profile. Its ID is the tenant id, so
// there is exactly one per tenant.
type Establishment struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	TaxID     *string   `json:"taxId,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// TableName returns the table name for the Establishment model
func (Establishment) TableName() string {
	return "establishments"
}

func (e Establishment) GetID() string { return e.ID }

// GetTenantID returns the establishment id, which doubles as the tenant id
func (e Establishment) GetTenantID() *string {
	id := e.ID
	return &id
}
