package entity

import "time"

// Client represents a customer of the establishment
type Client struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	TaxID     string    `json:"taxId"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;index" json:"updatedAt"`
	TenantID  *string   `gorm:"index" json:"tenantId,omitempty"`
}

// TableName returns the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

func (c Client) GetID() string        { return c.ID }
func (c Client) GetTenantID() *string { return c.TenantID }
