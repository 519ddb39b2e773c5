package request

import (
	"time"

	"github.com/sangkips/posync/internal/domain/entity"
)

// SaveClientRequest creates a client, or replaces it when ID is known
type SaveClientRequest struct {
	ID        string     `json:"id" validate:"omitempty,max=64"`
	Name      string     `json:"name" validate:"required,max=255"`
	Phone     string     `json:"phone" validate:"max=30"`
	Address   string     `json:"address" validate:"max=255"`
	TaxID     string     `json:"taxId" validate:"max=30"`
	CreatedAt *time.Time `json:"createdAt"`
}

func (r *SaveClientRequest) ToEntity() *entity.Client {
	c := &entity.Client{
		ID:      r.ID,
		Name:    r.Name,
		Phone:   r.Phone,
		Address: r.Address,
		TaxID:   r.TaxID,
	}
	if r.CreatedAt != nil {
		c.CreatedAt = *r.CreatedAt
	}
	return c
}
