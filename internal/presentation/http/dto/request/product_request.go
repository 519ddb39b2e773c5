package request

import (
	"time"

	"github.com/sangkips/posync/internal/domain/entity"
)

// SaveProductRequest creates a product, or replaces it when ID is known
type SaveProductRequest struct {
	ID        string     `json:"id" validate:"omitempty,max=64"`
	Name      string     `json:"name" validate:"required,max=255"`
	SellPrice float64    `json:"sellPrice" validate:"min=0"`
	CostPrice float64    `json:"costPrice" validate:"min=0"`
	Category  string     `json:"category" validate:"max=100"`
	Unit      *string    `json:"unit" validate:"omitempty,max=20"`
	Quantity  int        `json:"quantity" validate:"min=0"`
	ScanCode  string     `json:"scanCode" validate:"max=100"`
	Image     *string    `json:"image"`
	CreatedAt *time.Time `json:"createdAt"`
}

func (r *SaveProductRequest) ToEntity() *entity.Product {
	p := &entity.Product{
		ID:        r.ID,
		Name:      r.Name,
		SellPrice: r.SellPrice,
		CostPrice: r.CostPrice,
		Category:  r.Category,
		Unit:      r.Unit,
		Quantity:  r.Quantity,
		ScanCode:  r.ScanCode,
		Image:     r.Image,
	}
	if r.CreatedAt != nil {
		p.CreatedAt = *r.CreatedAt
	}
	return p
}
