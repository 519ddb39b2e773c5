package entity

import (
	"testing"

	"github.com/sangkips/posync/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestSale_EnsureItemIDs(t *testing.T) {
	kept := utils.NewID()
	sale := Sale{
		ID: utils.NewID(),
		Items: []SaleItem{
			{ID: kept, ProductName: "Coffee"},
			{ProductName: "Tea"},
			{ID: "legacy-1", ProductName: "Milk"},
			{ID: kept, ProductName: "Sugar"},
		},
	}

	sale.EnsureItemIDs()

	assert.Equal(t, kept, sale.Items[0].ID)
	seen := map[string]bool{}
	for _, item := range sale.Items {
		assert.True(t, utils.IsValidUUIDv4(item.ID), item.ProductName)
		assert.False(t, seen[item.ID], "duplicate id for %s", item.ProductName)
		seen[item.ID] = true
	}

	before := append([]SaleItem(nil), sale.Items...)
	sale.EnsureItemIDs()
	assert.Equal(t, before, sale.Items, "ids are never regenerated")
}

func TestSameTenant(t *testing.T) {
	a, b := "t1", "t2"
	assert.True(t, SameTenant(nil, nil))
	assert.True(t, SameTenant(&a, &a))
	assert.False(t, SameTenant(&a, &b))
	assert.False(t, SameTenant(&a, nil))
}
