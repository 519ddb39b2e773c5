package entity

import (
	"time"

	"github.com/sangkips/posync/internal/domain/enum"
)

// FinancialTransaction is a revenue or expense entry
type FinancialTransaction struct {
	ID          string               `gorm:"primaryKey;type:text" json:"id"`
	Kind        enum.TransactionKind `gorm:"type:text;not null" json:"kind"`
	Description string               `json:"description"`
	Amount      float64              `gorm:"not null;default:0" json:"amount"`
	Date        time.Time            `gorm:"not null;index" json:"date"`
	Category    *string              `json:"category,omitempty"`
	TenantID    *string              `gorm:"index" json:"tenantId,omitempty"`
}

// TableName returns the table name for the FinancialTransaction model
func (FinancialTransaction) TableName() string {
	return "financial_transactions"
}

func (t FinancialTransaction) GetID() string        { return t.ID }
func (t FinancialTransaction) GetTenantID() *string { return t.TenantID }
