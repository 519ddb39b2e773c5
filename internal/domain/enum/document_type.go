package enum

import (
	"database/sql/driver"
	"fmt"
)

// DocumentType is the fiscal document a sale was issued as
type DocumentType string

const (
	DocumentTypeReceipt        DocumentType = "receipt"
	DocumentTypeInvoice        DocumentType = "invoice"
	DocumentTypeInvoiceReceipt DocumentType = "invoice-receipt"
)

func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether d is one of the known document types
func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentTypeReceipt, DocumentTypeInvoice, DocumentTypeInvoiceReceipt:
		return true
	}
	return false
}

func (d DocumentType) Value() (driver.Value, error) {
	return string(d), nil
}

func (d *DocumentType) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = DocumentTypeReceipt
	case string:
		*d = DocumentType(v)
	case []byte:
		*d = DocumentType(v)
	default:
		return fmt.Errorf("cannot scan %T into DocumentType", value)
	}
	return nil
}
