package enum

import (
	"database/sql/driver"
	"fmt"
)

// SaleStatus represents the payment status of a sale
type SaleStatus string

const (
	SaleStatusPending SaleStatus = "pending"
	SaleStatusPaid    SaleStatus = "paid"
)

func (s SaleStatus) String() string {
	return string(s)
}

func (s SaleStatus) IsValid() bool {
	return s == SaleStatusPending || s == SaleStatusPaid
}

func (s SaleStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *SaleStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = SaleStatusPending
	case string:
		*s = SaleStatus(v)
	case []byte:
		*s = SaleStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into SaleStatus", value)
	}
	return nil
}
