package enum

import (
	"database/sql/driver"
	"fmt"
)

// TransactionKind tells revenue from expense entries
type TransactionKind string

const (
	TransactionKindRevenue TransactionKind = "revenue"
	TransactionKindExpense TransactionKind = "expense"
)

func (k TransactionKind) String() string {
	return string(k)
}

func (k TransactionKind) IsValid() bool {
	return k == TransactionKindRevenue || k == TransactionKindExpense
}

func (k TransactionKind) Value() (driver.Value, error) {
	return string(k), nil
}

func (k *TransactionKind) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*k = TransactionKind(v)
	case []byte:
		*k = TransactionKind(v)
	default:
		return fmt.Errorf("cannot scan %T into TransactionKind", value)
	}
	return nil
}
