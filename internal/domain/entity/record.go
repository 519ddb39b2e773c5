package entity

// Record is implemented by every tenant-scoped entity the sync core stores.
type Record interface {
	GetID() string
	GetTenantID() *string
}

// SameTenant reports whether two optional tenant ids are equal.
func SameTenant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
