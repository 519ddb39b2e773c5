package repository

import (
	"context"

	"github.com/sangkips/posync/pkg/apperror"
	"gorm.io/gorm"
)

type ctxKey string

// TenantIDKey is the context key for tenant ID
const TenantIDKey ctxKey = "tenant_id"

const localOnlyKey ctxKey = "local_only"

// LocalOnly marks ctx so reads return the device copy as is, without
// reconciling with the remote store first.
func LocalOnly(ctx context.Context) context.Context {
	return context.WithValue(ctx, localOnlyKey, true)
}

// IsLocalOnly reports whether ctx was marked with LocalOnly
func IsLocalOnly(ctx context.Context) bool {
	v, _ := ctx.Value(localOnlyKey).(bool)
	return v
}

// TenantScope returns a GORM scope that filters by tenant.
// Without a tenant in context only untagged rows are visible, so a degraded
// session can never read another tenant's data.
func TenantScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		tenantID, ok := GetTenantID(ctx)
		if !ok {
			return db.Where("tenant_id IS NULL")
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}

// WithTenant adds tenant ID to context. A nil tenant leaves the context in
// degraded mode.
func WithTenant(ctx context.Context, tenantID *string) context.Context {
	if tenantID == nil || *tenantID == "" {
		return context.WithValue(ctx, TenantIDKey, "")
	}
	return context.WithValue(ctx, TenantIDKey, *tenantID)
}

// GetTenantID extracts tenant ID from context
func GetTenantID(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(string)
	return tenantID, ok && tenantID != ""
}

// Visible reports whether a row tagged with rowTenant may be returned to ctx
func Visible(ctx context.Context, rowTenant *string) bool {
	tenantID, ok := GetTenantID(ctx)
	if !ok {
		return rowTenant == nil
	}
	return rowTenant != nil && *rowTenant == tenantID
}

// AssignTenant checks an entity's tenant against ctx before a write. An
// untagged entity is tagged with the context tenant.
func AssignTenant(ctx context.Context, entityTenant **string) error {
	tenantID, ok := GetTenantID(ctx)
	if *entityTenant == nil {
		if ok {
			id := tenantID
			*entityTenant = &id
		}
		return nil
	}
	if !ok || **entityTenant != tenantID {
		return apperror.ErrTenantMismatch
	}
	return nil
}
