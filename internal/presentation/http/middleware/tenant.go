package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	infraRepo "github.com/sangkips/posync/internal/infrastructure/repository"
	"github.com/sangkips/posync/internal/presentation/http/dto/response"
	"github.com/sangkips/posync/pkg/logger"
	"go.uber.org/zap"
)

// TenantSource attaches the active tenant to a context
type TenantSource interface {
	WithTenant(ctx context.Context) context.Context
}

// TenantMiddleware resolves the signed-in user's tenant and adds it to the
// request context. Requests without a tenant continue in degraded mode.
func TenantMiddleware(tenants TenantSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := tenants.WithTenant(c.Request.Context())
		tenantID, ok := infraRepo.GetTenantID(ctx)
		if ok {
			c.Set("tenant_id", tenantID)
			c.Header("X-Tenant-ID", tenantID)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("tenant_id", tenantID)))
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireTenant rejects requests made in degraded mode
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetTenantID(c) == "" {
			response.Forbidden(c, "No establishment is linked to this session")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetTenantID retrieves the tenant ID from gin context
func GetTenantID(c *gin.Context) string {
	tenantID, exists := c.Get("tenant_id")
	if !exists {
		return ""
	}
	id, _ := tenantID.(string)
	return id
}
