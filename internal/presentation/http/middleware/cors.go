package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/posync/internal/config"
)

// Origins the UI shell serves its webview from when none are configured
var defaultUIOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// Headers the UI reads back: request correlation, the tenant the daemon
// answered for, and the /sync throttle state.
var exposedHeaders = []string{
	"Content-Length",
	"Content-Type",
	"X-Request-ID",
	"X-Tenant-ID",
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"Retry-After",
}

// CORSMiddleware lets the UI webview call the local daemon. The bearer
// token is handed over once through POST /session and kept by the daemon,
// so cookies are never needed.
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  cfg.AllowedMethods,
		AllowHeaders:  cfg.AllowedHeaders,
		ExposeHeaders: exposedHeaders,
		MaxAge:        time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = defaultUIOrigins
	}
	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(corsConfig.AllowHeaders) == 0 {
		corsConfig.AllowHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}
	}
	return cors.New(corsConfig)
}
