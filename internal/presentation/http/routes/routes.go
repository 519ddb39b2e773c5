package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sangkips/posync/internal/config"
	"github.com/sangkips/posync/internal/metrics"
	"github.com/sangkips/posync/internal/presentation/http/handler"
	"github.com/sangkips/posync/internal/presentation/http/middleware"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Session       *handler.SessionHandler
	Product       *handler.ProductHandler
	Client        *handler.ClientHandler
	Sale          *handler.SaleHandler
	Establishment *handler.EstablishmentHandler
	Sync          *handler.SyncHandler
	Blob          *handler.BlobHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg      *config.Config
	Log      *zap.Logger
	Identity middleware.Identity
	Tenants  middleware.TenantSource
	Metrics  *metrics.Sync
	Gatherer prometheus.Gatherer
	// Health reports the selected storage backend
	Health func() gin.H
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.MetricsMiddleware(deps.Metrics))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		}
		if deps.Health != nil {
			for k, v := range deps.Health() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/session", h.Session.Start)

		// everything below runs with the signed-in user's tenant, or
		// degraded when there is none
		scoped := v1.Group("")
		scoped.Use(middleware.SessionMiddleware(deps.Identity))
		scoped.Use(middleware.TenantMiddleware(deps.Tenants))

		scoped.DELETE("/session", h.Session.End)
		registerDataRoutes(scoped, h)
		registerSyncRoutes(scoped, h)
	}

	return router
}

func registerDataRoutes(rg *gin.RouterGroup, h *Handlers) {
	products := rg.Group("/products")
	{
		products.GET("", h.Product.List)
		products.PUT("", h.Product.Save)
		products.DELETE("/:id", h.Product.Delete)
	}

	clients := rg.Group("/clients")
	{
		clients.GET("", h.Client.List)
		clients.PUT("", h.Client.Save)
		clients.DELETE("/:id", h.Client.Delete)
	}

	sales := rg.Group("/sales")
	{
		sales.GET("", h.Sale.List)
		sales.POST("", h.Sale.Record)
	}

	transactions := rg.Group("/transactions")
	{
		transactions.GET("", h.Sale.ListTransactions)
		transactions.POST("", h.Sale.RecordTransaction)
	}

	rg.GET("/establishment", h.Establishment.Get)
	rg.PUT("/establishment", middleware.RequireTenant(), h.Establishment.Save)

	blobs := rg.Group("/blobs")
	{
		blobs.GET("/:name", h.Blob.Get)
		blobs.PUT("/:name", h.Blob.Put)
	}
}

func registerSyncRoutes(rg *gin.RouterGroup, h *Handlers) {
	sync := rg.Group("/sync")
	sync.Use(middleware.RequireSession())
	sync.Use(middleware.NewTenantRateLimiter(middleware.DefaultRateLimiterConfig()).Middleware())
	{
		sync.POST("", h.Sync.Sync)
		sync.POST("/push", h.Sync.Push)
		sync.POST("/pull", h.Sync.Pull)
		sync.GET("/pending-deletes", h.Sync.PendingDeletes)
		sync.POST("/pending-deletes/replay", h.Sync.ReplayDeletes)
	}
}
