package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sangkips/posync/internal/application/service"
	"github.com/sangkips/posync/internal/config"
	"github.com/sangkips/posync/internal/infrastructure/kvstore"
	"github.com/sangkips/posync/internal/infrastructure/remote"
	"github.com/sangkips/posync/internal/infrastructure/repository"
	"github.com/sangkips/posync/internal/metrics"
	"github.com/sangkips/posync/internal/presentation/http/handler"
	"github.com/sangkips/posync/internal/presentation/http/routes"
	"github.com/sangkips/posync/pkg/logger"
	"github.com/sangkips/posync/pkg/oauth"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	zlog, err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.App.Env,
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o700); err != nil {
		zlog.Fatal("Failed to create data directory", zap.String("dir", cfg.Storage.DataDir), zap.Error(err))
	}

	// The key-value store backs the fallback provider, the delete queue and
	// the session caches, so the daemon cannot run without it
	store, err := kvstore.Open(cfg.Storage.KVPath())
	if err != nil {
		zlog.Fatal("Failed to open key-value store", zap.String("path", cfg.Storage.KVPath()), zap.Error(err))
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, "posync")

	session := oauth.NewSession()
	client := remote.NewClient(&cfg.Remote, session, m, zlog)
	if !client.Configured() {
		zlog.Warn("REMOTE_BASE_URL not set, running local-only")
	}

	selector := service.NewStorageSelector(
		repository.RelationalFactory{
			Enabled: cfg.Storage.EmbeddedEnabled,
			Path:    cfg.Storage.SQLitePath(),
			Log:     zlog,
		},
		repository.KeyValueFactory{
			Store: store,
			Options: repository.KeyValueOptions{
				Remote:           remote.NewReader(client),
				ReconcileOnRead:  cfg.Sync.ReconcileOnRead,
				ReconcileTimeout: cfg.Sync.ReconcileTimeout,
			},
			Log: zlog,
		},
		cfg.Storage.InitTimeout,
		m,
		zlog,
	)
	tenants := service.NewTenantResolver(session, client, store, zlog)
	queue := repository.NewDeleteQueue(store)
	engine := service.NewSyncEngine(service.SyncEngineConfig{
		Providers:   selector,
		Remote:      client,
		Tenants:     tenants,
		Queue:       queue,
		Store:       store,
		SettleDelay: cfg.Sync.SettleDelay,
		Metrics:     m,
		Log:         zlog,
	})
	dataService := service.NewDataService(selector, tenants, engine, queue, repository.NewBlobCache(store), session, zlog)

	// Initialize handlers
	handlers := &routes.Handlers{
		Session:       handler.NewSessionHandler(dataService),
		Product:       handler.NewProductHandler(dataService),
		Client:        handler.NewClientHandler(dataService),
		Sale:          handler.NewSaleHandler(dataService),
		Establishment: handler.NewEstablishmentHandler(dataService),
		Sync:          handler.NewSyncHandler(engine, dataService),
		Blob:          handler.NewBlobHandler(dataService),
	}

	router := routes.Setup(handlers, &routes.Deps{
		Cfg:      cfg,
		Log:      zlog,
		Identity: session,
		Tenants:  tenants,
		Metrics:  m,
		Gatherer: reg,
		Health: func() gin.H {
			return gin.H{"storage": string(selector.State()), "remote": client.Configured()}
		},
	})

	srv := &http.Server{
		Addr:              cfg.App.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zlog.Info("Starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("Server shutdown failed", zap.Error(err))
	}

	// let scheduled pushes finish before the stores close
	engine.Wait()
	if err := selector.Reset(shutdownCtx); err != nil {
		zlog.Warn("Failed to close local storage", zap.Error(err))
	}
}
