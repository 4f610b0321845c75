package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appintegration "github.com/stocklink/backend/internal/application/integration"
	"github.com/stocklink/backend/internal/infrastructure/cache"
	"github.com/stocklink/backend/internal/infrastructure/config"
	"github.com/stocklink/backend/internal/infrastructure/ecommerce"
	"github.com/stocklink/backend/internal/infrastructure/logger"
	"github.com/stocklink/backend/internal/infrastructure/persistence"
	"github.com/stocklink/backend/internal/infrastructure/scheduler"
	"github.com/stocklink/backend/internal/interfaces/http/handler"
	"github.com/stocklink/backend/internal/interfaces/http/middleware"
	"github.com/stocklink/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting StockLink",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected")

	// Repositories
	connRepo := persistence.NewGormConnectionRepository(db.DB)
	mappingRepo := persistence.NewGormProductMappingRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)

	// Webhook dedup store: Redis when reachable, in-memory otherwise
	dedupFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	dedupStore, err := dedupFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := dedupStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// The adapter factory needs the registry to persist refreshed tokens and
	// the registry needs the factory to build adapters. The closure breaks
	// the cycle; registryService is assigned before any adapter can refresh
	// a token.
	var registryService *appintegration.ConnectionRegistryService
	adapterFactory := ecommerce.NewConnectionAdapterFactory(
		func(connectionID uuid.UUID, accessToken, refreshToken string, expiresAt time.Time) {
			if registryService == nil {
				return
			}
			if err := registryService.PersistTokens(context.Background(), connectionID, accessToken, refreshToken, expiresAt); err != nil {
				log.Error("Failed to persist refreshed tokens",
					zap.String("connection_id", connectionID.String()),
					zap.Error(err))
			}
		},
	)

	// Sync engine
	orchestratorCfg := appintegration.DefaultSyncOrchestratorConfig()
	if cfg.Sync.TokenRefreshWindow > 0 {
		orchestratorCfg.TokenRefreshWindow = cfg.Sync.TokenRefreshWindow
	}
	if cfg.Webhook.DedupTTL > 0 {
		orchestratorCfg.WebhookDedupTTL = cfg.Webhook.DedupTTL
	}
	orchestrator := appintegration.NewSyncOrchestrator(
		connRepo, mappingRepo, syncLogRepo, productRepo,
		adapterFactory, dedupStore, orchestratorCfg, log,
	)
	statusBroadcaster := appintegration.NewStatusBroadcaster(cfg.Sync.StatusThrottle, log)
	statusBroadcaster.Subscribe(appintegration.StatusObserverFunc(func(u appintegration.StatusUpdate) {
		log.Info("Sync status",
			zap.String("connection_id", u.ConnectionID.String()),
			zap.String("state", string(u.State)),
			zap.String("detail", u.Detail),
		)
	}))
	orchestrator.SetStatusBroadcaster(statusBroadcaster)

	schedulerCfg := scheduler.DefaultSyncSchedulerConfig()
	schedulerCfg.DefaultInterval = cfg.Sync.DefaultInterval
	syncScheduler, err := scheduler.NewSyncScheduler(schedulerCfg, orchestrator, log)
	if err != nil {
		log.Fatal("Failed to create sync scheduler", zap.Error(err))
	}

	// Application services
	registryService = appintegration.NewConnectionRegistryService(
		connRepo, mappingRepo, syncLogRepo, adapterFactory, syncScheduler, log)
	mappingService := appintegration.NewMappingService(
		connRepo, mappingRepo, productRepo, adapterFactory, log)

	var oauthManager *ecommerce.OAuthManager
	if cfg.OAuth.ClientID != "" {
		oauthManager, err = ecommerce.NewOAuthManager(&ecommerce.OAuthAppConfig{
			AuthorizeEndpoint: cfg.OAuth.AuthorizeEndpoint,
			TokenEndpoint:     cfg.OAuth.TokenEndpoint,
			ClientID:          cfg.OAuth.ClientID,
			ClientSecret:      cfg.OAuth.ClientSecret,
			RedirectURI:       cfg.OAuth.RedirectURI,
			Scopes:            cfg.OAuth.Scopes,
		})
		if err != nil {
			log.Fatal("Failed to configure OAuth", zap.Error(err))
		}
	}

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log, "/api/v1/ping", "/healthz"),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.CORSWithConfig(middleware.DefaultCORSConfig()),
	)
	engine.GET("/healthz", healthHandler(db))

	webhookLimiter := middleware.NewRateLimiter(120, time.Minute)

	r := router.NewRouter(engine)
	r.Register(handler.NewSystemHandler(version))
	r.Register(handler.NewConnectionHandler(registryService))
	r.Register(handler.NewMappingHandler(mappingService))
	r.Register(handler.NewSyncHandler(orchestrator))
	r.Register(handler.NewWebhookHandler(orchestrator, middleware.RateLimit(webhookLimiter)))
	if oauthManager != nil {
		r.Register(handler.NewOAuthHandler(oauthManager, registryService))
	}
	r.Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := syncScheduler.Start(rootCtx); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}
	if err := registryService.ScheduleAll(rootCtx); err != nil {
		log.Error("Failed to schedule existing connections", zap.Error(err))
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	cancel()
	if err := syncScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Sync scheduler shutdown error", zap.Error(err))
	}

	log.Info("Shutdown complete")
}

// healthHandler answers liveness probes with a database round-trip
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "ok",
		})
	}
}
