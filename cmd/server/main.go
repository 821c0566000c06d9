package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appmenu "github.com/kaely/console/internal/application/menu"
	appsession "github.com/kaely/console/internal/application/session"
	"github.com/kaely/console/internal/domain/tenant"
	"github.com/kaely/console/internal/infrastructure/cache"
	"github.com/kaely/console/internal/infrastructure/config"
	"github.com/kaely/console/internal/infrastructure/logger"
	"github.com/kaely/console/internal/infrastructure/persistence"
	"github.com/kaely/console/internal/infrastructure/telemetry"
	"github.com/kaely/console/internal/infrastructure/upstream"
	"github.com/kaely/console/internal/interfaces/http/handler"
	"github.com/kaely/console/internal/interfaces/http/middleware"
	"github.com/kaely/console/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting console gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tenant registry: the built-in properties unless the config overrides them
	registry := tenant.NewRegistry(cfg.Tenants.Properties, cfg.Tenants.Default)
	log.Info("Tenant registry loaded",
		zap.Strings("tenants", registry.Slugs()),
		zap.String("default", registry.DefaultSlug()))

	// Telemetry (no-op provider when disabled)
	ctx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	// Durable store for sessions and the L3 menu cache tier
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Menu cache tiers. Redis is optional: without it the gateway still
	// serves from the in-memory and durable tiers.
	l1 := cache.NewInMemoryMenuCache(cache.WithInMemoryLogger(log))
	defer func() { _ = l1.Close() }()

	var l2 *cache.RedisMenuCache
	redisCache, err := cache.NewRedisMenuCache(cfg.Redis, cache.WithRedisLogger(log))
	if err != nil {
		log.Warn("Redis unavailable, menu cache runs without the shared tier",
			zap.Error(err))
	} else {
		l2 = redisCache
		defer func() { _ = l2.Close() }()
		log.Info("Redis connected")
	}

	l3 := persistence.NewGormMenuCacheRepository(db.DB)
	menuCache := cache.NewTieredMenuCache(l1, l2, l3, cache.WithTieredLogger(log))

	// Per-tenant upstream clients. The 401 hook clears the session whose
	// request saw the rejection; the hook closes over the service variable
	// because the service itself needs the client set.
	var sessions *appsession.Service
	clients := upstream.NewClientSet(registry, cfg.Upstream.Timeout,
		upstream.WithLogger(log),
		upstream.WithUnauthorizedHook(func(ctx context.Context) {
			sid := logger.GetSessionID(ctx)
			if sid == "" || sessions == nil {
				return
			}
			if id, err := uuid.Parse(sid); err == nil {
				sessions.Invalidate(ctx, id)
			}
		}),
	)

	sessionRepo := persistence.NewGormSessionRepository(db.DB)
	sessions = appsession.NewService(sessionRepo, clients, log)

	engine := appmenu.NewEngine(menuCache, clients, sessions,
		appmenu.WithTTL(cfg.MenuCache.TTL),
		appmenu.WithRetries(cfg.Upstream.MenuRetries, cfg.Upstream.MenuRetryWait),
		appmenu.WithLogger(log),
	)

	// Prune sessions that outlived their TTL and expired durable menu rows
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go storeJanitor(janitorCtx, sessionRepo, l3, cfg.Session.TTL, log)

	middleware.SetupValidator()

	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(sessions, engine, log),
		Menu:       handler.NewMenuHandler(engine, menuCache),
		Tenant:     handler.NewTenantHandler(registry),
		Module:     handler.NewModuleHandler(clients),
		Role:       handler.NewRoleHandler(clients),
		Permission: handler.NewPermissionHandler(clients),
		RateRule:   handler.NewRateRuleHandler(clients, log),
		Health:     handler.NewHealthHandler(db, healthCache(l2), version),
	}

	ginEngine := router.New(router.Config{
		Logger:           log,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
		Session: middleware.SessionConfig{
			CookieName:   cfg.Session.CookieName,
			CookieDomain: cfg.Session.CookieDomain,
			CookieSecure: cfg.Session.CookieSecure,
			CookieMaxAge: int(cfg.Session.TTL.Seconds()),
		},
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		StaticDir:             cfg.HTTP.StaticDir,
		RequestsPerMinute:     cfg.HTTP.RequestsPerMinute,
		AuthRequestsPerMinute: cfg.HTTP.AuthRequestsPerMinute,
	}, handlers, sessions)

	// The tenant rewriter fronts gin so tenant resolution and the path
	// rewrite happen before route matching.
	gateway := middleware.NewTenantRewriter(registry, ginEngine, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        gateway,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// storeJanitor removes sessions whose last activity predates the TTL and
// expired menu cache rows. Without the latter, rows for users who never
// come back would only be purged by a read of their exact key.
func storeJanitor(ctx context.Context, sessions *persistence.GormSessionRepository, menus *persistence.GormMenuCacheRepository, ttl time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-ttl)
			removed, err := sessions.DeleteStale(ctx, cutoff)
			if err != nil {
				log.Warn("Session cleanup failed", zap.Error(err))
			} else if removed > 0 {
				log.Info("Stale sessions removed", zap.Int64("count", removed))
			}

			purged, err := menus.DeleteExpired(ctx)
			if err != nil {
				log.Warn("Menu cache cleanup failed", zap.Error(err))
			} else if purged > 0 {
				log.Info("Expired menu cache rows removed", zap.Int64("count", purged))
			}
		}
	}
}

// healthCache avoids handing the health handler a typed nil when Redis is
// not configured.
func healthCache(l2 *cache.RedisMenuCache) handler.ContextPinger {
	if l2 == nil {
		return nil
	}
	return l2
}
