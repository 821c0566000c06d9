// Package router assembles the gateway's HTTP surface: the middleware
// chain, the per-tenant route tree and the infrastructure endpoints that
// sit outside it.
package router

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsession "github.com/kaely/console/internal/application/session"
	"github.com/kaely/console/internal/infrastructure/logger"
	"github.com/kaely/console/internal/interfaces/http/handler"
	"github.com/kaely/console/internal/interfaces/http/middleware"
)

// consoleShell is served for page routes when no static bundle is mounted.
// Deployments normally mount the built console under StaticDir.
const consoleShell = `<!doctype html><html><head><title>Console</title></head>` +
	`<body><div id="root"></div></body></html>`

// Config carries the router's tunables. Zero values give a working
// development router.
type Config struct {
	Logger *zap.Logger

	CORSAllowOrigins []string
	MaxBodySize      int64
	TrustedProxies   []string

	Session middleware.SessionConfig
	Tracing middleware.TracingConfig

	// StaticDir holds the built console bundle. Empty serves a bare shell.
	StaticDir string

	// RequestsPerMinute is the per-tenant per-client budget. Zero disables
	// general rate limiting. Auth endpoints always carry a stricter budget.
	RequestsPerMinute     int
	AuthRequestsPerMinute int
}

// Handlers groups the gateway's handlers for registration.
type Handlers struct {
	Auth       *handler.AuthHandler
	Menu       *handler.MenuHandler
	Tenant     *handler.TenantHandler
	Module     *handler.ModuleHandler
	Role       *handler.RoleHandler
	Permission *handler.PermissionHandler
	RateRule   *handler.RateRuleHandler
	Health     *handler.HealthHandler
}

// New builds the gin engine with the full middleware chain and route tree.
// The caller wraps the result in the tenant rewriter before serving, so
// every request below carries a /:tenant prefix by the time gin matches it.
func New(cfg Config, h Handlers, sessions *appsession.Service) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.TrustedProxies)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Tracing.Enabled {
		engine.Use(middleware.TracingWithConfig(cfg.Tracing))
		engine.Use(middleware.TraceEnrichment())
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.Secure())
	if len(cfg.CORSAllowOrigins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowOrigins = cfg.CORSAllowOrigins
		engine.Use(middleware.CORSWithConfig(corsCfg))
	}
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	if cfg.RequestsPerMinute > 0 {
		limiter := middleware.NewRateLimiter(cfg.RequestsPerMinute, time.Minute)
		engine.Use(middleware.RateLimit(limiter))
	}

	registerInfrastructure(engine, cfg, h)
	registerTenantTree(engine, cfg, h, sessions)

	return engine
}

// registerInfrastructure mounts the endpoints the tenant rewriter skips:
// health probes and static assets. They answer on any host without tenant
// resolution.
func registerInfrastructure(engine *gin.Engine, cfg Config, h Handlers) {
	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
		engine.GET("/health/ready", h.Health.Ready)
	}
	if cfg.StaticDir != "" {
		engine.Static("/static", filepath.Join(cfg.StaticDir, "static"))
		engine.Static("/assets", filepath.Join(cfg.StaticDir, "assets"))
		engine.StaticFile("/favicon.ico", filepath.Join(cfg.StaticDir, "favicon.ico"))
	}
}

func registerTenantTree(engine *gin.Engine, cfg Config, h Handlers, sessions *appsession.Service) {
	shell := shellHandler(cfg.StaticDir)

	tenantGroup := engine.Group("/:tenant")
	tenantGroup.Use(middleware.Session(sessions, cfg.Session))

	// Page routes. Login is open; dashboards are behind the guard, which
	// sends browsers back to the tenant's login page.
	tenantGroup.GET("", shell)
	tenantGroup.GET("/login", shell)
	dashboard := tenantGroup.Group("/dashboard")
	dashboard.Use(middleware.AuthGuard())
	dashboard.GET("", shell)
	dashboard.GET("/*page", shell)

	api := tenantGroup.Group("/api")
	api.GET("/tenant", h.Tenant.GetTenant)
	api.GET("/tenants", h.Tenant.ListTenants)

	auth := api.Group("/auth")

	authLimit := authRateLimit(cfg)
	auth.POST("/login", authLimit, h.Auth.Login)
	auth.POST("/register", authLimit, h.Auth.Register)
	auth.POST("/logout", h.Auth.Logout)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.GET("/session", h.Auth.Session)
	auth.GET("/me", h.Auth.Me)

	// The menu is open: anonymous visitors get the default tree.
	auth.GET("/menu", h.Menu.GetMenu)

	// Admin resources mirror the upstream's path layout so the console's
	// fetch paths survive the tenant prefix unchanged.
	admin := auth.Group("")
	admin.Use(middleware.AuthGuard())
	admin.GET("/menu/debug", h.Menu.GetMenuDebug)
	admin.POST("/menu/invalidate", h.Menu.InvalidateMenu)

	admin.GET("/modules", h.Module.ListModules)
	admin.POST("/modules", h.Module.CreateModule)
	admin.PUT("/modules/:id", h.Module.UpdateModule)
	admin.DELETE("/modules/:id", h.Module.DeleteModule)
	admin.GET("/modules/:id/permissions", h.Module.GetModulePermissions)
	admin.PUT("/modules/:id/permissions", h.Module.UpdateModulePermissions)

	admin.GET("/roles", h.Role.ListRoles)
	admin.POST("/roles", h.Role.CreateRole)
	admin.GET("/roles/categories", h.Role.ListRoleCategories)
	admin.PUT("/roles/:id", h.Role.UpdateRole)
	admin.DELETE("/roles/:id", h.Role.DeleteRole)
	admin.GET("/roles/:id/permissions", h.Role.GetRolePermissions)
	admin.POST("/roles/:id/permissions", h.Role.UpdateRolePermissions)

	admin.GET("/permissions", h.Permission.ListPermissions)

	pms := api.Group("/pms")
	pms.Use(middleware.AuthGuard())
	pms.GET("/room-rate-rules", h.RateRule.ListRateRules)
	pms.POST("/room-rate-rules", h.RateRule.CreateRateRule)
	pms.GET("/room-rate-rules/classes", h.RateRule.ListRateRuleClasses)
	pms.POST("/room-rate-rules/import", h.RateRule.ImportRateRules)
	pms.GET("/room-rate-rules/export", h.RateRule.ExportRateRules)
	pms.PUT("/room-rate-rules/:id", h.RateRule.UpdateRateRule)
	pms.DELETE("/room-rate-rules/:id", h.RateRule.DeleteRateRule)
}

func authRateLimit(cfg Config) gin.HandlerFunc {
	limit := cfg.AuthRequestsPerMinute
	if limit <= 0 {
		limit = 10
	}
	limiter := middleware.NewRateLimiter(limit, time.Minute)
	return middleware.AuthRateLimit(limiter)
}

func shellHandler(staticDir string) gin.HandlerFunc {
	if staticDir == "" {
		return func(c *gin.Context) {
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(consoleShell))
		}
	}
	index := filepath.Join(staticDir, "index.html")
	return func(c *gin.Context) {
		c.File(index)
	}
}
