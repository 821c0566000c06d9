package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kaely/console/internal/infrastructure/persistence"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping() error
}

// PoolReporter exposes connection pool counters. The database implements
// it; the health payload surfaces the numbers for saturation diagnosis.
type PoolReporter interface {
	Stats() (persistence.ConnectionStats, error)
}

// ContextPinger is the redis flavor of liveness probing.
type ContextPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports gateway liveness and backing-store health. It sits
// outside the tenant tree so load balancers can probe it on any host.
type HealthHandler struct {
	BaseHandler
	db        Pinger
	cache     ContextPinger
	startTime time.Time
	version   string
}

func NewHealthHandler(db Pinger, cache ContextPinger, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cache,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthCheckResponse is the probe payload. Degraded still returns 200:
// the gateway serves default menus and cached data without its stores.
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks"`
	Pool      *PoolResponse     `json:"pool,omitempty"`
}

// PoolResponse reports database connection pool usage.
type PoolResponse struct {
	MaxOpen int `json:"max_open"`
	Open    int `json:"open"`
	InUse   int `json:"in_use"`
	Idle    int `json:"idle"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	checks := make(map[string]string)
	status := "ok"

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "unreachable"
			status = "degraded"
		} else {
			checks["database"] = "ok"
		}
	}
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = "unreachable"
			status = "degraded"
		} else {
			checks["cache"] = "ok"
		}
	}

	var pool *PoolResponse
	if reporter, ok := h.db.(PoolReporter); ok {
		if stats, err := reporter.Stats(); err == nil {
			pool = &PoolResponse{
				MaxOpen: stats.MaxOpenConnections,
				Open:    stats.OpenConnections,
				InUse:   stats.InUse,
				Idle:    stats.Idle,
			}
		}
	}

	c.JSON(http.StatusOK, HealthCheckResponse{
		Status:    status,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    checks,
		Pool:      pool,
	})
}

// Ready is the minimal readiness probe for rollout gating.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
