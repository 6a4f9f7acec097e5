package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/dbpool"
	"github.com/crossidm/idsync/internal/domain"
	"github.com/crossidm/idsync/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log          *logrus.Logger
	Pool         *dbpool.Pool
	Sync         domain.SyncService
	Configs      domain.SyncConfigService
	Systems      domain.SystemService
	Provisioning domain.ProvisioningService
	Audit        domain.AuditService
	APIKey       string
	CORSOrigins  []string
	Version      string
}

// Router-level limits.
const (
	maxBodySize = 10 << 20 // 10 MB
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, log, deps.Version)
	systems := NewSystemHandler(deps.Systems, log)
	configs := NewSyncConfigHandler(deps.Configs, log)
	sync := NewSyncHandler(ctx, deps.Sync, log)
	prov := NewProvisioningHandler(deps.Provisioning, log)
	audit := NewAuditHandler(deps.Audit, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require the operator API key.
	api.Use(middleware.APIKeyAuth(deps.APIKey, log))

	// Systems and attribute mappings.
	api.GET("/systems", systems.List)
	api.POST("/systems", systems.Create)
	api.GET("/systems/:id", systems.Get)
	api.POST("/systems/:id/disable", systems.Disable)
	api.POST("/systems/:id/enable", systems.Enable)
	api.DELETE("/systems/:id", systems.Delete)
	api.GET("/systems/:id/mappings", systems.ListMappings)
	api.POST("/systems/:id/mappings", systems.CreateMapping)
	api.PUT("/mappings/:id", systems.UpdateMapping)
	api.DELETE("/mappings/:id", systems.DeleteMapping)

	// Sync configurations.
	api.GET("/sync-configs", configs.List)
	api.POST("/sync-configs", configs.Create)
	api.GET("/sync-configs/:id", configs.Get)
	api.PUT("/sync-configs/:id", configs.Update)
	api.DELETE("/sync-configs/:id", configs.Delete)

	// Run control and run logs.
	api.POST("/sync-configs/:id/start", sync.Start)
	api.POST("/sync-configs/:id/stop", sync.Stop)
	api.GET("/sync-configs/:id/running", sync.Running)
	api.GET("/sync-configs/:id/logs", sync.Logs)
	api.POST("/sync-configs/:id/resolve", sync.ResolveItem)
	api.GET("/sync-logs/:id/actions", sync.ActionLogs)
	api.GET("/sync-actions/:id/items", sync.ItemLogs)

	// Provisioning queue.
	api.GET("/provisioning/operations", prov.ListOperations)
	api.GET("/provisioning/queue", prov.QueueDepth)
	api.POST("/provisioning/batches/:id/retry", prov.RetryBatch)
	api.POST("/provisioning/batches/:id/execute", prov.ExecuteBatch)

	// Audit.
	api.GET("/audit", audit.Query)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
