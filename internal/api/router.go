package api

import (
	"github.com/gin-gonic/gin"

	"github.com/activadee/videocraft-render/internal/api/handlers"
	"github.com/activadee/videocraft-render/internal/api/middleware"
	"github.com/activadee/videocraft-render/internal/config"
	"github.com/activadee/videocraft-render/internal/orchestrator"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// NewRouter builds the §6 HTTP/WebSocket surface: export submission and
// control, the duplex progress channel, and health/metrics endpoints. All
// render logic lives in orchestrator.Manager; handlers only translate.
func NewRouter(cfg *config.Config, manager *orchestrator.Manager, log logger.Logger) *gin.Engine {
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	setupMiddleware(router, cfg, log)

	healthHandler := handlers.NewHealthHandler(cfg, manager, log)
	exportHandler := handlers.NewExportHandler(cfg, manager, log)

	setupRoutes(router, cfg, healthHandler, exportHandler)

	return router
}

func setupMiddleware(router *gin.Engine, cfg *config.Config, log logger.Logger) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecureCORS(cfg, log))
	router.Use(middleware.ErrorHandler(log))

	if cfg.Security.RateLimit > 0 {
		router.Use(middleware.RateLimit(cfg.Security.RateLimit))
	}

	// Authentication is applied per route group below, not globally, so
	// health endpoints stay reachable without an API key.
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	exportHandler *handlers.ExportHandler,
) {
	router.GET("/health", healthHandler.Health)
	router.GET("/health/detailed", healthHandler.HealthDetailed)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/live", healthHandler.Live)
	router.GET("/metrics", healthHandler.Metrics)

	export := router.Group("/export")
	if cfg.Security.EnableAuth {
		export.Use(middleware.Auth(cfg.Security.APIKey))
	}

	export.POST("/start", exportHandler.Start)
	export.GET("/status/:id", exportHandler.Status)
	export.GET("/queue", exportHandler.Queue)
	export.DELETE("/cancel/:id", exportHandler.Cancel)
	// The websocket handshake itself carries no Authorization header in most
	// browser clients, so progress subscriptions are gated by the job id
	// alone (§6 names no separate auth step for this endpoint).
	router.GET("/export/progress/:id", exportHandler.Progress)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":        "videocraft-render",
			"description": "Layer compositor and export pipeline service",
			"endpoints": gin.H{
				"health": gin.H{
					"GET /health":          "Basic health check",
					"GET /health/detailed": "Detailed health information",
					"GET /ready":           "Kubernetes readiness probe",
					"GET /live":            "Kubernetes liveness probe",
					"GET /metrics":         "System metrics",
				},
				"export": gin.H{
					"POST /export/start":          "Start a render job",
					"GET /export/status/:id":      "Get a job's current status",
					"GET /export/queue":           "List every known job",
					"DELETE /export/cancel/:id":   "Cancel a running job",
					"GET /export/progress/:id":    "Duplex progress channel (websocket)",
				},
			},
		})
	})
}
