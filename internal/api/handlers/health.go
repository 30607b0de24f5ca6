package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/activadee/videocraft-render/internal/config"
	"github.com/activadee/videocraft-render/internal/domain/models"
	"github.com/activadee/videocraft-render/internal/orchestrator"
	"github.com/activadee/videocraft-render/pkg/logger"
)

type HealthHandler struct {
	cfg       *config.Config
	manager   *orchestrator.Manager
	log       logger.Logger
	startTime time.Time
}

func NewHealthHandler(cfg *config.Config, manager *orchestrator.Manager, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		manager:   manager,
		log:       log,
		startTime: time.Now(),
	}
}

// Basic health check
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

// Detailed health check with system information
// GET /health/detailed
func (h *HealthHandler) HealthDetailed(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)

	response := gin.H{
		"status": "healthy",
		"time":   time.Now().UTC(),
		"uptime": uptime.String(),
		"system": gin.H{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"allocated":   m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"heap_alloc":  m.HeapAlloc,
				"heap_sys":    m.HeapSys,
				"gc_cycles":   m.NumGC,
			},
		},
		"config": gin.H{
			"projects_dir":       h.cfg.Storage.ProjectsDir,
			"output_dir":         h.cfg.Storage.OutputDir,
			"ffmpeg_path":        h.cfg.Toolchain.BinaryPath,
			"render_worker_path": h.cfg.External.RenderWorkerPath,
		},
	}

	c.JSON(http.StatusOK, response)
}

// Kubernetes readiness probe
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": gin.H{
			"projects_dir": dirHealth(h.cfg.Storage.ProjectsDir),
			"output_dir":   dirHealth(h.cfg.Storage.OutputDir),
		},
	})
}

// Kubernetes liveness probe
// GET /live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"time":   time.Now().UTC(),
	})
}

// System metrics endpoint
// GET /metrics
func (h *HealthHandler) Metrics(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	jobs := h.manager.List()

	jobStats := make(map[models.JobStatus]int)
	for _, job := range jobs {
		jobStats[job.Status]++
	}

	metrics := gin.H{
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).Seconds(),
		"memory": gin.H{
			"allocated_mb": float64(m.Alloc) / 1024 / 1024,
			"heap_mb":      float64(m.HeapAlloc) / 1024 / 1024,
			"gc_cycles":    m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
		"jobs": gin.H{
			"total":     len(jobs),
			"by_status": jobStats,
		},
	}

	c.JSON(http.StatusOK, metrics)
}

func dirHealth(dir string) string {
	if dir == "" {
		return "unconfigured"
	}
	return "configured"
}
