package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perfume/backend/internal/infrastructure/logger"
	"github.com/perfume/backend/internal/infrastructure/persistence"
	"github.com/perfume/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Overall health values
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// HealthChecker reports the state of one backing service
type HealthChecker interface {
	Health(ctx context.Context) persistence.HealthStatus
}

// SystemHandler handles health and system information endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	database  HealthChecker
	optional  map[string]HealthChecker
}

// NewSystemHandler creates a new SystemHandler. The database decides the
// health status; optional components such as redis only degrade it.
func NewSystemHandler(name, version string, database HealthChecker, optional map[string]HealthChecker) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		database:  database,
		optional:  optional,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string                               `json:"status"`
	Time       time.Time                            `json:"time"`
	Components map[string]persistence.HealthStatus `json:"components"`
}

// Health godoc
// @Summary      Report database and cache health
// @Tags         system
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	resp := HealthResponse{
		Status:     HealthHealthy,
		Time:       time.Now().UTC(),
		Components: make(map[string]persistence.HealthStatus, len(h.optional)+1),
	}

	db := h.database.Health(ctx)
	resp.Components["database"] = db
	for name, checker := range h.optional {
		status := checker.Health(ctx)
		resp.Components[name] = status
		if !status.IsUp() {
			resp.Status = HealthDegraded
		}
	}

	code := http.StatusOK
	if !db.IsUp() {
		resp.Status = HealthUnhealthy
		code = http.StatusServiceUnavailable
		logger.GetGinLogger(c).Warn("Health check failed", zap.String("database_error", db.Error))
	}
	c.JSON(code, resp)
}

// GetSystemInfo godoc
// @Summary      Get the service name, version and uptime
// @Tags         system
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}

// Ping godoc
// @Summary      Ping the API
// @Tags         system
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{"message": "pong", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}
