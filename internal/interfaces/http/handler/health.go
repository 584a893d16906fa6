package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Dependency is a backing service checked by the readiness endpoint
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness checks
type HealthHandler struct {
	BaseHandler
	version      string
	startTime    time.Time
	dependencies []Dependency
	timeout      time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(version string, dependencies ...Dependency) *HealthHandler {
	return &HealthHandler{
		version:      version,
		startTime:    time.Now(),
		dependencies: dependencies,
		timeout:      2 * time.Second,
	}
}

// HealthResponse represents the liveness response
// @name HandlerHealthResponse
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
	Time      string `json:"time" example:"2026-01-23T12:00:00Z"`
}

// ReadinessResponse represents the readiness response
// @name HandlerReadinessResponse
type ReadinessResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
	Time   string            `json:"time" example:"2026-01-23T12:00:00Z"`
}

// Health godoc
// @ID           getHealth
// @Summary      Liveness check
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Time:      time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready godoc
// @ID           getReadiness
// @Summary      Readiness check
// @Description  Pings the database and the cart store. Answers 503 when any of them is down.
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[ReadinessResponse]
// @Failure      503 {object} APIResponse[ReadinessResponse]
// @Router       /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := ReadinessResponse{
		Status: "ready",
		Checks: make(map[string]string, len(h.dependencies)),
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	for _, dep := range h.dependencies {
		if err := dep.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Readiness check failed",
				zap.String("dependency", dep.Name),
				zap.Error(err),
			)
			resp.Checks[dep.Name] = "error"
			resp.Status = "unavailable"
			continue
		}
		resp.Checks[dep.Name] = "ok"
	}

	if resp.Status != "ready" {
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}
	h.Success(c, resp)
}
