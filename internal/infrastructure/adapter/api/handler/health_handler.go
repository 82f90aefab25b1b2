package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/database"
)

// DatabaseProbe reports on the backing database
type DatabaseProbe interface {
	Ping(ctx context.Context) (*database.QueryMetrics, error)
	PoolStats() database.ConnectionPoolMetrics
}

// HealthHandler answers liveness checks
type HealthHandler struct {
	probe        DatabaseProbe
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewHealthHandler creates a health handler; probe is nil for the in-memory store
func NewHealthHandler(probe DatabaseProbe, timeProvider coreport.TimeProvider, logger coreport.Logger) *HealthHandler {
	return &HealthHandler{
		probe:        probe,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"time":   h.timeProvider.Now().UTC(),
	}
	if h.probe == nil {
		body["store"] = "memory"
		c.JSON(http.StatusOK, body)
		return
	}

	body["store"] = "postgres"
	metrics, err := h.probe.Ping(c.Request.Context())
	if err != nil {
		h.logger.Error("Health check failed", map[string]any{"error": err.Error()})
		body["status"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	body["db_latency_ms"] = metrics.Duration.Milliseconds()
	body["pool"] = h.probe.PoolStats()
	c.JSON(http.StatusOK, body)
}
