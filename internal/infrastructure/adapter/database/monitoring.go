package database

import (
	"context"
	"time"

	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
)

// QueryMetrics holds metrics about a database operation
type QueryMetrics struct {
	Operation    string        `json:"operation"`
	Duration     time.Duration `json:"duration"`
	RowsAffected int64         `json:"rowsAffected"`
	Failed       bool          `json:"failed"`
	ErrorMessage string        `json:"error,omitempty"`
}

// MetricsCollector times database operations and reports slow ones
type MetricsCollector struct {
	logger        coreport.Logger
	timeProvider  coreport.TimeProvider
	slowThreshold time.Duration
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger coreport.Logger, timeProvider coreport.TimeProvider, slowThreshold time.Duration) *MetricsCollector {
	if slowThreshold <= 0 {
		slowThreshold = 100 * time.Millisecond
	}
	return &MetricsCollector{
		logger:        logger,
		timeProvider:  timeProvider,
		slowThreshold: slowThreshold,
	}
}

// MeasureQuery runs fn and returns its timing alongside fn's error
func (c *MetricsCollector) MeasureQuery(_ context.Context, operation string, fn func() (int64, error)) (*QueryMetrics, error) {
	start := c.timeProvider.Now()

	rowsAffected, err := fn()

	metrics := &QueryMetrics{
		Operation:    operation,
		Duration:     c.timeProvider.Since(start).Std(),
		RowsAffected: rowsAffected,
		Failed:       err != nil,
	}
	if err != nil {
		metrics.ErrorMessage = err.Error()
	}

	if metrics.Duration > c.slowThreshold {
		c.logger.Warn("Slow database operation detected", map[string]any{
			"operation":     operation,
			"duration_ms":   metrics.Duration.Milliseconds(),
			"rows_affected": rowsAffected,
			"failed":        metrics.Failed,
		})
	}

	return metrics, err
}
