package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
)

// Logger logs each request once it has been handled. Server errors log at
// error level and refused requests at warn.
func Logger(logger coreport.Logger, timeProvider coreport.TimeProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := timeProvider.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		fields := map[string]any{
			"method":     c.Request.Method,
			"path":       path,
			"route":      c.FullPath(),
			"status":     status,
			"latency_ms": timeProvider.Since(start).Std().Milliseconds(),
			"ip":         c.ClientIP(),
			"request_id": c.GetHeader(HeaderRequestID),
			"user_agent": c.Request.UserAgent(),
		}
		if caller := CallerID(c); caller != uuid.Nil {
			fields["caller_id"] = caller.String()
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.Errors()
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("Request processed", fields)
		case status >= http.StatusBadRequest:
			logger.Warn("Request processed", fields)
		default:
			logger.Info("Request processed", fields)
		}
	}
}
