package server

import (
	"time"

	"live-auction/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing. Long-lived
// stream requests are logged when they end.
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if len(c.Errors) > 0 {
		fields["errors"] = c.Errors.String()
	}

	switch {
	case c.Writer.Status() >= 500:
		utils.Error("HTTP Request", fields)
	case c.Request.URL.Path == "/healthz" || c.Request.URL.Path == "/metrics":
		utils.Debug("HTTP Request", fields)
	default:
		utils.Info("HTTP Request", fields)
	}
}
