package middleware

import (
	"time"

	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/m1z23r/drift/pkg/drift"
)

// RequestLogger logs every request at debug level once the chain has run.
func RequestLogger() drift.HandlerFunc {
	return func(c *drift.Context) {
		start := time.Now()
		c.Next()

		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("remote", clientIP(c)).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
