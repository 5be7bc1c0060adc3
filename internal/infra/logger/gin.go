package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"
)

// GinAccessLog logs one line per request. Server errors are logged at
// error, client errors at warn, the rest at debug.
func GinAccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		event := zlog.Debug()
		switch {
		case status >= 500:
			event = zlog.Error()
		case status >= 400:
			event = zlog.Warn()
		}

		event.Msgf("http: method=%s path=%s status=%d elapsed=%v client=%s errors=%q",
			c.Request.Method, path, status, time.Since(start), c.ClientIP(), c.Errors.String())
	}
}

// GinRecovery turns handler panics into 500 responses and logs them.
func GinRecovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		zlog.Error().Msgf("http: panic recovered: method=%s path=%s panic=%v",
			c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatus(500)
	})
}
