package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
)

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if childID := c.GetString("child_id"); childID != "" {
			fields = append(fields, "child_id", childID)
		}
		log.Info("request", fields...)
	}
}
