package middleware

import (
	"time"

	"stockwatch/internal/logger"

	"github.com/gin-gonic/gin"
)

func Logger(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		line := "%s %s %d %s %s"
		args := []interface{}{c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.ClientIP()}
		switch {
		case status >= 500:
			logger.Error(line, args...)
		case status >= 400:
			logger.Warn(line, args...)
		default:
			logger.Info(line, args...)
		}
	}
}
