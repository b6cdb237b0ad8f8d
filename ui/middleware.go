package ui

import (
	"time"

	"patientcluster/internal/logger"

	"github.com/gin-gonic/gin"
)

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger())
	if s.options.MaxUploadBytes > 0 {
		s.router.MaxMultipartMemory = s.options.MaxUploadBytes
	}
}

// requestLogger logs one line per request through the zap logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Logger.Infow("[http] request handled",
			"method", c.Request.Method,
			logger.FieldPath, c.Request.URL.Path,
			logger.FieldStatus, c.Writer.Status(),
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	}
}
