package ui

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
}

// requestLogger tags each request with an ID and logs it through the leveled logger
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		s.logger.Debug("[UI] %s %s -> %d in %s (request %s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), id)
	}
}
