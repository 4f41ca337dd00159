package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eagle-eye.io/fieldagent/internal/api/openapi"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
)

// Health is the body of the health probes.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Root handles GET / with the service banner.
func (s *Server) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the " + s.app.Name,
		"version": s.app.Version,
		"docs":    "/api/v1/openapi.yaml",
	})
}

// GetLiveness handles GET /health and /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, Health{Status: "healthy"})
}

// GetReadiness handles GET /health/ready.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := make(map[string]string)
	status, httpStatus := "healthy", http.StatusOK

	if err := s.agents.Ping(c.Request.Context()); err != nil {
		logger.Warn("Readiness check failed", zap.Error(err))
		checks["database"] = "error"
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	c.JSON(httpStatus, Health{Status: status, Checks: checks})
}

// GetOpenAPIDocument handles GET /api/v1/openapi.yaml.
func (s *Server) GetOpenAPIDocument(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", openapi.Document())
}
