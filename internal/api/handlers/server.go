// Package handlers implements the agents HTTP API.
//
// Handlers translate requests into AgentService calls and report failures
// through c.Error; the error middleware owns the status mapping. Route
// registration lives in internal/app.
//
// Import Path: eagle-eye.io/fieldagent/internal/api/handlers
package handlers

import (
	"github.com/gin-gonic/gin"

	"eagle-eye.io/fieldagent/internal/config"
	"eagle-eye.io/fieldagent/internal/service"
)

// Server implements all API handlers.
type Server struct {
	agents *service.AgentService
	app    config.AppConfig
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Agents *service.AgentService
	App    config.AppConfig
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		agents: deps.Agents,
		app:    deps.App,
	}
}

// fail hands err to the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
