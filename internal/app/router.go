package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"eagle-eye.io/fieldagent/internal/api/handlers"
	"eagle-eye.io/fieldagent/internal/api/middleware"
	"eagle-eye.io/fieldagent/internal/api/openapi"
	"eagle-eye.io/fieldagent/internal/config"
)

// devOrigins is the CORS allowlist used when none is configured.
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

func newRouter(cfg *config.Config, server *handlers.Server) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), cors.New(buildCORSConfig(cfg)))

	router.GET("/", server.Root)
	router.GET("/health", server.GetLiveness)
	router.GET("/health/live", server.GetLiveness)
	router.GET("/health/ready", server.GetReadiness)

	api := router.Group(openapi.BasePath)
	if cfg.Server.OpenAPIValidation {
		validator, err := middleware.NewOpenAPIValidator(openapi.BasePath)
		if err != nil {
			return nil, fmt.Errorf("openapi validator: %w", err)
		}
		api.Use(validator)
	}
	// Inside the validator so error bodies are validated too.
	api.Use(middleware.ErrorHandler())
	api.GET("/openapi.yaml", server.GetOpenAPIDocument)

	agents := api.Group("/agents")
	agents.POST("/", server.CreateAgent)
	agents.GET("/", server.ListAgents)
	agents.GET("/search", server.SearchAgents)
	agents.GET("/top-performers/", server.TopPerformers)
	agents.GET("/report/status", server.StatusReport)
	agents.GET("/codename/:codename", server.GetAgentByCodename)
	agents.GET("/status/:status", server.ListAgentsByStatus)
	agents.GET("/:id", server.GetAgent)
	agents.PUT("/:id", server.UpdateAgent)
	agents.DELETE("/:id", server.DeleteAgent)
	agents.PATCH("/:id/increment-mission", server.IncrementMissions)
	agents.PATCH("/:id/missions", server.AddMissions)
	agents.PATCH("/:id/status", server.SetAgentStatus)

	return router, nil
}

// buildCORSConfig derives the CORS policy. A wildcard origin is honoured only
// with UnsafeAllowAllOrigins, and then never together with credentials.
func buildCORSConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	if cfg.Server.UnsafeAllowAllOrigins {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
		return corsCfg
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, origin := range cfg.Server.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		origins = append(origins, devOrigins...)
	}
	corsCfg.AllowOrigins = origins
	corsCfg.AllowCredentials = cfg.Server.AllowCredentials
	return corsCfg
}
