package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"eagle-eye.io/fieldagent/internal/domain"
	apperrors "eagle-eye.io/fieldagent/internal/pkg/errors"
	"eagle-eye.io/fieldagent/internal/service"
)

const (
	defaultListLimit = 100
	defaultTopLimit  = 10
)

// StatusReportResponse is the body of GET /agents/report/status.
type StatusReportResponse struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// MessageResponse acknowledges operations without a record to return.
type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type missionCountRequest struct {
	Count *int `json:"count"`
}

type statusChangeRequest struct {
	Status *string `json:"status"`
}

// CreateAgent handles POST /agents/.
func (s *Server) CreateAgent(c *gin.Context) {
	var req service.CreateAgentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badFormat("body", err))
		return
	}

	agent, err := s.agents.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, agent)
}

// ListAgents handles GET /agents/?skip&limit&status.
func (s *Server) ListAgents(c *gin.Context) {
	skip, err := bindQueryInt(c, "skip")
	if err != nil {
		fail(c, err)
		return
	}
	limit, err := bindQueryInt(c, "limit")
	if err != nil {
		fail(c, err)
		return
	}
	status, err := bindQueryString(c, "status")
	if err != nil {
		fail(c, err)
		return
	}

	in := service.ListAgentsInput{
		Offset: intOr(skip, 0),
		Limit:  intOr(limit, defaultListLimit),
	}
	if status != nil && *status != "" {
		st := domain.AgentStatus(*status)
		in.Status = &st
	}

	page, err := s.agents.List(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetAgent handles GET /agents/{id}.
func (s *Server) GetAgent(c *gin.Context) {
	id, err := bindAgentID(c)
	if err != nil {
		fail(c, err)
		return
	}
	agent, err := s.agents.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// GetAgentByCodename handles GET /agents/codename/{codename}.
func (s *Server) GetAgentByCodename(c *gin.Context) {
	agent, err := s.agents.GetByCodename(c.Request.Context(), c.Param("codename"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// UpdateAgent handles PUT /agents/{id}. Absent fields are left untouched.
func (s *Server) UpdateAgent(c *gin.Context) {
	id, err := bindAgentID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var patch service.AgentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, badFormat("body", err))
		return
	}

	agent, err := s.agents.Update(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// DeleteAgent handles DELETE /agents/{id}.
func (s *Server) DeleteAgent(c *gin.Context) {
	id, err := bindAgentID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.agents.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Agent deleted successfully", Success: true})
}

// IncrementMissions handles PATCH /agents/{id}/increment-mission.
func (s *Server) IncrementMissions(c *gin.Context) {
	id, err := bindAgentID(c)
	if err != nil {
		fail(c, err)
		return
	}
	agent, err := s.agents.IncrementMissions(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// AddMissions handles PATCH /agents/{id}/missions with {"count": n}.
func (s *Server) AddMissions(c *gin.Context) {
	id, err := bindAgentID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req missionCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badFormat("body", err))
		return
	}
	if req.Count == nil {
		fail(c, apperrors.ErrInvalidInput(apperrors.FieldError{
			Field: "count", Code: apperrors.ReasonRequired, Message: "is required",
		}))
		return
	}

	agent, err := s.agents.AddMissions(c.Request.Context(), id, *req.Count)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// SetAgentStatus handles PATCH /agents/{id}/status. The new status comes
// from ?status= or, when absent, from a {"status": ...} body.
func (s *Server) SetAgentStatus(c *gin.Context) {
	id, err := bindAgentID(c)
	if err != nil {
		fail(c, err)
		return
	}
	status, err := bindQueryString(c, "status")
	if err != nil {
		fail(c, err)
		return
	}
	if status == nil {
		var req statusChangeRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			fail(c, badFormat("body", err))
			return
		}
		status = req.Status
	}

	var st domain.AgentStatus
	if status != nil {
		st = domain.AgentStatus(*status)
	}
	agent, err := s.agents.SetStatus(c.Request.Context(), id, st)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// ListAgentsByStatus handles GET /agents/status/{status}.
func (s *Server) ListAgentsByStatus(c *gin.Context) {
	agents, err := s.agents.ListByStatus(c.Request.Context(), domain.AgentStatus(c.Param("status")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agents)
}

// TopPerformers handles GET /agents/top-performers/?limit.
func (s *Server) TopPerformers(c *gin.Context) {
	limit, err := bindQueryInt(c, "limit")
	if err != nil {
		fail(c, err)
		return
	}
	agents, err := s.agents.TopPerformers(c.Request.Context(), intOr(limit, defaultTopLimit))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agents)
}

// SearchAgents handles GET /agents/search?q=.
func (s *Server) SearchAgents(c *gin.Context) {
	term, err := bindQueryString(c, "q")
	if err != nil {
		fail(c, err)
		return
	}
	var q string
	if term != nil {
		q = *term
	}
	agents, err := s.agents.Search(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agents)
}

// StatusReport handles GET /agents/report/status.
func (s *Server) StatusReport(c *gin.Context) {
	report, err := s.agents.StatusReport(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	counts := make(map[string]int, len(report))
	for status, n := range report {
		counts[string(status)] = n
	}
	c.JSON(http.StatusOK, StatusReportResponse{Counts: counts, Total: report.Total()})
}
