package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eagle-eye.io/fieldagent/internal/api/middleware"
	"eagle-eye.io/fieldagent/internal/config"
	"eagle-eye.io/fieldagent/internal/domain"
	apperrors "eagle-eye.io/fieldagent/internal/pkg/errors"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
	"eagle-eye.io/fieldagent/internal/repository"
	"eagle-eye.io/fieldagent/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

func newTestServer(t *testing.T) (*Server, *service.AgentService) {
	t.Helper()
	svc := service.NewAgentService(repository.NewMemoryStore())
	return NewServer(ServerDeps{
		Agents: svc,
		App:    config.AppConfig{Name: "Agent Management System", Version: "1.0.0"},
	}), svc
}

// serve runs handler behind the error middleware, the way the router mounts it.
func serve(handler gin.HandlerFunc, method, target, body string, params ...gin.Param) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	_, engine := gin.CreateTestContext(w)
	engine.Use(middleware.ErrorHandler())
	engine.Handle(method, "/*path", func(c *gin.Context) {
		c.Params = params
		handler(c)
	})

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	engine.ServeHTTP(w, req)
	return w
}

func idParam(id string) gin.Param { return gin.Param{Key: "id", Value: id} }

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body=%s", w.Body.String())
	return v
}

func mustCreate(t *testing.T, svc *service.AgentService, codename string, status domain.AgentStatus, missions int) *domain.Agent {
	t.Helper()
	a, err := svc.Create(context.Background(), service.CreateAgentInput{
		Codename:          codename,
		RealName:          codename + " Real",
		Location:          "Berlin",
		Status:            status,
		MissionsCompleted: missions,
	})
	require.NoError(t, err)
	return a
}

func TestCreateAgent(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serve(srv.CreateAgent, http.MethodPost, "/agents/",
		`{"codename":"Falcon","realname":"Ann Smith","location":"Berlin","status":"active"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	got := decode[domain.Agent](t, w)
	assert.Positive(t, got.ID)
	assert.Equal(t, "Falcon", got.Codename)
	assert.Equal(t, 0, got.MissionsCompleted)

	w = serve(srv.CreateAgent, http.MethodPost, "/agents/",
		`{"codename":"Falcon","realname":"Other","location":"Paris","status":"active"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CodeDuplicateCodename, decode[middleware.ErrorResponse](t, w).Code)
}

func TestCreateAgent_InvalidInput(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"space in codename", `{"codename":"Bad Name","realname":"A","location":"B","status":"active"}`, "codename"},
		{"percent in codename", `{"codename":"50%","realname":"A","location":"B","status":"active"}`, "codename"},
		{"unknown status", `{"codename":"Owl","realname":"A","location":"B","status":"missing"}`, "status"},
		{"negative missions", `{"codename":"Owl","realname":"A","location":"B","status":"active","missionscompleted":-1}`, "missionscompleted"},
		{"missions beyond int32", `{"codename":"Owl","realname":"A","location":"B","status":"active","missionscompleted":2147483648}`, "missionscompleted"},
		{"malformed body", `{"codename":`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(srv.CreateAgent, http.MethodPost, "/agents/", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[middleware.ErrorResponse](t, w)
			assert.Equal(t, apperrors.CodeInvalidInput, resp.Code)
			require.NotEmpty(t, resp.FieldErrors)
			assert.Equal(t, tt.wantField, resp.FieldErrors[0].Field)
		})
	}
}

func TestListAgents_Paging(t *testing.T) {
	srv, svc := newTestServer(t)
	for _, name := range []string{"Falcon", "Raven", "Viper", "Owl", "Hawk"} {
		mustCreate(t, svc, name, domain.AgentStatusActive, 0)
	}

	w := serve(srv.ListAgents, http.MethodGet, "/agents/?skip=2&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[service.AgentPage](t, w)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Size)
	require.Len(t, page.Agents, 2)
	assert.Equal(t, "Viper", page.Agents[0].Codename)

	w = serve(srv.ListAgents, http.MethodGet, "/agents/", "")
	assert.Equal(t, 5, decode[service.AgentPage](t, w).Size)

	w = serve(srv.ListAgents, http.MethodGet, "/agents/?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(srv.ListAgents, http.MethodGet, "/agents/?skip=abc", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[middleware.ErrorResponse](t, w)
	require.Len(t, resp.FieldErrors, 1)
	assert.Equal(t, apperrors.ReasonBadFormat, resp.FieldErrors[0].Code)
}

func TestListAgents_StatusFilter(t *testing.T) {
	srv, svc := newTestServer(t)
	mustCreate(t, svc, "Falcon", domain.AgentStatusActive, 0)
	mustCreate(t, svc, "Raven", domain.AgentStatusRetired, 0)

	w := serve(srv.ListAgents, http.MethodGet, "/agents/?status=retired", "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[service.AgentPage](t, w)
	require.Len(t, page.Agents, 1)
	assert.Equal(t, "Raven", page.Agents[0].Codename)
}

func TestGetAgent(t *testing.T) {
	srv, svc := newTestServer(t)
	a := mustCreate(t, svc, "Falcon", domain.AgentStatusActive, 0)

	w := serve(srv.GetAgent, http.MethodGet, "/agents/1", "", idParam("1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, *a, decode[domain.Agent](t, w))

	w = serve(srv.GetAgent, http.MethodGet, "/agents/99", "", idParam("99"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CodeAgentNotFound, decode[middleware.ErrorResponse](t, w).Code)

	w = serve(srv.GetAgent, http.MethodGet, "/agents/abc", "", idParam("abc"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAgentByCodename(t *testing.T) {
	srv, svc := newTestServer(t)
	mustCreate(t, svc, "Falcon", domain.AgentStatusActive, 0)

	w := serve(srv.GetAgentByCodename, http.MethodGet, "/agents/codename/Falcon", "",
		gin.Param{Key: "codename", Value: "Falcon"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Falcon", decode[domain.Agent](t, w).Codename)

	w = serve(srv.GetAgentByCodename, http.MethodGet, "/agents/codename/Ghost", "",
		gin.Param{Key: "codename", Value: "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAgent(t *testing.T) {
	srv, svc := newTestServer(t)
	mustCreate(t, svc, "Falcon", domain.AgentStatusActive, 2)
	mustCreate(t, svc, "Raven", domain.AgentStatusActive, 0)

	w := serve(srv.UpdateAgent, http.MethodPut, "/agents/1", `{"location":"Tokyo"}`, idParam("1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[domain.Agent](t, w)
	assert.Equal(t, "Tokyo", got.Location)
	assert.Equal(t, "Falcon", got.Codename)
	assert.Equal(t, 2, got.MissionsCompleted)

	w = serve(srv.UpdateAgent, http.MethodPut, "/agents/1", `{"codename":"Raven"}`, idParam("1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CodeDuplicateCodename, decode[middleware.ErrorResponse](t, w).Code)

	w = serve(srv.UpdateAgent, http.MethodPut, "/agents/7", `{"location":"Tokyo"}`, idParam("7"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAgent(t *testing.T) {
	srv, svc := newTestServer(t)
	mustCreate(t, svc, "Falcon", domain.AgentStatusActive, 0)

	w := serve(srv.DeleteAgent, http.MethodDelete, "/agents/1", "", idParam("1"))
	require.Equal(t, http.StatusOK, w.Code)
	msg := decode[MessageResponse](t, w)
	assert.True(t, msg.Success)
	assert.NotEmpty(t, msg.Message)

	w = serve(srv.GetAgent, http.MethodGet, "/agents/1", "", idParam("1"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = serve(srv.DeleteAgent, http.MethodDelete, "/agents/1", "", idParam("1"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMissionCounters(t *testing.T) {
	srv, svc := newTestServer(t)
	mustCreate(t, svc, "Falcon", domain.AgentStatusActive, 3)

	w := serve(srv.IncrementMissions, http.MethodPatch, "/agents/1/increment-mission", "", idParam("1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, decode[domain.Agent](t, w).MissionsCompleted)

	w = serve(srv.AddMissions, http.MethodPatch, "/agents/1/missions", `{"count":5}`, idParam("1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9, decode[domain.Agent](t, w).MissionsCompleted)

	w = serve(srv.AddMissions, http.MethodPatch, "/agents/1/missions", `{"count":-2}`, idParam("1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(srv.AddMissions, http.MethodPatch, "/agents/1/missions", `{}`, idParam("1"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "count", decode[middleware.ErrorResponse](t, w).FieldErrors[0].Field)

	w = serve(srv.AddMissions, http.MethodPatch, "/agents/1/missions", `{"count":9223372036854775807}`, idParam("1"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "count", decode[middleware.ErrorResponse](t, w).FieldErrors[0].Field)

	w = serve(srv.IncrementMissions, http.MethodPatch, "/agents/8/increment-mission", "", idParam("8"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetAgentStatus(t *testing.T) {
	srv, svc := newTestServer(t)
	mustCreate(t, svc, "Falcon", domain.AgentStatusDeceased, 0)

	w := serve(srv.SetAgentStatus, http.MethodPatch, "/agents/1/status?status=active", "", idParam("1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.AgentStatusActive, decode[domain.Agent](t, w).Status)

	w = serve(srv.SetAgentStatus, http.MethodPatch, "/agents/1/status", `{"status":"on_mission"}`, idParam("1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.AgentStatusOnMission, decode[domain.Agent](t, w).Status)

	w = serve(srv.SetAgentStatus, http.MethodPatch, "/agents/1/status?status=sleeping", "", idParam("1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(srv.SetAgentStatus, http.MethodPatch, "/agents/1/status", "", idParam("1"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ReasonRequired, decode[middleware.ErrorResponse](t, w).FieldErrors[0].Code)
}

func TestQueries(t *testing.T) {
	srv, svc := newTestServer(t)
	mustCreate(t, svc, "Falcon", domain.AgentStatusActive, 10)
	mustCreate(t, svc, "Raven", domain.AgentStatusActive, 5)
	mustCreate(t, svc, "Viper", domain.AgentStatusRetired, 20)
	mustCreate(t, svc, "Owl", domain.AgentStatusActive, 1)

	t.Run("top performers", func(t *testing.T) {
		w := serve(srv.TopPerformers, http.MethodGet, "/agents/top-performers/?limit=3", "")
		require.Equal(t, http.StatusOK, w.Code)
		agents := decode[[]domain.Agent](t, w)
		missions := make([]int, 0, len(agents))
		for _, a := range agents {
			missions = append(missions, a.MissionsCompleted)
		}
		assert.Equal(t, []int{20, 10, 5}, missions)

		w = serve(srv.TopPerformers, http.MethodGet, "/agents/top-performers/", "")
		assert.Len(t, decode[[]domain.Agent](t, w), 4)

		w = serve(srv.TopPerformers, http.MethodGet, "/agents/top-performers/?limit=101", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("by status", func(t *testing.T) {
		w := serve(srv.ListAgentsByStatus, http.MethodGet, "/agents/status/retired", "",
			gin.Param{Key: "status", Value: "retired"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]domain.Agent](t, w), 1)

		w = serve(srv.ListAgentsByStatus, http.MethodGet, "/agents/status/asleep", "",
			gin.Param{Key: "status", Value: "asleep"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("search", func(t *testing.T) {
		w := serve(srv.SearchAgents, http.MethodGet, "/agents/search?q=aven", "")
		require.Equal(t, http.StatusOK, w.Code)
		agents := decode[[]domain.Agent](t, w)
		require.Len(t, agents, 1)
		assert.Equal(t, "Raven", agents[0].Codename)

		w = serve(srv.SearchAgents, http.MethodGet, "/agents/search?q=nobody", "")
		assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	})

	t.Run("status report", func(t *testing.T) {
		w := serve(srv.StatusReport, http.MethodGet, "/agents/report/status", "")
		require.Equal(t, http.StatusOK, w.Code)
		report := decode[StatusReportResponse](t, w)
		assert.Equal(t, map[string]int{"active": 3, "retired": 1}, report.Counts)
		assert.Equal(t, 4, report.Total)
	})
}

type downStore struct {
	repository.AgentStore
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func (downStore) Get(context.Context, int64) (*domain.Agent, error) {
	return nil, errors.New("connection refused")
}

func TestStoreUnavailable(t *testing.T) {
	srv := NewServer(ServerDeps{Agents: service.NewAgentService(downStore{})})

	w := serve(srv.GetAgent, http.MethodGet, "/agents/1", "", idParam("1"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apperrors.CodeStoreUnavailable, decode[middleware.ErrorResponse](t, w).Code)

	w = serve(srv.GetReadiness, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", decode[Health](t, w).Checks["database"])
}

func TestRootAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serve(srv.Root, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Contains(t, body["message"], "Agent Management System")
	assert.Equal(t, "1.0.0", body["version"])

	w = serve(srv.GetLiveness, http.MethodGet, "/health", "")
	assert.Equal(t, "healthy", decode[Health](t, w).Status)

	w = serve(srv.GetReadiness, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[Health](t, w).Checks["database"])

	w = serve(srv.GetOpenAPIDocument, http.MethodGet, "/api/v1/openapi.yaml", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}
