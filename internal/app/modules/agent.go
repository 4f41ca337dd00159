package modules

import (
	"context"

	"github.com/riverqueue/river"

	"eagle-eye.io/fieldagent/internal/api/handlers"
	"eagle-eye.io/fieldagent/internal/jobs"
	"eagle-eye.io/fieldagent/internal/service"
)

// AgentModule owns the agent record service and its roster report job.
type AgentModule struct {
	infra   *Infrastructure
	service *service.AgentService
}

// NewAgentModule creates the agent module over the shared record store.
func NewAgentModule(infra *Infrastructure) *AgentModule {
	return &AgentModule{
		infra:   infra,
		service: service.NewAgentService(infra.Store),
	}
}

// Service returns the agent record service.
func (m *AgentModule) Service() *service.AgentService { return m.service }

func (m *AgentModule) Name() string { return "agent" }

func (m *AgentModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	deps.Agents = m.service
}

func (m *AgentModule) RegisterWorkers(workers *river.Workers) {
	river.AddWorker(workers, jobs.NewRosterReportWorker(m.service))
}

func (m *AgentModule) PeriodicJobs() []*river.PeriodicJob {
	return []*river.PeriodicJob{jobs.NewRosterReportPeriodicJob(m.infra.Config.River.ReportInterval)}
}

func (m *AgentModule) Shutdown(context.Context) error { return nil }
