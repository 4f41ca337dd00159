// Package service provides the agent record service: validation, codename
// uniqueness, filtered pagination, lifecycle operations and reporting over
// the record store.
//
// The service holds no state between calls besides its store handle and is
// safe for concurrent use. Every failure it returns is an *apperrors.AppError.
//
// Import Path: eagle-eye.io/fieldagent/internal/service
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"eagle-eye.io/fieldagent/internal/domain"
	apperrors "eagle-eye.io/fieldagent/internal/pkg/errors"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
	"eagle-eye.io/fieldagent/internal/repository"
)

// CreateAgentInput is the input of Create.
type CreateAgentInput struct {
	Codename          string             `json:"codename" yaml:"codename"`
	RealName          string             `json:"realname" yaml:"realname"`
	Location          string             `json:"location" yaml:"location"`
	Status            domain.AgentStatus `json:"status" yaml:"status"`
	MissionsCompleted int                `json:"missionscompleted" yaml:"missionscompleted"`
}

// AgentPatch is a partial update. Nil fields are left untouched.
type AgentPatch struct {
	Codename          *string             `json:"codename,omitempty"`
	RealName          *string             `json:"realname,omitempty"`
	Location          *string             `json:"location,omitempty"`
	Status            *domain.AgentStatus `json:"status,omitempty"`
	MissionsCompleted *int                `json:"missionscompleted,omitempty"`
}

// ListAgentsInput selects a page of agents.
type ListAgentsInput struct {
	Status *domain.AgentStatus
	Offset int
	Limit  int
}

// AgentPage is one page of a listing.
type AgentPage struct {
	Agents []*domain.Agent `json:"agents"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Size   int             `json:"size"`
}

// AgentService implements the agent record operations over a store.
type AgentService struct {
	store repository.AgentStore
}

// NewAgentService creates a new AgentService.
func NewAgentService(store repository.AgentStore) *AgentService {
	return &AgentService{store: store}
}

// Ping reports whether the record store is reachable.
func (s *AgentService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return apperrors.ErrStoreUnavailable(err)
	}
	return nil
}

// Create validates in, checks codename uniqueness and stores a new agent.
func (s *AgentService) Create(ctx context.Context, in CreateAgentInput) (*domain.Agent, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	if err := s.ensureCodenameFree(ctx, in.Codename, 0); err != nil {
		return nil, err
	}

	id, err := s.store.Insert(ctx, domain.AgentFields{
		Codename:          in.Codename,
		RealName:          in.RealName,
		Location:          in.Location,
		Status:            in.Status,
		MissionsCompleted: in.MissionsCompleted,
	})
	if err != nil {
		// Lost a race with a concurrent create of the same codename.
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.ErrDuplicateCodenamef(in.Codename)
		}
		return nil, apperrors.ErrStoreUnavailable(err)
	}

	logger.Info("Agent created",
		zap.Int64("agent_id", id),
		zap.String("codename", in.Codename),
	)
	return &domain.Agent{
		ID:                id,
		Codename:          in.Codename,
		RealName:          in.RealName,
		Location:          in.Location,
		Status:            in.Status,
		MissionsCompleted: in.MissionsCompleted,
	}, nil
}

// GetByID returns the agent with the given id.
func (s *AgentService) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.lookupErr(err, id)
	}
	return a, nil
}

// GetByCodename returns the agent with exactly this codename.
func (s *AgentService) GetByCodename(ctx context.Context, codename string) (*domain.Agent, error) {
	a, err := s.store.FindByCodename(ctx, codename)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrCodenameNotFoundf(codename)
		}
		return nil, apperrors.ErrStoreUnavailable(err)
	}
	return a, nil
}

// List returns a page of agents in insertion order.
func (s *AgentService) List(ctx context.Context, in ListAgentsInput) (*AgentPage, error) {
	if err := validateList(in); err != nil {
		return nil, err
	}

	agents, total, err := s.store.Scan(ctx, repository.Query{
		Status: in.Status,
		Offset: in.Offset,
		Limit:  in.Limit,
		Order:  repository.OrderByID,
	})
	if err != nil {
		return nil, apperrors.ErrStoreUnavailable(err)
	}
	return &AgentPage{
		Agents: agents,
		Total:  total,
		Page:   in.Offset/in.Limit + 1,
		Size:   len(agents),
	}, nil
}

// Update applies the fields present in patch. Codename uniqueness is
// re-checked only when the codename changes.
func (s *AgentService) Update(ctx context.Context, id int64, patch AgentPatch) (*domain.Agent, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	changes := repository.Changes{
		RealName:          patch.RealName,
		Location:          patch.Location,
		Status:            patch.Status,
		MissionsCompleted: patch.MissionsCompleted,
	}
	if patch.Codename != nil && *patch.Codename != current.Codename {
		if err := s.ensureCodenameFree(ctx, *patch.Codename, id); err != nil {
			return nil, err
		}
		changes.Codename = patch.Codename
	}
	if changes.Empty() {
		return current, nil
	}

	updated, err := s.apply(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	logger.Info("Agent updated",
		zap.Int64("agent_id", id),
		zap.String("codename", updated.Codename),
	)
	return updated, nil
}

// UpdateLocation moves an agent.
func (s *AgentService) UpdateLocation(ctx context.Context, id int64, location string) (*domain.Agent, error) {
	return s.Update(ctx, id, AgentPatch{Location: &location})
}

// Delete removes an agent.
func (s *AgentService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return apperrors.ErrStoreUnavailable(err)
	}
	if !deleted {
		return apperrors.ErrAgentNotFoundf(id)
	}
	logger.Info("Agent deleted", zap.Int64("agent_id", id))
	return nil
}

// IncrementMissions adds one completed mission.
func (s *AgentService) IncrementMissions(ctx context.Context, id int64) (*domain.Agent, error) {
	return s.AddMissions(ctx, id, 1)
}

// AddMissions adds count completed missions in a single store update.
func (s *AgentService) AddMissions(ctx context.Context, id int64, count int) (*domain.Agent, error) {
	if err := singleFieldError(checkMissions(fieldCount, count)); err != nil {
		return nil, err
	}
	if count == 0 {
		return s.GetByID(ctx, id)
	}

	updated, err := s.apply(ctx, id, repository.Changes{AddMissions: count})
	if err != nil {
		return nil, err
	}
	logger.Info("Agent missions added",
		zap.Int64("agent_id", id),
		zap.Int("count", count),
		zap.Int("missions_completed", updated.MissionsCompleted),
	)
	return updated, nil
}

// SetStatus overwrites an agent's status. Any status may follow any other.
func (s *AgentService) SetStatus(ctx context.Context, id int64, status domain.AgentStatus) (*domain.Agent, error) {
	if err := singleFieldError(checkStatus(status)); err != nil {
		return nil, err
	}

	updated, err := s.apply(ctx, id, repository.Changes{Status: &status})
	if err != nil {
		return nil, err
	}
	logger.Info("Agent status changed",
		zap.Int64("agent_id", id),
		zap.String("status", string(status)),
	)
	return updated, nil
}

// ListByStatus returns every agent holding status, in insertion order.
func (s *AgentService) ListByStatus(ctx context.Context, status domain.AgentStatus) ([]*domain.Agent, error) {
	if err := singleFieldError(checkStatus(status)); err != nil {
		return nil, err
	}
	return s.scan(ctx, repository.Query{Status: &status})
}

// TopPerformers returns up to limit agents ordered by missions completed,
// highest first; ties keep insertion order.
func (s *AgentService) TopPerformers(ctx context.Context, limit int) ([]*domain.Agent, error) {
	if err := singleFieldError(checkRange(fieldLimit, limit, 1, MaxTopPerformers)); err != nil {
		return nil, err
	}
	return s.scan(ctx, repository.Query{Limit: limit, Order: repository.OrderByMissionsDesc})
}

// Search returns agents whose codename or real name contains term,
// case-insensitively. The term is matched as given, surrounding spaces
// included; an empty term matches every agent.
func (s *AgentService) Search(ctx context.Context, term string) ([]*domain.Agent, error) {
	return s.scan(ctx, repository.Query{Term: term})
}

// StatusReport counts agents per status present in the store.
func (s *AgentService) StatusReport(ctx context.Context) (domain.StatusReport, error) {
	counts, err := s.store.CountBy(ctx, repository.GroupByStatus)
	if err != nil {
		return nil, apperrors.ErrStoreUnavailable(err)
	}
	report := make(domain.StatusReport, len(counts))
	for status, n := range counts {
		if n > 0 {
			report[domain.AgentStatus(status)] = n
		}
	}
	return report, nil
}

func (s *AgentService) scan(ctx context.Context, q repository.Query) ([]*domain.Agent, error) {
	agents, _, err := s.store.Scan(ctx, q)
	if err != nil {
		return nil, apperrors.ErrStoreUnavailable(err)
	}
	return agents, nil
}

// apply runs a single store update, mapping absence and a codename race.
func (s *AgentService) apply(ctx context.Context, id int64, changes repository.Changes) (*domain.Agent, error) {
	updated, err := s.store.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) && changes.Codename != nil {
			return nil, apperrors.ErrDuplicateCodenamef(*changes.Codename)
		}
		if errors.Is(err, apperrors.ErrOutOfRange) {
			return nil, missionsOverflow()
		}
		return nil, s.lookupErr(err, id)
	}
	return updated, nil
}

// ensureCodenameFree fails with DUPLICATE_CODENAME when codename belongs to
// an agent other than self (0 for none).
func (s *AgentService) ensureCodenameFree(ctx context.Context, codename string, self int64) error {
	existing, err := s.store.FindByCodename(ctx, codename)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	case err != nil:
		return apperrors.ErrStoreUnavailable(err)
	case existing.ID != self:
		return apperrors.ErrDuplicateCodenamef(codename)
	}
	return nil
}

func (s *AgentService) lookupErr(err error, id int64) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrAgentNotFoundf(id)
	}
	return apperrors.ErrStoreUnavailable(err)
}
