package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"eagle-eye.io/fieldagent/internal/domain"
	apperrors "eagle-eye.io/fieldagent/internal/pkg/errors"
)

// MemoryStore is an in-process AgentStore. Ids come from a monotonic counter
// and are never reused after deletion.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	agents     map[int64]domain.Agent
	byCodename map[string]int64
}

var _ AgentStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		agents:     make(map[int64]domain.Agent),
		byCodename: make(map[string]int64),
	}
}

// Insert implements AgentStore.
func (s *MemoryStore) Insert(_ context.Context, fields domain.AgentFields) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byCodename[fields.Codename]; taken {
		return 0, fmt.Errorf("insert agent %s: %w", fields.Codename, apperrors.ErrAlreadyExists)
	}
	s.nextID++
	id := s.nextID
	s.agents[id] = domain.Agent{
		ID:                id,
		Codename:          fields.Codename,
		RealName:          fields.RealName,
		Location:          fields.Location,
		Status:            fields.Status,
		MissionsCompleted: fields.MissionsCompleted,
	}
	s.byCodename[fields.Codename] = id
	return id, nil
}

// Get implements AgentStore.
func (s *MemoryStore) Get(_ context.Context, id int64) (*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.agents[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &a, nil
}

// FindByCodename implements AgentStore.
func (s *MemoryStore) FindByCodename(_ context.Context, codename string) (*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCodename[codename]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	a := s.agents[id]
	return &a, nil
}

// Scan implements AgentStore.
func (s *MemoryStore) Scan(_ context.Context, q Query) ([]*domain.Agent, int, error) {
	s.mu.RLock()
	matched := make([]domain.Agent, 0, len(s.agents))
	term := strings.ToLower(q.Term)
	for _, a := range s.agents {
		if q.Status != nil && a.Status != *q.Status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(a.Codename), term) &&
			!strings.Contains(strings.ToLower(a.RealName), term) {
			continue
		}
		matched = append(matched, a)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if q.Order == OrderByMissionsDesc && matched[i].MissionsCompleted != matched[j].MissionsCompleted {
			return matched[i].MissionsCompleted > matched[j].MissionsCompleted
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}

	page := make([]*domain.Agent, 0, end-start)
	for i := start; i < end; i++ {
		a := matched[i]
		page = append(page, &a)
	}
	return page, total, nil
}

// Update implements AgentStore.
func (s *MemoryStore) Update(_ context.Context, id int64, changes Changes) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	missions := a.MissionsCompleted
	if changes.MissionsCompleted != nil {
		missions = *changes.MissionsCompleted
	}
	if changes.AddMissions > MaxMissionsCompleted-missions || missions+changes.AddMissions < 0 {
		return nil, fmt.Errorf("update agent %d missions: %w", id, apperrors.ErrOutOfRange)
	}
	if changes.Codename != nil && *changes.Codename != a.Codename {
		if _, taken := s.byCodename[*changes.Codename]; taken {
			return nil, fmt.Errorf("update agent %d codename: %w", id, apperrors.ErrAlreadyExists)
		}
		delete(s.byCodename, a.Codename)
		a.Codename = *changes.Codename
		s.byCodename[a.Codename] = id
	}
	if changes.RealName != nil {
		a.RealName = *changes.RealName
	}
	if changes.Location != nil {
		a.Location = *changes.Location
	}
	if changes.Status != nil {
		a.Status = *changes.Status
	}
	a.MissionsCompleted = missions + changes.AddMissions

	s.agents[id] = a
	return &a, nil
}

// Delete implements AgentStore.
func (s *MemoryStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[id]
	if !ok {
		return false, nil
	}
	delete(s.agents, id)
	delete(s.byCodename, a.Codename)
	return true, nil
}

// CountBy implements AgentStore.
func (s *MemoryStore) CountBy(_ context.Context, key GroupKey) (map[string]int, error) {
	if key != GroupByStatus {
		return nil, fmt.Errorf("count by %q: unsupported group key", key)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, a := range s.agents {
		counts[string(a.Status)]++
	}
	return counts, nil
}

// Ping implements AgentStore.
func (s *MemoryStore) Ping(context.Context) error { return nil }
