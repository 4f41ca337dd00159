// Package repository holds the agent record store: the persistence contract
// the agent service depends on and its SQL and in-memory implementations.
//
// The store owns no business rules. It reports absence with
// apperrors.ErrNotFound, unique violations with apperrors.ErrAlreadyExists
// and a missions count leaving [0, MaxMissionsCompleted] with
// apperrors.ErrOutOfRange; everything else is returned wrapped and treated
// as a store failure by the service.
//
// Import Path: eagle-eye.io/fieldagent/internal/repository
package repository

import (
	"context"
	"math"

	"eagle-eye.io/fieldagent/internal/domain"
)

// Column names of the agents table.
const (
	TableAgents = "agents"

	FieldID                = "id"
	FieldCodename          = "codename"
	FieldRealName          = "realname"
	FieldLocation          = "location"
	FieldStatus            = "status"
	FieldMissionsCompleted = "missions_completed"
)

// MaxMissionsCompleted is the largest missions count a record can hold, the
// range of the PostgreSQL INTEGER column.
const MaxMissionsCompleted = math.MaxInt32

var agentColumns = []string{
	FieldID,
	FieldCodename,
	FieldRealName,
	FieldLocation,
	FieldStatus,
	FieldMissionsCompleted,
}

// Order selects the ordering of a scan.
type Order int

const (
	// OrderByID is insertion order (store-assigned id ascending).
	OrderByID Order = iota
	// OrderByMissionsDesc orders by missions completed, highest first,
	// ties broken by insertion order.
	OrderByMissionsDesc
)

// GroupKey selects the column CountBy groups on.
type GroupKey string

// GroupByStatus groups records by status.
const GroupByStatus GroupKey = FieldStatus

// Query describes a predicate scan.
type Query struct {
	// Status restricts the scan to one status when set.
	Status *domain.AgentStatus
	// Term restricts the scan to records whose codename or realname contains
	// it, case-insensitively. Empty matches everything.
	Term string
	// Offset skips that many matching records.
	Offset int
	// Limit caps the page size; zero means no cap.
	Limit int
	Order Order
}

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	Codename          *string
	RealName          *string
	Location          *string
	Status            *domain.AgentStatus
	MissionsCompleted *int

	// AddMissions is added to missions_completed in the same statement,
	// after any MissionsCompleted overwrite.
	AddMissions int
}

// Empty reports whether c would not modify anything.
func (c Changes) Empty() bool {
	return c.Codename == nil && c.RealName == nil && c.Location == nil &&
		c.Status == nil && c.MissionsCompleted == nil && c.AddMissions == 0
}

// AgentStore is the record store contract. Every method is atomic per call.
type AgentStore interface {
	// Insert stores a new record and returns its assigned id.
	Insert(ctx context.Context, fields domain.AgentFields) (int64, error)
	// Get returns the record with the given id.
	Get(ctx context.Context, id int64) (*domain.Agent, error)
	// FindByCodename returns the record with exactly this codename.
	FindByCodename(ctx context.Context, codename string) (*domain.Agent, error)
	// Scan returns the page selected by q and the number of records matching
	// q's predicates regardless of offset and limit.
	Scan(ctx context.Context, q Query) ([]*domain.Agent, int, error)
	// Update applies changes and returns the updated record.
	Update(ctx context.Context, id int64, changes Changes) (*domain.Agent, error)
	// Delete removes the record and reports whether it existed.
	Delete(ctx context.Context, id int64) (bool, error)
	// CountBy counts records per distinct value of key.
	CountBy(ctx context.Context, key GroupKey) (map[string]int, error)
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
