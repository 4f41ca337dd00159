// Package domain provides the field agent record model shared by the record
// store, the agent service, and every front end.
//
// Import Path: eagle-eye.io/fieldagent/internal/domain
package domain

import (
	"fmt"
	"strings"
)

// AgentStatus is the operational status of a field agent.
//
// Status is a free-form enum: any status may follow any other.
type AgentStatus string

const (
	AgentStatusActive    AgentStatus = "active"
	AgentStatusInactive  AgentStatus = "inactive"
	AgentStatusOnMission AgentStatus = "on_mission"
	AgentStatusRetired   AgentStatus = "retired"
	AgentStatusDeceased  AgentStatus = "deceased"
)

// AgentStatuses lists every valid status in display order.
var AgentStatuses = []AgentStatus{
	AgentStatusActive,
	AgentStatusInactive,
	AgentStatusOnMission,
	AgentStatusRetired,
	AgentStatusDeceased,
}

// Valid reports whether s is one of the known statuses.
func (s AgentStatus) Valid() bool {
	for _, known := range AgentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (s AgentStatus) String() string { return string(s) }

// ParseAgentStatus normalizes operator input ("Active", " on_mission ",
// "on-mission") to a status value.
func ParseAgentStatus(raw string) (AgentStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	s := AgentStatus(normalized)
	if !s.Valid() {
		return "", fmt.Errorf("unknown agent status %q", raw)
	}
	return s, nil
}

// Agent is a stored field agent record.
type Agent struct {
	ID                int64       `json:"id" yaml:"id"`
	Codename          string      `json:"codename" yaml:"codename"`
	RealName          string      `json:"realname" yaml:"realname"`
	Location          string      `json:"location" yaml:"location"`
	Status            AgentStatus `json:"status" yaml:"status"`
	MissionsCompleted int         `json:"missionscompleted" yaml:"missionscompleted"`
}

// String renders the one-line operator view used by the console.
func (a Agent) String() string {
	return fmt.Sprintf("ID: %d | Codename: %s | Name: %s | Location: %s | Status: %s | Missions: %d",
		a.ID, a.Codename, a.RealName, a.Location, a.Status, a.MissionsCompleted)
}

// AgentFields is an agent record before the store assigns its id.
type AgentFields struct {
	Codename          string
	RealName          string
	Location          string
	Status            AgentStatus
	MissionsCompleted int
}

// StatusReport maps each status present in the store to its record count.
// Statuses without records are absent.
type StatusReport map[AgentStatus]int

// Total returns the number of records covered by the report.
func (r StatusReport) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// Ordered returns the present statuses in display order.
func (r StatusReport) Ordered() []AgentStatus {
	out := make([]AgentStatus, 0, len(r))
	for _, s := range AgentStatuses {
		if _, ok := r[s]; ok {
			out = append(out, s)
		}
	}
	// Statuses written by an older schema still show up, after the known ones.
	for s := range r {
		if !s.Valid() {
			out = append(out, s)
		}
	}
	return out
}
