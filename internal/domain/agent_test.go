package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAgentStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    AgentStatus
		wantErr bool
	}{
		{"active", AgentStatusActive, false},
		{" Active ", AgentStatusActive, false},
		{"ON_MISSION", AgentStatusOnMission, false},
		{"on-mission", AgentStatusOnMission, false},
		{"on mission", AgentStatusOnMission, false},
		{"deceased", AgentStatusDeceased, false},
		{"injured", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAgentStatus(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAgentString(t *testing.T) {
	a := Agent{ID: 7, Codename: "Falcon", RealName: "Jane Doe", Location: "Berlin", Status: AgentStatusActive, MissionsCompleted: 3}
	require.Equal(t, "ID: 7 | Codename: Falcon | Name: Jane Doe | Location: Berlin | Status: active | Missions: 3", a.String())
}

func TestStatusReport(t *testing.T) {
	report := StatusReport{
		AgentStatusRetired: 1,
		AgentStatusActive:  2,
	}

	require.Equal(t, 3, report.Total())
	require.Equal(t, []AgentStatus{AgentStatusActive, AgentStatusRetired}, report.Ordered())
	require.Equal(t, 0, StatusReport{}.Total())
}
