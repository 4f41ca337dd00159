package roster

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"eagle-eye.io/fieldagent/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle  = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("250"))

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
	errorDialogStyle = dialogStyle.BorderForeground(lipgloss.Color("196"))
	dialogTitleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
)

var statusColors = map[domain.AgentStatus]lipgloss.Color{
	domain.AgentStatusActive:    lipgloss.Color("42"),
	domain.AgentStatusOnMission: lipgloss.Color("39"),
	domain.AgentStatusInactive:  lipgloss.Color("244"),
	domain.AgentStatusRetired:   lipgloss.Color("214"),
	domain.AgentStatusDeceased:  lipgloss.Color("196"),
}

func statusStyle(s domain.AgentStatus) lipgloss.Style {
	c, ok := statusColors[s]
	if !ok {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(c)
}

// renderHelp renders bindings as "key action" pairs separated by dots.
func renderHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return mutedStyle.Render(strings.Join(parts, " • "))
}
