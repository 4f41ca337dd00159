package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"eagle-eye.io/fieldagent/internal/domain"
	"eagle-eye.io/fieldagent/internal/service"
)

// Menu is the interactive numbered menu.
type Menu struct {
	agents *service.AgentService
	in     *bufio.Scanner
	out    io.Writer
}

// NewMenu creates a menu reading operator input from in.
func NewMenu(agents *service.AgentService, in io.Reader, out io.Writer) *Menu {
	return &Menu{agents: agents, in: bufio.NewScanner(in), out: out}
}

type menuItem struct {
	key    string
	label  string
	action func(context.Context) error
}

func (m *Menu) items() []menuItem {
	return []menuItem{
		{"1", "View All Agents", m.viewAll},
		{"2", "Add New Agent", m.addAgent},
		{"3", "Update Agent Location", m.updateLocation},
		{"4", "Delete Agent", m.deleteAgent},
		{"5", "Search Agents", m.search},
		{"6", "Status Report", m.statusReport},
		{"7", "Add Mission Count", m.addMissions},
		{"8", "Set Agent Status", m.setStatus},
		{"9", "Top Performers", m.topPerformers},
	}
}

// Run tests the store connection and loops over the menu until the
// operator exits or input ends. It fails only when the store is unreachable.
func (m *Menu) Run(ctx context.Context) error {
	headingColor.Fprintln(m.out, "=== EAGLE EYE FIELD AGENT MANAGEMENT SYSTEM ===")
	fmt.Fprint(m.out, "\nDatabase connection test: ")
	if err := m.agents.Ping(ctx); err != nil {
		errorColor.Fprintln(m.out, "Failed")
		return fmt.Errorf("database connection test: %w", err)
	}
	successColor.Fprintln(m.out, "Success")

	items := m.items()
	for {
		heading(m.out, "MAIN MENU")
		for _, item := range items {
			fmt.Fprintf(m.out, "%s. %s\n", item.key, item.label)
		}
		fmt.Fprintln(m.out, "0. Exit")

		choice, ok := m.prompt("\nEnter your choice: ")
		if !ok || choice == "0" {
			fmt.Fprintln(m.out, "Goodbye!")
			return nil
		}

		var action func(context.Context) error
		for _, item := range items {
			if item.key == choice {
				action = item.action
			}
		}
		if action == nil {
			warnColor.Fprintln(m.out, "Invalid choice. Try again.")
			continue
		}
		if err := action(ctx); err != nil {
			renderError(m.out, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// prompt prints label and reads one trimmed line; ok is false at end of input.
func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *Menu) promptID() (int64, error) {
	raw, _ := m.prompt("Agent ID: ")
	return parseID(raw)
}

func (m *Menu) viewAll(ctx context.Context) error {
	heading(m.out, "ALL AGENTS")
	agents, err := listAll(ctx, m.agents)
	if err != nil {
		return err
	}
	renderAgents(m.out, agents)
	return nil
}

func (m *Menu) addAgent(ctx context.Context) error {
	heading(m.out, "ADD NEW AGENT")
	codename, _ := m.prompt("Codename: ")
	realname, _ := m.prompt("Real Name: ")
	location, _ := m.prompt("Location: ")
	status, _ := m.prompt(fmt.Sprintf("Status (%s) [active]: ", statusChoices()))
	if status == "" {
		status = string(domain.AgentStatusActive)
	}
	rawMissions, _ := m.prompt("Missions Completed [0]: ")
	missions, err := parseCount("missionscompleted", rawMissions, 0)
	if err != nil {
		return err
	}

	agent, err := m.agents.Create(ctx, service.CreateAgentInput{
		Codename:          codename,
		RealName:          realname,
		Location:          location,
		Status:            domain.AgentStatus(strings.ToLower(status)),
		MissionsCompleted: missions,
	})
	if err != nil {
		return err
	}
	successColor.Fprintf(m.out, "Agent added successfully! (ID %d)\n", agent.ID)
	return nil
}

func (m *Menu) updateLocation(ctx context.Context) error {
	heading(m.out, "UPDATE AGENT LOCATION")
	id, err := m.promptID()
	if err != nil {
		return err
	}
	location, _ := m.prompt("New Location: ")
	if _, err := m.agents.UpdateLocation(ctx, id, location); err != nil {
		return err
	}
	successColor.Fprintln(m.out, "Location updated!")
	return nil
}

func (m *Menu) deleteAgent(ctx context.Context) error {
	heading(m.out, "DELETE AGENT")
	id, err := m.promptID()
	if err != nil {
		return err
	}
	agent, err := m.agents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	answer, _ := m.prompt(fmt.Sprintf("Delete %s? [y/N]: ", agent.Codename))
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		dimColor.Fprintln(m.out, "Cancelled.")
		return nil
	}
	if err := m.agents.Delete(ctx, id); err != nil {
		return err
	}
	successColor.Fprintln(m.out, "Agent deleted.")
	return nil
}

func (m *Menu) search(ctx context.Context) error {
	heading(m.out, "SEARCH AGENTS")
	term, _ := m.prompt("Search by codename or real name: ")
	agents, err := m.agents.Search(ctx, term)
	if err != nil {
		return err
	}
	renderAgents(m.out, agents)
	return nil
}

func (m *Menu) statusReport(ctx context.Context) error {
	heading(m.out, "STATUS REPORT")
	report, err := m.agents.StatusReport(ctx)
	if err != nil {
		return err
	}
	renderReport(m.out, report)
	return nil
}

func (m *Menu) addMissions(ctx context.Context) error {
	heading(m.out, "ADD MISSION COUNT")
	id, err := m.promptID()
	if err != nil {
		return err
	}
	raw, _ := m.prompt("How many missions to add? [1]: ")
	count, err := parseCount("count", raw, 1)
	if err != nil {
		return err
	}
	if _, err := m.agents.AddMissions(ctx, id, count); err != nil {
		return err
	}
	successColor.Fprintf(m.out, "Added %d mission(s) to agent.\n", count)
	return nil
}

func (m *Menu) setStatus(ctx context.Context) error {
	heading(m.out, "SET AGENT STATUS")
	id, err := m.promptID()
	if err != nil {
		return err
	}
	status, _ := m.prompt(fmt.Sprintf("New Status (%s): ", statusChoices()))
	agent, err := m.agents.SetStatus(ctx, id, domain.AgentStatus(strings.ToLower(status)))
	if err != nil {
		return err
	}
	successColor.Fprintf(m.out, "%s is now %s.\n", agent.Codename, agent.Status)
	return nil
}

func (m *Menu) topPerformers(ctx context.Context) error {
	heading(m.out, "TOP PERFORMERS")
	raw, _ := m.prompt("How many? [10]: ")
	limit, err := parseCount("limit", raw, 10)
	if err != nil {
		return err
	}
	agents, err := m.agents.TopPerformers(ctx, limit)
	if err != nil {
		return err
	}
	renderAgents(m.out, agents)
	return nil
}

func statusChoices() string {
	names := make([]string, 0, len(domain.AgentStatuses))
	for _, s := range domain.AgentStatuses {
		names = append(names, string(s))
	}
	return strings.Join(names, "/")
}

// listAll pages through every agent in insertion order.
func listAll(ctx context.Context, agents *service.AgentService) ([]*domain.Agent, error) {
	var all []*domain.Agent
	for offset := 0; ; offset += service.MaxListLimit {
		page, err := agents.List(ctx, service.ListAgentsInput{Offset: offset, Limit: service.MaxListLimit})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Agents...)
		if offset+len(page.Agents) >= page.Total || len(page.Agents) == 0 {
			return all, nil
		}
	}
}
