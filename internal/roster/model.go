// Package roster is the full-screen terminal roster of field agents.
//
// The model renders every agent in a table and drives the record service
// through forms and dialogs: search, add, update location, delete with
// confirmation, mission increments and the status report. Service calls run
// as tea.Cmds and come back as messages, so the model itself never blocks.
//
// Import Path: eagle-eye.io/fieldagent/internal/roster
package roster

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"eagle-eye.io/fieldagent/internal/domain"
	apperrors "eagle-eye.io/fieldagent/internal/pkg/errors"
	"eagle-eye.io/fieldagent/internal/service"
)

type mode int

const (
	modeTable mode = iota
	modeSearch
	modeAdd
	modeLocate
	modeConfirmDelete
	modeDialog
)

// Rows above and below the table: title, search line, status, help.
const chromeHeight = 6

// Add form fields, in tab order.
const (
	fieldCodename = iota
	fieldRealName
	fieldLocation
	fieldStatus
	fieldMissions
	fieldCount
)

var formLabels = [fieldCount]string{"Codename", "Real name", "Location", "Status", "Missions"}

// agentsLoadedMsg carries the result of (re)loading the table.
type agentsLoadedMsg struct {
	agents []*domain.Agent
	total  int
	err    error
}

// actionDoneMsg reports a finished mutation. A successful one triggers a
// reload so the table reflects the store.
type actionDoneMsg struct {
	notice string
	err    error
}

type reportLoadedMsg struct {
	report domain.StatusReport
	err    error
}

type dialog struct {
	title string
	body  string
	isErr bool
}

// Model is the bubbletea model for the roster.
type Model struct {
	ctx    context.Context
	agents *service.AgentService
	keys   KeyMap

	table  table.Model
	rows   []*domain.Agent
	total  int
	loaded bool

	search textinput.Model
	term   string

	form      [fieldCount]textinput.Model
	formFocus int

	location textinput.Model
	target   *domain.Agent // Agent the locate or delete prompt acts on.

	mode   mode
	dialog dialog
	notice string

	width  int
	height int
}

// New creates a roster over the given service. ctx bounds every service
// call the roster issues.
func New(ctx context.Context, agents *service.AgentService) Model {
	t := table.New(
		table.WithColumns(columns(0)),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "codename or real name"
	search.CharLimit = service.MaxRealNameLen

	var form [fieldCount]textinput.Model
	for i := range form {
		in := textinput.New()
		in.Prompt = ""
		form[i] = in
	}
	form[fieldCodename].CharLimit = service.MaxCodenameLen
	form[fieldRealName].CharLimit = service.MaxRealNameLen
	form[fieldLocation].CharLimit = service.MaxLocationLen
	form[fieldStatus].Placeholder = string(domain.AgentStatusActive)
	form[fieldMissions].Placeholder = "0"

	location := textinput.New()
	location.Prompt = "New location: "
	location.CharLimit = service.MaxLocationLen

	return Model{
		ctx:      ctx,
		agents:   agents,
		keys:     DefaultKeyMap,
		table:    t,
		search:   search,
		form:     form,
		location: location,
	}
}

// columns sizes the table for a terminal of the given width. Zero keeps the
// default widths.
func columns(width int) []table.Column {
	cols := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Codename", Width: 16},
		{Title: "Real Name", Width: 22},
		{Title: "Location", Width: 18},
		{Title: "Status", Width: 11},
		{Title: "Missions", Width: 8},
	}
	used := 0
	for _, c := range cols {
		used += c.Width + 2
	}
	if width > used {
		// Give the slack to the free-text columns.
		extra := width - used
		cols[2].Width += extra / 2
		cols[3].Width += extra - extra/2
	}
	return cols
}

// Init loads the initial table contents.
func (m Model) Init() tea.Cmd {
	return m.loadAgents()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columns(msg.Width))
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		return m, nil

	case agentsLoadedMsg:
		if msg.err != nil {
			return m.showError(msg.err), nil
		}
		m.setRows(msg.agents, msg.total)
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			return m.showError(msg.err), nil
		}
		m.notice = msg.notice
		return m, m.loadAgents()

	case reportLoadedMsg:
		if msg.err != nil {
			return m.showError(msg.err), nil
		}
		m.dialog = dialog{title: "Status Report", body: renderReport(msg.report)}
		m.mode = modeDialog
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeDialog:
		if key.Matches(msg, m.keys.Submit, m.keys.Cancel) || msg.String() == " " {
			m.mode = modeTable
		}
		return m, nil
	case modeSearch:
		return m.updateSearch(msg)
	case modeAdd:
		return m.updateForm(msg)
	case modeLocate:
		return m.updateLocate(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.term)
		m.search.CursorEnd()
		m.search.Focus()
		m.table.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		for i := range m.form {
			m.form[i].Reset()
			m.form[i].Blur()
		}
		m.formFocus = fieldCodename
		m.form[fieldCodename].Focus()
		m.table.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.notice = ""
		return m, m.loadAgents()
	case key.Matches(msg, m.keys.Report):
		return m, m.loadReport()
	}

	selected := m.selected()
	switch {
	case key.Matches(msg, m.keys.Locate) && selected != nil:
		m.mode = modeLocate
		m.target = selected
		m.location.SetValue(selected.Location)
		m.location.CursorEnd()
		m.location.Focus()
		m.table.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Delete) && selected != nil:
		m.mode = modeConfirmDelete
		m.target = selected
		return m, nil
	case key.Matches(msg, m.keys.Increment) && selected != nil:
		return m, m.incrementMissions(selected.ID)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.leaveInput()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.term = strings.TrimSpace(m.search.Value())
		m.leaveInput()
		return m, m.loadAgents()
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.leaveInput()
		return m, nil
	case key.Matches(msg, m.keys.Next):
		m.focusField(m.formFocus + 1)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.focusField(m.formFocus - 1)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		if m.formFocus < fieldMissions {
			m.focusField(m.formFocus + 1)
			return m, nil
		}
		in, err := m.formInput()
		if err != nil {
			return m.showError(err), nil
		}
		m.leaveInput()
		return m, m.createAgent(in)
	}
	var cmd tea.Cmd
	m.form[m.formFocus], cmd = m.form[m.formFocus].Update(msg)
	return m, cmd
}

func (m Model) updateLocate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.leaveInput()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		target, location := m.target, m.location.Value()
		m.leaveInput()
		return m, m.updateLocation(target, location)
	}
	var cmd tea.Cmd
	m.location, cmd = m.location.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		target := m.target
		m.leaveInput()
		return m, m.deleteAgent(target)
	case key.Matches(msg, m.keys.Deny):
		m.leaveInput()
		m.notice = "Delete cancelled."
	}
	return m, nil
}

// leaveInput returns to table mode, dropping focus from every input.
func (m *Model) leaveInput() {
	m.mode = modeTable
	m.target = nil
	m.search.Blur()
	m.location.Blur()
	for i := range m.form {
		m.form[i].Blur()
	}
	m.table.Focus()
}

func (m *Model) focusField(i int) {
	i = (i + fieldCount) % fieldCount
	m.form[m.formFocus].Blur()
	m.formFocus = i
	m.form[i].Focus()
}

func (m Model) formInput() (service.CreateAgentInput, error) {
	missions := 0
	if raw := strings.TrimSpace(m.form[fieldMissions].Value()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return service.CreateAgentInput{}, apperrors.ErrInvalidInput(apperrors.FieldError{
				Field: "missionscompleted", Code: apperrors.ReasonBadFormat, Message: "must be an integer",
			})
		}
		missions = n
	}
	status := strings.ToLower(strings.TrimSpace(m.form[fieldStatus].Value()))
	if status == "" {
		status = string(domain.AgentStatusActive)
	}
	return service.CreateAgentInput{
		Codename:          strings.TrimSpace(m.form[fieldCodename].Value()),
		RealName:          strings.TrimSpace(m.form[fieldRealName].Value()),
		Location:          strings.TrimSpace(m.form[fieldLocation].Value()),
		Status:            domain.AgentStatus(status),
		MissionsCompleted: missions,
	}, nil
}

func (m *Model) setRows(agents []*domain.Agent, total int) {
	m.rows = agents
	m.total = total
	m.loaded = true

	rows := make([]table.Row, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, table.Row{
			strconv.FormatInt(a.ID, 10),
			a.Codename,
			a.RealName,
			a.Location,
			string(a.Status),
			strconv.Itoa(a.MissionsCompleted),
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m Model) selected() *domain.Agent {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.rows) {
		return nil
	}
	return m.rows[c]
}

func (m Model) showError(err error) Model {
	m.leaveInput()
	m.dialog = errorDialog(err)
	m.mode = modeDialog
	return m
}

// errorDialog gives each error kind its own title.
func errorDialog(err error) dialog {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return dialog{title: "Error", body: err.Error(), isErr: true}
	}

	d := dialog{body: appErr.Message, isErr: true}
	switch appErr.Code {
	case apperrors.CodeAgentNotFound:
		d.title = "Agent Not Found"
	case apperrors.CodeDuplicateCodename:
		d.title = "Duplicate Codename"
	case apperrors.CodeInvalidInput:
		d.title = "Invalid Input"
		lines := make([]string, 0, len(appErr.FieldErrors))
		for _, fe := range appErr.FieldErrors {
			lines = append(lines, fmt.Sprintf("%s: %s (%s)", fe.Field, fe.Message, fe.Code))
		}
		if len(lines) > 0 {
			d.body = strings.Join(lines, "\n")
		}
	case apperrors.CodeStoreUnavailable:
		d.title = "Record Store Unavailable"
	default:
		d.title = "Error"
	}
	return d
}

func renderReport(r domain.StatusReport) string {
	var b strings.Builder
	for _, s := range r.Ordered() {
		fmt.Fprintf(&b, "%-12s %s\n", s, statusStyle(s).Render(strconv.Itoa(r[s])))
	}
	fmt.Fprintf(&b, "%-12s %d", "Total", r.Total())
	return b.String()
}

// Commands.

func (m Model) loadAgents() tea.Cmd {
	ctx, svc, term := m.ctx, m.agents, m.term
	return func() tea.Msg {
		if term != "" {
			agents, err := svc.Search(ctx, term)
			return agentsLoadedMsg{agents: agents, total: len(agents), err: err}
		}
		page, err := svc.List(ctx, service.ListAgentsInput{Limit: service.MaxListLimit})
		if err != nil {
			return agentsLoadedMsg{err: err}
		}
		return agentsLoadedMsg{agents: page.Agents, total: page.Total}
	}
}

func (m Model) loadReport() tea.Cmd {
	ctx, svc := m.ctx, m.agents
	return func() tea.Msg {
		report, err := svc.StatusReport(ctx)
		return reportLoadedMsg{report: report, err: err}
	}
}

func (m Model) createAgent(in service.CreateAgentInput) tea.Cmd {
	ctx, svc := m.ctx, m.agents
	return func() tea.Msg {
		a, err := svc.Create(ctx, in)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{notice: fmt.Sprintf("Added %s (ID %d).", a.Codename, a.ID)}
	}
}

func (m Model) updateLocation(target *domain.Agent, location string) tea.Cmd {
	ctx, svc := m.ctx, m.agents
	return func() tea.Msg {
		a, err := svc.UpdateLocation(ctx, target.ID, location)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{notice: fmt.Sprintf("%s is now in %s.", a.Codename, a.Location)}
	}
}

func (m Model) deleteAgent(target *domain.Agent) tea.Cmd {
	ctx, svc := m.ctx, m.agents
	return func() tea.Msg {
		if err := svc.Delete(ctx, target.ID); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{notice: fmt.Sprintf("Deleted %s.", target.Codename)}
	}
}

func (m Model) incrementMissions(id int64) tea.Cmd {
	ctx, svc := m.ctx, m.agents
	return func() tea.Msg {
		a, err := svc.IncrementMissions(ctx, id)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{notice: fmt.Sprintf("%s now has %d mission(s).", a.Codename, a.MissionsCompleted)}
	}
}

// View renders the roster.
func (m Model) View() string {
	if m.mode == modeDialog {
		return m.viewDialog()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Eagle Eye Field Agents"))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")

	switch m.mode {
	case modeSearch:
		b.WriteString(m.search.View())
		b.WriteString("\n")
		b.WriteString(renderHelp([]key.Binding{m.keys.Submit, m.keys.Cancel}))
	case modeAdd:
		b.WriteString(m.viewForm())
		b.WriteString(renderHelp(m.keys.formHelp()))
	case modeLocate:
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render("Agent: "+m.target.Codename))
		b.WriteString(m.location.View())
		b.WriteString("\n")
		b.WriteString(renderHelp([]key.Binding{m.keys.Submit, m.keys.Cancel}))
	case modeConfirmDelete:
		fmt.Fprintf(&b, "Delete %s (ID %d)? This cannot be undone.\n", m.target.Codename, m.target.ID)
		b.WriteString(renderHelp([]key.Binding{m.keys.Confirm, m.keys.Deny}))
	default:
		b.WriteString(m.viewStatus())
		b.WriteString("\n")
		b.WriteString(renderHelp(m.keys.tableHelp()))
	}
	return b.String()
}

func (m Model) viewStatus() string {
	if !m.loaded {
		return mutedStyle.Render("Loading agents...")
	}
	summary := fmt.Sprintf("%d agent(s)", m.total)
	if m.term != "" {
		summary = fmt.Sprintf("%d match(es) for %q", m.total, m.term)
	} else if len(m.rows) < m.total {
		summary = fmt.Sprintf("showing %d of %d agent(s)", len(m.rows), m.total)
	}
	if m.notice != "" {
		return noticeStyle.Render(m.notice) + "  " + mutedStyle.Render(summary)
	}
	return mutedStyle.Render(summary)
}

func (m Model) viewForm() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("New agent"))
	b.WriteString("\n")
	for i, in := range m.form {
		b.WriteString(labelStyle.Render(formLabels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewDialog() string {
	style := dialogStyle
	if m.dialog.isErr {
		style = errorDialogStyle
	}
	box := style.Render(
		dialogTitleStyle.Render(m.dialog.title) + "\n" +
			m.dialog.body + "\n\n" +
			renderHelp([]key.Binding{m.keys.Submit}),
	)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
