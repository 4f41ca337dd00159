// Package console is the operator console over the agent record service:
// an interactive numbered menu plus one-shot cobra subcommands.
//
// Import Path: eagle-eye.io/fieldagent/internal/console
package console

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"eagle-eye.io/fieldagent/internal/domain"
	apperrors "eagle-eye.io/fieldagent/internal/pkg/errors"
)

var (
	headingColor = color.New(color.FgHiCyan, color.Bold)
	successColor = color.New(color.FgHiGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

func statusColor(s domain.AgentStatus) *color.Color {
	switch s {
	case domain.AgentStatusActive:
		return color.New(color.FgHiGreen)
	case domain.AgentStatusOnMission:
		return color.New(color.FgHiBlue)
	case domain.AgentStatusInactive:
		return color.New(color.FgYellow)
	case domain.AgentStatusRetired:
		return color.New(color.FgWhite)
	case domain.AgentStatusDeceased:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlack)
	}
}

func heading(w io.Writer, title string) {
	headingColor.Fprintf(w, "\n=== %s ===\n", title)
}

func renderAgent(w io.Writer, a *domain.Agent) {
	fmt.Fprintf(w, "ID: %d | Codename: %s | Name: %s | Location: %s | Status: %s | Missions: %d\n",
		a.ID, a.Codename, a.RealName, a.Location,
		statusColor(a.Status).Sprint(a.Status), a.MissionsCompleted)
}

func renderAgents(w io.Writer, agents []*domain.Agent) {
	if len(agents) == 0 {
		dimColor.Fprintln(w, "No agents found.")
		return
	}
	for _, a := range agents {
		renderAgent(w, a)
	}
}

func renderReport(w io.Writer, report domain.StatusReport) {
	if len(report) == 0 {
		dimColor.Fprintln(w, "No agents found.")
		return
	}
	for _, status := range report.Ordered() {
		fmt.Fprintf(w, "%s: %d agent(s)\n", statusColor(status).Sprint(status), report[status])
	}
	fmt.Fprintf(w, "Total: %d\n", report.Total())
}

// renderError prints err under a heading naming its kind, so the operator
// can tell a missing record from a taken codename or a bad field.
func renderError(w io.Writer, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		errorColor.Fprintf(w, "Error: %v\n", err)
		return
	}

	switch appErr.Code {
	case apperrors.CodeAgentNotFound:
		warnColor.Fprintf(w, "Not found: %s\n", appErr.Message)
	case apperrors.CodeDuplicateCodename:
		warnColor.Fprintf(w, "Duplicate codename: %s\n", appErr.Message)
	case apperrors.CodeInvalidInput:
		errorColor.Fprintln(w, "Invalid input:")
		for _, fe := range appErr.FieldErrors {
			fmt.Fprintf(w, "  %s: %s (%s)\n", fe.Field, fe.Message, fe.Code)
		}
	case apperrors.CodeStoreUnavailable:
		errorColor.Fprintf(w, "Record store unavailable: %s\n", appErr.Message)
	default:
		errorColor.Fprintf(w, "Error: %s\n", appErr.Message)
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ErrInvalidInput(apperrors.FieldError{
			Field: "id", Code: apperrors.ReasonBadFormat, Message: "must be a positive integer",
		})
	}
	return id, nil
}

// parseCount parses a non-negative count, returning def for blank input.
func parseCount(field, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ErrInvalidInput(apperrors.FieldError{
			Field: field, Code: apperrors.ReasonBadFormat, Message: "must be an integer",
		})
	}
	return n, nil
}
