package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eagle-eye.io/fieldagent/internal/domain"
	"eagle-eye.io/fieldagent/internal/service"
)

func execute(t *testing.T, svc *service.AgentService, stdin string, args ...string) (string, string, error) {
	t.Helper()
	closed := false
	root, cleanup := NewRootCmd(func(context.Context) (*service.AgentService, func(), error) {
		return svc, func() { closed = true }, nil
	}, "test")

	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	cleanup()
	assert.True(t, closed, "store connection should be released")
	return stdout.String(), stderr.String(), err
}

func TestCommands_AddGetList(t *testing.T) {
	svc := newService(t)

	out, _, err := execute(t, svc, "", "add", "--codename", "Agent_07-X", "-r", "Ann Smith", "-l", "Berlin", "-m", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Agent added successfully! (ID 1)")

	out, _, err = execute(t, svc, "", "get", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Codename: Agent_07-X")
	assert.Contains(t, out, "Status: active")

	out, _, err = execute(t, svc, "", "get", "Agent_07-X")
	require.NoError(t, err)
	assert.Contains(t, out, "ID: 1 |")

	out, _, err = execute(t, svc, "", "list", "--status", "active")
	require.NoError(t, err)
	assert.Contains(t, out, "page 1, 1 of 1 agent(s)")
}

func TestCommands_ErrorsAreRendered(t *testing.T) {
	svc := newService(t)
	seed(t, svc, "Falcon", domain.AgentStatusActive, 0)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"duplicate", []string{"add", "-c", "Falcon", "-r", "A", "-l", "B"}, "Duplicate codename:"},
		{"invalid", []string{"add", "-c", "50%", "-r", "A", "-l", "B"}, "Invalid input:"},
		{"not found", []string{"delete", "9"}, "Not found:"},
		{"bad id", []string{"locate", "x", "Rome"}, "id: must be a positive integer"},
		{"bad status", []string{"status", "set", "1", "sleeping"}, "status:"},
		{"bad limit", []string{"top", "-n", "0"}, "limit:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := execute(t, svc, "", tt.args...)
			require.Error(t, err)
			assert.True(t, IsReported(err))
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestCommands_Lifecycle(t *testing.T) {
	svc := newService(t)
	seed(t, svc, "Falcon", domain.AgentStatusActive, 10)
	seed(t, svc, "Raven", domain.AgentStatusRetired, 5)
	seed(t, svc, "Viper", domain.AgentStatusActive, 20)

	out, _, err := execute(t, svc, "", "missions", "inc", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Raven now has 6 mission(s).")

	out, _, err = execute(t, svc, "", "missions", "add", "2", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Raven now has 9 mission(s).")

	out, _, err = execute(t, svc, "", "locate", "1", "Rome")
	require.NoError(t, err)
	assert.Contains(t, out, "Falcon is in Rome")

	out, _, err = execute(t, svc, "", "status", "set", "1", "ON_MISSION")
	require.NoError(t, err)
	assert.Contains(t, out, "Falcon is now on_mission.")

	out, _, err = execute(t, svc, "", "top", "-n", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Viper")
	assert.Contains(t, lines[1], "Falcon")

	out, _, err = execute(t, svc, "", "search", "VIP")
	require.NoError(t, err)
	assert.Contains(t, out, "Viper")
	assert.NotContains(t, out, "Falcon")

	out, _, err = execute(t, svc, "", "report")
	require.NoError(t, err)
	assert.Contains(t, out, "on_mission: 1 agent(s)")
	assert.Contains(t, out, "Total: 3")

	out, _, err = execute(t, svc, "", "delete", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Agent deleted.")
}

func TestCommands_Menu(t *testing.T) {
	out, _, err := execute(t, newService(t), "6\n0\n", "menu")
	require.NoError(t, err)
	assert.Contains(t, out, "STATUS REPORT")
	assert.Contains(t, out, "No agents found.")
}

func TestCommands_OpenFailure(t *testing.T) {
	root, cleanup := NewRootCmd(func(context.Context) (*service.AgentService, func(), error) {
		return nil, nil, errors.New("connect: refused")
	}, "test")
	defer cleanup()
	root.SetArgs([]string{"report"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.False(t, IsReported(err))
}
