package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"eagle-eye.io/fieldagent/internal/domain"
	"eagle-eye.io/fieldagent/internal/service"
)

// Opener connects to the record store and returns the service plus a
// function releasing the connection.
type Opener func(ctx context.Context) (*service.AgentService, func(), error)

// errReported marks an error already rendered for the operator.
type errReported struct{ err error }

func (e errReported) Error() string { return e.err.Error() }
func (e errReported) Unwrap() error { return e.err }

// IsReported reports whether err was already printed by a subcommand.
func IsReported(err error) bool {
	var reported errReported
	return errors.As(err, &reported)
}

type session struct {
	open   Opener
	agents *service.AgentService
	close  func()
}

// NewRootCmd builds the agentctl command tree. The returned cleanup releases
// the store connection opened by whichever command ran.
func NewRootCmd(open Opener, version string) (*cobra.Command, func()) {
	s := &session{open: open}

	root := &cobra.Command{
		Use:           "agentctl",
		Short:         "Eagle Eye field agent console",
		Long:          "agentctl manages field agent records: an interactive menu plus one-shot commands.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			agents, closeFn, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			s.agents, s.close = agents, closeFn
			return nil
		},
	}

	root.AddCommand(
		s.menuCmd(),
		s.listCmd(),
		s.getCmd(),
		s.addCmd(),
		s.locateCmd(),
		s.deleteCmd(),
		s.searchCmd(),
		s.reportCmd(),
		s.missionsCmd(),
		s.statusCmd(),
		s.topCmd(),
	)
	cleanup := func() {
		if s.close != nil {
			s.close()
			s.close = nil
		}
	}
	return root, cleanup
}

// run executes fn and renders its error the way the menu does.
func (s *session) run(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	if err := fn(cmd.Context()); err != nil {
		renderError(cmd.ErrOrStderr(), err)
		return errReported{err}
	}
	return nil
}

func (s *session) menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Run the interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return NewMenu(s.agents, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
}

func (s *session) listCmd() *cobra.Command {
	var (
		status string
		skip   int
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agents in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.run(cmd, func(ctx context.Context) error {
				in := service.ListAgentsInput{Offset: skip, Limit: limit}
				if status != "" {
					st := domain.AgentStatus(strings.ToLower(status))
					in.Status = &st
				}
				page, err := s.agents.List(ctx, in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				renderAgents(out, page.Agents)
				dimColor.Fprintf(out, "page %d, %d of %d agent(s)\n", page.Page, page.Size, page.Total)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "only agents with this status")
	cmd.Flags().IntVar(&skip, "skip", 0, "records to skip")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "page size")
	return cmd
}

func (s *session) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|codename>",
		Short: "Show one agent by id or codename",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd, func(ctx context.Context) error {
				var (
					agent *domain.Agent
					err   error
				)
				if id, perr := parseID(args[0]); perr == nil {
					agent, err = s.agents.GetByID(ctx, id)
				} else {
					agent, err = s.agents.GetByCodename(ctx, args[0])
				}
				if err != nil {
					return err
				}
				renderAgent(cmd.OutOrStdout(), agent)
				return nil
			})
		},
	}
}

func (s *session) addCmd() *cobra.Command {
	var in service.CreateAgentInput
	var status string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.run(cmd, func(ctx context.Context) error {
				in.Status = domain.AgentStatus(strings.ToLower(status))
				agent, err := s.agents.Create(ctx, in)
				if err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "Agent added successfully! (ID %d)\n", agent.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&in.Codename, "codename", "c", "", "unique codename")
	cmd.Flags().StringVarP(&in.RealName, "realname", "r", "", "real name")
	cmd.Flags().StringVarP(&in.Location, "location", "l", "", "current location")
	cmd.Flags().StringVarP(&status, "status", "s", string(domain.AgentStatusActive), "status ("+statusChoices()+")")
	cmd.Flags().IntVarP(&in.MissionsCompleted, "missions", "m", 0, "missions completed")
	return cmd
}

func (s *session) locateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate <id> <location>",
		Short: "Update an agent's location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd, func(ctx context.Context) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				agent, err := s.agents.UpdateLocation(ctx, id, args[1])
				if err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "Location updated: %s is in %s\n", agent.Codename, agent.Location)
				return nil
			})
		},
	}
}

func (s *session) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd, func(ctx context.Context) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := s.agents.Delete(ctx, id); err != nil {
					return err
				}
				successColor.Fprintln(cmd.OutOrStdout(), "Agent deleted.")
				return nil
			})
		},
	}
}

func (s *session) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search agents by codename or real name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd, func(ctx context.Context) error {
				agents, err := s.agents.Search(ctx, args[0])
				if err != nil {
					return err
				}
				renderAgents(cmd.OutOrStdout(), agents)
				return nil
			})
		},
	}
}

func (s *session) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Count agents per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.run(cmd, func(ctx context.Context) error {
				report, err := s.agents.StatusReport(ctx)
				if err != nil {
					return err
				}
				renderReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
}

func (s *session) missionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missions",
		Short: "Update mission counters",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <id> <count>",
			Short: "Add count completed missions",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.run(cmd, func(ctx context.Context) error {
					id, err := parseID(args[0])
					if err != nil {
						return err
					}
					count, err := parseCount("count", args[1], 1)
					if err != nil {
						return err
					}
					agent, err := s.agents.AddMissions(ctx, id, count)
					if err != nil {
						return err
					}
					successColor.Fprintf(cmd.OutOrStdout(), "%s now has %d mission(s).\n", agent.Codename, agent.MissionsCompleted)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "inc <id>",
			Short: "Record one completed mission",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.run(cmd, func(ctx context.Context) error {
					id, err := parseID(args[0])
					if err != nil {
						return err
					}
					agent, err := s.agents.IncrementMissions(ctx, id)
					if err != nil {
						return err
					}
					successColor.Fprintf(cmd.OutOrStdout(), "%s now has %d mission(s).\n", agent.Codename, agent.MissionsCompleted)
					return nil
				})
			},
		},
	)
	return cmd
}

func (s *session) statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Manage agent status",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <id> <status>",
		Short: "Set an agent's status (" + statusChoices() + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd, func(ctx context.Context) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				agent, err := s.agents.SetStatus(ctx, id, domain.AgentStatus(strings.ToLower(args[1])))
				if err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "%s is now %s.\n", agent.Codename, agent.Status)
				return nil
			})
		},
	})
	return cmd
}

func (s *session) topCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "List top performers by missions completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.run(cmd, func(ctx context.Context) error {
				agents, err := s.agents.TopPerformers(ctx, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for i, a := range agents {
					fmt.Fprintf(out, "%2d. ", i+1)
					renderAgent(out, a)
				}
				if len(agents) == 0 {
					renderAgents(out, agents)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "how many agents")
	return cmd
}
