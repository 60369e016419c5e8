package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/workpad/internal/app"
	"github.com/nhle/workpad/internal/model"
)

// session carries the root flags and the lazily built Deps through a
// single command invocation.
type session struct {
	boot       Bootstrapper
	configPath string
	envFile    string
	output     string
	deps       *Deps
}

// open bootstraps on first use so that login and logout work without a
// reachable store.
func (s *session) open(cmd *cobra.Command, console bool) (*Deps, error) {
	if s.deps != nil {
		return s.deps, nil
	}
	deps, err := s.boot(cmd.Context(), Options{
		ConfigPath: s.configPath,
		EnvFile:    s.envFile,
		Console:    console,
	})
	if err != nil {
		return nil, err
	}
	s.deps = deps
	return deps, nil
}

func (s *session) close() error {
	if s.deps == nil {
		return nil
	}
	err := s.deps.Close()
	s.deps = nil
	return err
}

func (s *session) printer(cmd *cobra.Command) (Printer, error) {
	f, err := ParseFormat(s.output)
	if err != nil {
		return Printer{}, err
	}
	return Printer{Format: f, Out: cmd.OutOrStdout()}, nil
}

// Execute runs the command tree with args and always releases whatever
// the command opened.
func Execute(ctx context.Context, boot Bootstrapper, args []string) error {
	cmd, s := newRoot(boot)
	defer s.close()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCmd builds the workpad command tree. Without a subcommand it
// starts the terminal UI.
func NewRootCmd(boot Bootstrapper) *cobra.Command {
	cmd, _ := newRoot(boot)
	return cmd
}

func newRoot(boot Bootstrapper) (*cobra.Command, *session) {
	s := &session{boot: boot}

	cmd := &cobra.Command{
		Use:   "workpad",
		Short: "WorkPad - clients, projects and invoices for freelancers",
		Long: `WorkPad keeps track of clients, the projects you do for them and the
invoices you send. Completing a project marks all of its invoices paid.

Run without arguments to open the terminal UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := s.open(cmd, false)
			if err != nil {
				return err
			}
			p := tea.NewProgram(app.New(deps.Service, deps.Drainer), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running terminal UI: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close()
		},
	}

	cmd.PersistentFlags().StringVar(&s.configPath, "config", model.DefaultConfigPath(), "config file")
	cmd.PersistentFlags().StringVar(&s.envFile, "env-file", ".env", "dotenv file loaded before the config")
	cmd.PersistentFlags().StringVarP(&s.output, "output", "o", string(FormatTable), "output format: table, json or yaml")

	cmd.AddCommand(dashboardCmd(s))
	cmd.AddCommand(clientsCmd(s))
	cmd.AddCommand(projectsCmd(s))
	cmd.AddCommand(invoicesCmd(s))
	cmd.AddCommand(completeCmd(s))
	cmd.AddCommand(outboxCmd(s))
	cmd.AddCommand(loginCmd(s))
	cmd.AddCommand(logoutCmd())

	return cmd, s
}
