package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var errNoOutbox = errors.New("the cascade outbox is not available; check outbox.path in the config")

func outboxCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and replay queued cascades",
		Long: `When a project is completed but its invoices cannot be marked Paid,
the project is queued in a local outbox and replayed in the background by
the terminal UI. These commands show and replay the queue by hand.`,
	}
	cmd.AddCommand(outboxListCmd(s))
	cmd.AddCommand(outboxDrainCmd(s))
	return cmd
}

func outboxListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued cascades",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.printer(cmd)
			if err != nil {
				return err
			}
			deps, err := s.open(cmd, true)
			if err != nil {
				return err
			}
			if deps.Outbox == nil {
				return errNoOutbox
			}

			entries, err := deps.Outbox.Pending(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.ProjectID,
					strconv.Itoa(e.Attempts),
					e.LastError,
					e.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			return p.Table(entries, []string{"PROJECT", "ATTEMPTS", "LAST ERROR", "QUEUED"}, rows)
		},
	}
}

type drainReport struct {
	Replayed  int    `json:"replayed" yaml:"replayed"`
	Remaining int    `json:"remaining" yaml:"remaining"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

func outboxDrainCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Replay queued cascades now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.printer(cmd)
			if err != nil {
				return err
			}
			deps, err := s.open(cmd, true)
			if err != nil {
				return err
			}
			if deps.Drainer == nil {
				return errNoOutbox
			}

			res := deps.Drainer.DrainOnce(cmd.Context())
			report := drainReport{Replayed: res.Replayed, Remaining: res.Remaining}
			if res.Error != nil {
				report.Error = res.Error.Error()
			}
			summary := fmt.Sprintf("Replayed %d, %d still queued.", res.Replayed, res.Remaining)
			if err := p.Result(report, summary); err != nil {
				return err
			}
			if res.AuthFailed {
				return fmt.Errorf("the store rejected the API key; run 'workpad login'")
			}
			return nil
		},
	}
}
