package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/service"
)

func projectsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(projectsListCmd(s))
	cmd.AddCommand(projectsAddCmd(s))
	cmd.AddCommand(projectsStatusCmd(s))
	cmd.AddCommand(projectsDeleteCmd(s))
	return cmd
}

func projectsListCmd(s *session) *cobra.Command {
	var clientID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
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

			var projects []model.Project
			if clientID != "" {
				projects = deps.Service.ListProjectsByClient(cmd.Context(), clientID)
			} else {
				projects = deps.Service.ListProjects(cmd.Context())
			}

			rows := make([][]string, 0, len(projects))
			for _, pr := range projects {
				rows = append(rows, []string{
					pr.ID, pr.Title, pr.ClientID, pr.Status,
					strconv.Itoa(pr.Progress()) + "%",
					money(pr.Price), pr.Deadline,
				})
			}
			return p.Table(projects,
				[]string{"ID", "TITLE", "CLIENT", "STATUS", "PROGRESS", "PRICE", "DEADLINE"}, rows)
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "only projects of this client")
	return cmd
}

func projectsAddCmd(s *session) *cobra.Command {
	var in service.ProjectInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project for a client",
		Long: `Create a project for a client.

Examples:
  workpad projects add --client 7 --title Website --price 1200
  workpad projects add --client 7 --title Logo --price "350,50" --status "In Progress"
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.printer(cmd)
			if err != nil {
				return err
			}
			if err := service.ValidateProject(in, true); err != nil {
				return err
			}
			deps, err := s.open(cmd, true)
			if err != nil {
				return err
			}
			if !deps.Service.CreateProject(cmd.Context(), in) {
				return errWriteFailed("create project")
			}
			return p.Result(writeResult{OK: true}, fmt.Sprintf("Project %q created.", in.Title))
		},
	}
	cmd.Flags().StringVar(&in.ClientID, "client", "", "owning client id (required)")
	cmd.Flags().StringVar(&in.Title, "title", "", "project title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "free text")
	cmd.Flags().StringVar(&in.Price, "price", "", "price; a comma is read as the decimal point")
	cmd.Flags().StringVar(&in.Deadline, "deadline", "", "deadline, e.g. 2025-12-31")
	cmd.Flags().StringVar(&in.Status, "status", "", "Pending, In Progress or Completed")
	return cmd
}

func projectsStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status <project-id> <status>",
		Short: "Change a project's status",
		Long: `Change a project's status. Moving it to Completed marks all of its
invoices Paid; if that fails the cascade is queued and replayed later.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setStatus(cmd, s, args[0], args[1])
		},
	}
}

func completeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <project-id>",
		Short: "Mark a project Completed and its invoices Paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setStatus(cmd, s, args[0], model.ProjectStatusCompleted)
		},
	}
}

func setStatus(cmd *cobra.Command, s *session, id, status string) error {
	p, err := s.printer(cmd)
	if err != nil {
		return err
	}
	if !model.IsProjectStatus(status) {
		return fmt.Errorf("unknown status %q (want Pending, In Progress or Completed)", status)
	}
	deps, err := s.open(cmd, true)
	if err != nil {
		return err
	}

	res := deps.Service.SetProjectStatus(cmd.Context(), id, status)
	if !res.Saved {
		return errWriteFailed("update project")
	}

	summary := fmt.Sprintf("Project %s is now %s.", id, status)
	switch res.Cascade {
	case service.CascadeApplied:
		summary += " Its invoices are marked Paid."
	case service.CascadeQueued:
		summary += " Marking its invoices Paid failed and was queued; run 'workpad outbox drain' to retry."
	case service.CascadeFailed:
		summary += " Marking its invoices Paid failed."
	}
	return p.Result(writeResult{OK: true, ID: id, Cascade: res.Cascade.String()}, summary)
}

func projectsDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project with its invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.printer(cmd)
			if err != nil {
				return err
			}
			deps, err := s.open(cmd, true)
			if err != nil {
				return err
			}
			if !deps.Service.DeleteProject(cmd.Context(), args[0]) {
				return errWriteFailed("delete project")
			}
			return p.Result(writeResult{OK: true, ID: args[0]}, "Project deleted.")
		},
	}
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
