package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/service"
)

func clientsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"client"},
		Short:   "Manage clients",
	}
	cmd.AddCommand(clientsListCmd(s))
	cmd.AddCommand(clientsAddCmd(s))
	cmd.AddCommand(clientsDeleteCmd(s))
	return cmd
}

func clientsListCmd(s *session) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients, newest first",
		Long: `List clients, newest first.

Examples:
  workpad clients list
  workpad clients list --search acme -o json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.printer(cmd)
			if err != nil {
				return err
			}
			deps, err := s.open(cmd, true)
			if err != nil {
				return err
			}

			clients := service.SearchClients(deps.Service.ListClients(cmd.Context()), search)
			rows := make([][]string, 0, len(clients))
			for _, c := range clients {
				rows = append(rows, []string{c.ID, c.Name, c.Email, c.FormattedPhone(), c.Location.String()})
			}
			return p.Table(clients, []string{"ID", "NAME", "EMAIL", "PHONE", "LOCATION"}, rows)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only clients whose name or email contains this text")
	return cmd
}

func clientsAddCmd(s *session) *cobra.Command {
	var (
		in       service.ClientInput
		location string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a client",
		Long: `Create a client. --logo takes a local image, which is uploaded, or a URL.

Examples:
  workpad clients add --name "Acme Corp" --email ops@acme.io --location 40.41,-3.70
  workpad clients add --name Globex --logo ./globex.png
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.printer(cmd)
			if err != nil {
				return err
			}
			loc, err := model.ParseGeoPoint(location)
			if err != nil {
				return err
			}
			in.Location = loc
			if err := service.ValidateClient(in); err != nil {
				return err
			}

			deps, err := s.open(cmd, true)
			if err != nil {
				return err
			}
			if !deps.Service.CreateClient(cmd.Context(), in) {
				return errWriteFailed("create client")
			}
			return p.Result(writeResult{OK: true}, fmt.Sprintf("Client %q created.", in.Name))
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "client name (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&in.Address, "address", "", "postal address")
	cmd.Flags().StringVar(&location, "location", "", `coordinates as "lat,lng"`)
	cmd.Flags().StringVar(&in.Logo, "logo", "", "logo image path or URL")
	return cmd
}

func clientsDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <client-id>",
		Short: "Delete a client with its projects and invoices",
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
			if !deps.Service.DeleteClient(cmd.Context(), args[0]) {
				return errWriteFailed("delete client")
			}
			return p.Result(writeResult{OK: true, ID: args[0]}, "Client deleted.")
		},
	}
}

// writeResult is the machine-readable outcome of a write command.
type writeResult struct {
	OK      bool   `json:"ok" yaml:"ok"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Cascade string `json:"cascade,omitempty" yaml:"cascade,omitempty"`
}

func errWriteFailed(what string) error {
	return fmt.Errorf("could not %s; see the log for the store's reply", what)
}
