package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/service"
)

func invoicesCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoices",
		Aliases: []string{"invoice"},
		Short:   "Manage invoices",
	}
	cmd.AddCommand(invoicesListCmd(s))
	cmd.AddCommand(invoicesAddCmd(s))
	cmd.AddCommand(invoicesPayCmd(s))
	cmd.AddCommand(invoicesDeleteCmd(s))
	return cmd
}

func invoicesListCmd(s *session) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices, newest first",
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

			var invoices []model.Invoice
			if projectID != "" {
				invoices = deps.Service.ListInvoicesByProject(cmd.Context(), projectID)
			} else {
				invoices = deps.Service.ListInvoices(cmd.Context())
			}

			rows := make([][]string, 0, len(invoices))
			for _, inv := range invoices {
				rows = append(rows, []string{
					inv.ID, inv.Number, inv.ProjectID, money(inv.Amount), inv.Date, inv.Status,
				})
			}
			return p.Table(invoices,
				[]string{"ID", "NUMBER", "PROJECT", "AMOUNT", "DATE", "STATUS"}, rows)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "only invoices of this project")
	return cmd
}

func invoicesAddCmd(s *session) *cobra.Command {
	var in service.InvoiceInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Issue an invoice against a project",
		Long: `Issue an invoice against a project. Without --number one is generated;
without --date today is used.

Examples:
  workpad invoices add --project 12 --amount 500
  workpad invoices add --project 12 --amount 500 --number INV-0001 --date 2025-03-01
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.printer(cmd)
			if err != nil {
				return err
			}
			if err := service.ValidateInvoice(in, true); err != nil {
				return err
			}
			deps, err := s.open(cmd, true)
			if err != nil {
				return err
			}
			if !deps.Service.CreateInvoice(cmd.Context(), in) {
				return errWriteFailed("create invoice")
			}
			return p.Result(writeResult{OK: true}, "Invoice created.")
		},
	}
	cmd.Flags().StringVar(&in.ProjectID, "project", "", "billed project id (required)")
	cmd.Flags().StringVar(&in.Amount, "amount", "", "amount (required)")
	cmd.Flags().StringVar(&in.Number, "number", "", "invoice number; generated when empty")
	cmd.Flags().StringVar(&in.Date, "date", "", "issue date as YYYY-MM-DD; today when empty")
	cmd.Flags().StringVar(&in.Status, "status", "", "Pending, Paid or Cancelled")
	return cmd
}

func invoicesPayCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <project-id>",
		Short: "Mark every invoice of a project Paid",
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
			if !deps.Service.MarkInvoicesPaid(cmd.Context(), args[0]) {
				return errWriteFailed("mark invoices paid")
			}
			return p.Result(writeResult{OK: true, ID: args[0]},
				fmt.Sprintf("Invoices of project %s marked Paid.", args[0]))
		},
	}
}

func invoicesDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <invoice-id>",
		Short: "Delete an invoice",
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
			if !deps.Service.DeleteInvoice(cmd.Context(), args[0]) {
				return errWriteFailed("delete invoice")
			}
			return p.Result(writeResult{OK: true, ID: args[0]}, "Invoice deleted.")
		},
	}
}
