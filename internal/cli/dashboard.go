package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func dashboardCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show record counts and revenue",
		Long: `Show record counts and revenue.

Revenue sums every invoice whatever its status. Paid and outstanding split
it by status; cancelled invoices count in neither.`,
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

			st := deps.Service.Dashboard(cmd.Context())
			rows := [][]string{
				{"Clients", strconv.Itoa(st.Clients)},
				{"Projects", strconv.Itoa(st.Projects)},
				{"Invoices", strconv.Itoa(st.Invoices)},
				{"Revenue", money(st.Revenue)},
				{"Paid", money(st.PaidRevenue)},
				{"Outstanding", money(st.OutstandingRevenue)},
			}
			if err := p.Table(st, []string{"METRIC", "VALUE"}, rows); err != nil {
				return fmt.Errorf("printing dashboard: %w", err)
			}
			return nil
		},
	}
}
