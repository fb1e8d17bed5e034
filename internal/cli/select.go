package cli

import (
	"github.com/spf13/cobra"

	"github.com/kakes-candy/etl-db-tools/internal/metrics"
	"github.com/kakes-candy/etl-db-tools/internal/mover"
)

func newSelectCmd() *cobra.Command {
	var (
		limit  int
		format string
	)
	cmd := &cobra.Command{
		Use:   "select <conn> <query>",
		Short: "Run a query and print the rows",
		Example: `  dbtools select dwh "select top 10 * from dbo.plaatsen"
  dbtools select sqlite:local.db "select * from t" --format csv --limit 0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openConn(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeConn(cmd, conn)

			res, err := mover.Query(cmd.Context(), conn, args[1], limit)
			if err != nil {
				return err
			}
			metrics.RecordRows(appFrom(cmd.Context()).cfg.Job, metrics.KindSelected, int64(len(res.Rows)))
			return renderResult(cmd.OutOrStdout(), format, res)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows to print (0 for all)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table|json|csv|markdown)")
	return cmd
}
