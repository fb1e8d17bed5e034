package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kakes-candy/etl-db-tools/internal/mover"
	"github.com/kakes-candy/etl-db-tools/internal/verify"
)

func newCopyCmd() *cobra.Command {
	var (
		into     string
		bulk     bool
		doVerify bool
	)
	cmd := &cobra.Command{
		Use:   "copy <src-conn> <table> <dst-conn>",
		Short: "Copy a table between connections",
		Long: `Copy every row of a table to another (or the same) connection.

The target table, named by --into and defaulting to the source name, is
created from the source schema when it does not exist. Rows are moved one page
at a time.`,
		Example: `  dbtools copy dwh dbo.plaatsen sqlite:local.db --into main.plaatsen --verify`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			target := into
			if target == "" {
				target = args[1]
			}

			src, err := openConn(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeConn(cmd, src)
			dst, err := openConn(cmd, args[2])
			if err != nil {
				return err
			}
			defer closeConn(cmd, dst)

			opts := []mover.Option{
				mover.WithPageSize(a.cfg.PageSize),
				mover.WithJob(a.cfg.Job),
			}
			if bulk {
				opts = append(opts, mover.WithBulkCopy())
			}
			stats, err := mover.CopyTable(cmd.Context(), src, args[1], dst, target, opts...)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout(), "source", "target", "created", "pages", "rows", "duration")
			tw.AppendRow([]any{args[1], target, stats.Created, stats.Pages, stats.Rows, stats.Duration.Round(time.Millisecond)})
			tw.Render()

			if !doVerify {
				return nil
			}
			res, err := verify.Compare(cmd.Context(), src, args[1], dst, target,
				verify.WithPageSize(a.cfg.PageSize), verify.WithJob(a.cfg.Job))
			if err != nil {
				return err
			}
			return reportVerify(cmd, res)
		},
	}
	cmd.Flags().StringVar(&into, "into", "", "target table name (default: the source name)")
	cmd.Flags().BoolVar(&bulk, "bulk", false, "use the target's bulk load path (SQL Server bulk copy, Postgres COPY)")
	cmd.Flags().BoolVar(&doVerify, "verify", false, "compare source and target after copying")
	return cmd
}
