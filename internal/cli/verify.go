package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kakes-candy/etl-db-tools/internal/verify"
)

func newVerifyCmd() *cobra.Command {
	var (
		into    string
		columns []string
	)
	cmd := &cobra.Command{
		Use:   "verify <src-conn> <table> <dst-conn>",
		Short: "Compare row count, numeric sums and a row fingerprint of two tables",
		Long: `Compare a table with its copy. Both sides are reduced to a row count, the
sum of every numeric column and an order-independent fingerprint of all rows.
The command fails when anything differs.`,
		Args: cobra.ExactArgs(3),
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

			res, err := verify.Compare(cmd.Context(), src, args[1], dst, target,
				verify.WithPageSize(a.cfg.PageSize),
				verify.WithJob(a.cfg.Job),
				verify.WithColumns(columns...))
			if err != nil {
				return err
			}
			return reportVerify(cmd, res)
		},
	}
	cmd.Flags().StringVar(&into, "into", "", "target table name (default: the source name)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "compare only these columns")
	return cmd
}

// errMismatch is returned when the compared tables differ.
var errMismatch = errors.New("tables differ")

func reportVerify(cmd *cobra.Command, res verify.Result) error {
	tw := newTable(cmd.OutOrStdout(), "", res.Source.Table, res.Target.Table)
	tw.AppendRow([]any{"rows", res.Source.Rows, res.Target.Rows})
	for _, c := range res.Columns {
		if s, ok := res.Source.Sums[c]; ok {
			tw.AppendRow([]any{"sum(" + c + ")", s, res.Target.Sums[c]})
		}
	}
	tw.AppendRow([]any{"fingerprint", fmt.Sprintf("%016x", res.Source.Fingerprint), fmt.Sprintf("%016x", res.Target.Fingerprint)})
	tw.Render()

	if res.Match() {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "OK: tables match")
		return err
	}
	return fmt.Errorf("%w: %s", errMismatch, strings.Join(res.Diffs, "; "))
}
