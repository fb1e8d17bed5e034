package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kakes-candy/etl-db-tools/internal/catalog"
)

func newDropCmd() *cobra.Command {
	var ifExists bool
	cmd := &cobra.Command{
		Use:   "drop <conn> <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openConn(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeConn(cmd, conn)

			if ifExists {
				ok, err := catalog.Exists(cmd.Context(), conn, args[1])
				if err != nil {
					return err
				}
				if !ok {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: does not exist\n", args[1])
					return err
				}
			}
			if err := catalog.Drop(cmd.Context(), conn, args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: dropped\n", args[1])
			return err
		},
	}
	cmd.Flags().BoolVar(&ifExists, "if-exists", false, "do nothing when the table does not exist")
	return cmd
}
