package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kakes-candy/etl-db-tools/internal/catalog"
)

func newExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <conn> <table>",
		Short: "Print whether a table exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openConn(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeConn(cmd, conn)

			ok, err := catalog.Exists(cmd.Context(), conn, args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ok)
			return err
		},
	}
}
