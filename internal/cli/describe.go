package cli

import (
	"github.com/spf13/cobra"

	"github.com/kakes-candy/etl-db-tools/internal/catalog"
	"github.com/kakes-candy/etl-db-tools/internal/config"
)

func newDescribeCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "describe <conn> <table>",
		Short: "Show the columns of a table as read from the database catalog",
		Long: `Show the columns of a table as read from the database catalog.

With --yaml the table is printed as a definition file that render and create
accept, which makes describe a way to clone a schema between servers.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openConn(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeConn(cmd, conn)

			t, err := catalog.FromConnection(cmd.Context(), conn, args[1])
			if err != nil {
				return err
			}
			if asYAML {
				b, err := config.MarshalTable(t)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			renderColumns(cmd.OutOrStdout(), t)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print a table definition file")
	return cmd
}
