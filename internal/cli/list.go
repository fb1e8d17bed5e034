package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kakes-candy/etl-db-tools/internal/catalog"
)

func newListCmd() *cobra.Command {
	var (
		schema string
		filter catalog.Filter
	)
	cmd := &cobra.Command{
		Use:   "list <conn>",
		Short: "List tables in catalog order",
		Example: `  dbtools list dwh --schema staging --starts-with stg_
  dbtools list sqlite:local.db --contains orders`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openConn(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeConn(cmd, conn)

			if !cmd.Flags().Changed("schema") {
				schema = conn.Catalog().DefaultSchema()
			}
			names, err := catalog.ListTables(cmd.Context(), conn, schema, filter)
			if err != nil {
				return err
			}
			for _, n := range names {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), n); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "schema to list (default: the connection's default schema; empty lists all where supported)")
	cmd.Flags().StringVar(&filter.StartsWith, "starts-with", "", "keep tables whose name starts with this prefix")
	cmd.Flags().StringVar(&filter.Contains, "contains", "", "keep tables whose name contains this text")
	return cmd
}
