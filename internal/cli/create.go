package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kakes-candy/etl-db-tools/internal/catalog"
	"github.com/kakes-candy/etl-db-tools/internal/config"
)

func newCreateCmd() *cobra.Command {
	var (
		dropIfExists bool
		as           string
	)
	cmd := &cobra.Command{
		Use:   "create <conn> <table.yaml>",
		Short: "Create a table from a definition file",
		Long: `Create a table from a definition file, rendered in the connection's dialect.

An existing table is left alone and reported, unless --drop-if-exists is set.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := config.LoadTable(args[1])
			if err != nil {
				return err
			}
			if as != "" {
				t = t.Rename(as)
			}

			conn, err := openConn(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeConn(cmd, conn)

			created, err := catalog.Create(cmd.Context(), conn, t, dropIfExists)
			if err != nil {
				return err
			}
			msg := "created"
			if !created {
				msg = "already exists, not created"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", t.Name(), msg)
			return err
		},
	}
	cmd.Flags().BoolVar(&dropIfExists, "drop-if-exists", false, "drop an existing table first")
	cmd.Flags().StringVar(&as, "as", "", "create under another table name")
	return cmd
}
