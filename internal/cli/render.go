package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kakes-candy/etl-db-tools/internal/config"
	"github.com/kakes-candy/etl-db-tools/internal/ddl"
)

func newRenderCmd() *cobra.Command {
	var dialect, as string
	cmd := &cobra.Command{
		Use:   "render <table.yaml>",
		Short: "Print the create table statement of a table definition",
		Example: `  dbtools render plaatsen.yaml
  dbtools render plaatsen.yaml --dialect postgres --as public.plaatsen`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := config.LoadTable(args[0])
			if err != nil {
				return err
			}
			if as != "" {
				t = t.Rename(as)
			}
			d, err := ddl.LookupDialect(dialect)
			if err != nil {
				return err
			}
			stmt, err := t.CreateTableStatementFor(d)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), stmt)
			return err
		},
	}
	cmd.Flags().StringVar(&dialect, "dialect", ddl.TSQL.Name(), "SQL dialect")
	cmd.Flags().StringVar(&as, "as", "", "render under another table name")
	_ = cmd.RegisterFlagCompletionFunc("dialect", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return ddl.Dialects(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
