package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kakes-candy/etl-db-tools/internal/storage/mssql"
)

func newDSNCmd() *cobra.Command {
	var (
		driver, server, database string
		params                   []string
		parse                    string
	)
	cmd := &cobra.Command{
		Use:   "dsn",
		Short: "Build a SQL Server connection string",
		Long: `Build an ODBC style SQL Server connection string and show the DSN the
go-mssqldb driver opens it with. --parse reads an existing string instead.`,
		Example: `  dbtools dsn --driver "ODBC Driver 18 for SQL Server" --server sql01 --database dwh \
      --param UID=etl --param TrustServerCertificate=yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cs mssql.ConnString
			if parse != "" {
				var err error
				if cs, err = mssql.ParseConnString(parse); err != nil {
					return err
				}
			} else {
				if server == "" {
					return fmt.Errorf("--server is required")
				}
				cs = mssql.NewConnString(driver, server, database)
			}
			for _, p := range params {
				k, v, ok := strings.Cut(p, "=")
				if !ok || strings.TrimSpace(k) == "" {
					return fmt.Errorf("--param %q: want key=value", p)
				}
				cs = cs.With(strings.TrimSpace(k), v)
			}

			dsn := cs.DSN()
			if _, err := mssql.NormalizeDSN(dsn); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "odbc:   %s\n", cs); err != nil {
				return err
			}
			_, err := fmt.Fprintf(out, "driver: %s\n", dsn)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&driver, "driver", "ODBC Driver 18 for SQL Server", "ODBC driver name")
	f.StringVar(&server, "server", "", "server[\\instance][,port]")
	f.StringVar(&database, "database", "", "database name")
	f.StringArrayVar(&params, "param", nil, "extra key=value parameter (repeatable)")
	f.StringVar(&parse, "parse", "", "existing ODBC connection string")
	return cmd
}
