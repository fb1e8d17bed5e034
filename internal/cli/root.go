// Package cli provides the dbtools command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kakes-candy/etl-db-tools/internal/config"
	"github.com/kakes-candy/etl-db-tools/internal/logging"
	"github.com/kakes-candy/etl-db-tools/internal/metrics"
	"github.com/kakes-candy/etl-db-tools/internal/metrics/datadog"
	"github.com/kakes-candy/etl-db-tools/internal/metrics/prompush"
	"github.com/kakes-candy/etl-db-tools/internal/storage"
	_ "github.com/kakes-candy/etl-db-tools/internal/storage/all"
)

// Version is set at build time.
var Version = "dev"

type appKey struct{}

// app is the per-invocation state built by the root command.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	cleanup func()
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "dbtools",
		Short: "Table tools for SQL Server, Postgres, MySQL and SQLite",
		Long: `dbtools renders and creates tables from YAML definitions, inspects
database catalogs, and streams, copies and verifies table data between
connections.

Connections are named in the config file (./dbtools.yaml by default) or given
inline as kind:dsn, e.g. sqlite:local.db or postgres://etl@db/dwh.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return setup(cmd, cfgFile)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd.Context())
			if a == nil {
				return nil
			}
			defer a.cleanup()
			if err := metrics.Flush(); err != nil {
				a.log.Warn("metrics flush failed", "err", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	pf.String("log-level", "info", "log level (debug|info|warn|error)")
	pf.String("log-format", "text", "log format (text|json)")
	pf.String("seq-url", "", "ship logs to this Seq server")
	pf.String("metrics", "none", "metrics backend (none|prometheus|datadog)")
	pf.Int("page-size", 5000, "rows fetched per round trip")
	pf.String("job", "dbtools", "job label for metrics")

	_ = root.RegisterFlagCompletionFunc("log-level", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newRenderCmd(),
		newDescribeCmd(),
		newExistsCmd(),
		newListCmd(),
		newCreateCmd(),
		newDropCmd(),
		newSelectCmd(),
		newCopyCmd(),
		newVerifyCmd(),
		newDSNCmd(),
	)
	return root
}

// Execute runs the root command with ctx and reports the error on stderr.
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func setup(cmd *cobra.Command, cfgFile string) error {
	cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}

	log, closeLog, err := logging.Setup(logging.Options{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		SeqURL:    cfg.Log.SeqURL,
		AddSource: cfg.Log.AddSource,
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		if iss.Severity == config.SeverityWarning {
			log.Warn("config", "path", iss.Path, "msg", iss.Message)
		}
	}
	if config.HasErrors(issues) {
		closeLog()
		for _, iss := range issues {
			if iss.Severity == config.SeverityError {
				return iss
			}
		}
	}

	if err := setupMetrics(cfg); err != nil {
		closeLog()
		return err
	}
	if cfg.File != "" {
		log.Debug("using config file", "path", cfg.File)
	}

	ctx := logging.WithLogger(cmd.Context(), log)
	ctx = context.WithValue(ctx, appKey{}, &app{cfg: cfg, log: log, cleanup: closeLog})
	cmd.SetContext(ctx)
	return nil
}

func setupMetrics(cfg *config.Config) error {
	switch cfg.Metrics.Backend {
	case "prometheus":
		b, err := prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DatadogAddr,
			Namespace:  cfg.Metrics.Namespace,
			GlobalTags: cfg.Metrics.Tags,
		})
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	}
	return nil
}

func appFrom(ctx context.Context) *app {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(appKey{}).(*app)
	return a
}

// openConn resolves ref against the config and opens it. The caller closes
// the connection.
func openConn(cmd *cobra.Command, ref string) (storage.Conn, error) {
	a := appFrom(cmd.Context())
	if a == nil {
		return nil, fmt.Errorf("cli: not initialised")
	}
	sc, err := a.cfg.Resolve(ref)
	if err != nil {
		return nil, err
	}
	conn, err := storage.Open(cmd.Context(), sc)
	if err != nil {
		return nil, err
	}
	a.log.Debug("connected", "conn", ref, "kind", sc.Kind)
	return conn, nil
}

// closeConn closes conn and logs a failure.
func closeConn(cmd *cobra.Command, conn storage.Conn) {
	if err := conn.Close(); err != nil {
		logging.FromContext(cmd.Context()).Warn("close connection", "err", err)
	}
}
