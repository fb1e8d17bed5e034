// Command dbtools renders, creates, inspects, copies and verifies database
// tables across SQL Server, Postgres, MySQL and SQLite.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kakes-candy/etl-db-tools/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
