package mover

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kakes-candy/etl-db-tools/internal/catalog"
	"github.com/kakes-candy/etl-db-tools/internal/ddl"
	"github.com/kakes-candy/etl-db-tools/internal/logging"
	"github.com/kakes-candy/etl-db-tools/internal/metrics"
	"github.com/kakes-candy/etl-db-tools/internal/storage"
)

// CopyStats summarises a CopyTable run.
type CopyStats struct {
	// Created is set when the target table did not exist and was created.
	Created  bool
	Pages    int
	Rows     int64
	Duration time.Duration
}

type copyOptions struct {
	pageSize int
	logger   *slog.Logger
	job      string
	bulk     bool
}

// Option configures CopyTable.
type Option func(*copyOptions)

// WithPageSize sets the number of rows read and written per round trip.
func WithPageSize(n int) Option {
	return func(o *copyOptions) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithLogger overrides the logger taken from the context.
func WithLogger(l *slog.Logger) Option {
	return func(o *copyOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithJob sets the job label on recorded metrics.
func WithJob(job string) Option {
	return func(o *copyOptions) { o.job = job }
}

// WithBulkCopy writes pages through the target's native bulk path when it
// has one (storage.BulkCopier). Targets without one use inserts.
func WithBulkCopy() Option {
	return func(o *copyOptions) { o.bulk = true }
}

// CopyTable copies every row of srcName on src into intoName on dst. When
// intoName does not exist it is created from the source schema, rendered in
// the target's dialect. Rows are read page by page and each page is written
// before the next is fetched. src and dst may be the same connection.
//
// A failure leaves the pages written so far in place.
func CopyTable(ctx context.Context, src storage.Conn, srcName string, dst storage.Conn, intoName string, opts ...Option) (stats CopyStats, err error) {
	o := copyOptions{
		pageSize: DefaultPageSize,
		logger:   logging.FromContext(ctx),
		job:      "copy",
	}
	for _, opt := range opts {
		opt(&o)
	}
	ctx = logging.WithLogger(ctx, o.logger)
	log := o.logger.With("source", srcName, "target", intoName)

	start := time.Now()
	defer func() {
		stats.Duration = time.Since(start)
		metrics.RecordOp(o.job, "copy", err, stats.Duration)
	}()

	source, err := catalog.FromConnection(ctx, src, srcName)
	if err != nil {
		return stats, err
	}

	target, created, err := ensureTarget(ctx, dst, source, intoName)
	if err != nil {
		return stats, err
	}
	stats.Created = created
	if created {
		log.Info("target table created")
	}

	write := func(ctx context.Context, groups []rowGroup) (int64, error) {
		return insertRows(ctx, dst, target.Name(), groups...)
	}
	if bc, ok := dst.(storage.BulkCopier); ok && o.bulk {
		write = func(ctx context.Context, groups []rowGroup) (int64, error) {
			return bulkRows(ctx, bc, target.Name(), groups...)
		}
	}

	query := selectAll(src.Catalog(), srcName, source.ColumnNames())
	for raw, ferr := range rawPages(ctx, src, query, o.pageSize) {
		if ferr != nil {
			return stats, ferr
		}
		page := toPage(raw.columns, raw.rows)
		groups, verr := dictGroups(target, page)
		if verr != nil {
			return stats, verr
		}
		n, werr := write(ctx, groups)
		if werr != nil {
			return stats, werr
		}

		stats.Pages++
		stats.Rows += n
		metrics.RecordPages(o.job, 1)
		metrics.RecordRows(o.job, metrics.KindCopied, n)
		log.Info("page copied", "page", stats.Pages, "rows", n, "total", stats.Rows)
	}

	log.Info("copy finished", "pages", stats.Pages, "rows", stats.Rows, "elapsed", time.Since(start).Truncate(time.Millisecond))
	return stats, nil
}

// ensureTarget returns the target table, creating it from source when it
// does not exist.
func ensureTarget(ctx context.Context, dst storage.Conn, source *ddl.Table, name string) (*ddl.Table, bool, error) {
	exists, err := catalog.Exists(ctx, dst, name)
	if err != nil {
		return nil, false, err
	}
	created := false
	if !exists {
		if created, err = catalog.Create(ctx, dst, source.Rename(name), false); err != nil {
			return nil, false, fmt.Errorf("mover: create target: %w", err)
		}
	}
	target, err := catalog.FromConnection(ctx, dst, name)
	if err != nil {
		return nil, false, err
	}
	return target, created, nil
}

func selectAll(cat storage.Catalog, table string, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = cat.QuoteIdent(c)
	}
	return fmt.Sprintf("select %s from %s", strings.Join(quoted, ", "), cat.QuoteTable(table))
}
