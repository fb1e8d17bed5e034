// Package verify compares the contents of two tables, typically the source
// and target of a copy, on possibly different connections and backends.
//
// Each side is reduced to a row count, a sum per numeric column and an
// order-independent fingerprint of the rows. Both sides are scanned in
// parallel; each connection is still used by a single goroutine.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/kakes-candy/etl-db-tools/internal/catalog"
	"github.com/kakes-candy/etl-db-tools/internal/ddl"
	"github.com/kakes-candy/etl-db-tools/internal/logging"
	"github.com/kakes-candy/etl-db-tools/internal/metrics"
	"github.com/kakes-candy/etl-db-tools/internal/mover"
	"github.com/kakes-candy/etl-db-tools/internal/storage"
)

// Summary is the reduction of one table.
type Summary struct {
	Table string
	Rows  int64
	// Sums holds the total of every numeric compared column; nulls count as 0.
	Sums map[string]float64
	// Fingerprint is the wrapping sum of the xxh3 hash of every row, so it
	// does not depend on row order.
	Fingerprint uint64
}

// Result is the outcome of Compare.
type Result struct {
	Columns []string
	Source  Summary
	Target  Summary
	// Diffs describes every difference; empty when the tables match.
	Diffs []string
}

// Match reports whether no difference was found.
func (r Result) Match() bool { return len(r.Diffs) == 0 }

type options struct {
	pageSize int
	columns  []string
	job      string
	logger   *slog.Logger
}

// Option configures Compare.
type Option func(*options)

// WithPageSize sets the fetch size used on both sides.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithColumns restricts the comparison to the named columns.
func WithColumns(cols ...string) Option {
	return func(o *options) { o.columns = cols }
}

// WithJob sets the job label on recorded metrics.
func WithJob(job string) Option {
	return func(o *options) { o.job = job }
}

// WithLogger overrides the logger taken from the context.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Compare reduces srcName on src and dstName on dst and reports the
// differences. By default the columns present in both tables are compared,
// in source order.
func Compare(ctx context.Context, src storage.Conn, srcName string, dst storage.Conn, dstName string, opts ...Option) (res Result, err error) {
	o := options{
		pageSize: mover.DefaultPageSize,
		job:      "verify",
		logger:   logging.FromContext(ctx),
	}
	for _, opt := range opts {
		opt(&o)
	}
	start := time.Now()
	defer func() { metrics.RecordOp(o.job, "verify", err, time.Since(start)) }()

	var srcTable, dstTable *ddl.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		srcTable, err = catalog.FromConnection(gctx, src, srcName)
		return err
	})
	g.Go(func() (err error) {
		dstTable, err = catalog.FromConnection(gctx, dst, dstName)
		return err
	})
	if err := g.Wait(); err != nil {
		return res, err
	}

	cols, err := compareColumns(srcTable, dstTable, o.columns)
	if err != nil {
		return res, err
	}
	res.Columns = cols

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res.Source, err = summarize(gctx, src, srcTable, cols, o.pageSize)
		return err
	})
	g.Go(func() (err error) {
		res.Target, err = summarize(gctx, dst, dstTable, cols, o.pageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return res, err
	}

	res.Diffs = diff(res.Source, res.Target, cols)
	metrics.RecordRows(o.job, metrics.KindCompared, res.Source.Rows+res.Target.Rows)
	o.logger.Info("tables compared",
		"source", srcName, "target", dstName,
		"rows", res.Source.Rows, "match", res.Match(),
		"elapsed", time.Since(start).Truncate(time.Millisecond))
	return res, nil
}

func compareColumns(src, dst *ddl.Table, want []string) ([]string, error) {
	if len(want) > 0 {
		for _, c := range want {
			if src.Index(c) < 0 {
				return nil, fmt.Errorf("verify: %s has no column %q", src.Name(), c)
			}
			if dst.Index(c) < 0 {
				return nil, fmt.Errorf("verify: %s has no column %q", dst.Name(), c)
			}
		}
		return want, nil
	}
	var cols []string
	for _, c := range src.ColumnNames() {
		if dst.Index(c) >= 0 {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("verify: %s and %s have no columns in common", src.Name(), dst.Name())
	}
	return cols, nil
}

func summarize(ctx context.Context, conn storage.Conn, t *ddl.Table, cols []string, pageSize int) (Summary, error) {
	cat := conn.Catalog()
	quoted := make([]string, len(cols))
	families := make([]ddl.Family, len(cols))
	for i, c := range cols {
		quoted[i] = cat.QuoteIdent(c)
		col, _ := t.Column(c)
		families[i] = col.Type.Family()
	}
	query := fmt.Sprintf("select %s from %s", strings.Join(quoted, ", "), cat.QuoteTable(t.Name()))

	s := Summary{Table: t.Name(), Sums: make(map[string]float64)}
	h := xxh3.New()
	for page, err := range mover.Pages(ctx, conn, query, pageSize) {
		if err != nil {
			return s, err
		}
		for _, row := range page {
			h.Reset()
			for i, c := range cols {
				v := row[c]
				_, _ = h.WriteString(canonical(v, families[i]))
				_, _ = h.Write([]byte{0x1f})
				if isNumeric(families[i]) {
					f, _ := toFloat(v)
					s.Sums[c] += f
				}
			}
			s.Fingerprint += h.Sum64()
			s.Rows++
		}
	}
	return s, nil
}

func diff(a, b Summary, cols []string) []string {
	var out []string
	if a.Rows != b.Rows {
		out = append(out, fmt.Sprintf("row count: %d <> %d", a.Rows, b.Rows))
	}
	for _, c := range cols {
		x, okA := a.Sums[c]
		y, okB := b.Sums[c]
		if (okA || okB) && !almostEqual(x, y) {
			out = append(out, fmt.Sprintf("sum(%s): %s <> %s", c, formatNumber(x), formatNumber(y)))
		}
	}
	if a.Fingerprint != b.Fingerprint {
		out = append(out, fmt.Sprintf("fingerprint: %016x <> %016x", a.Fingerprint, b.Fingerprint))
	}
	slices.Sort(out)
	return out
}

func isNumeric(f ddl.Family) bool {
	return f == ddl.FamilyInteger || f == ddl.FamilyDecimal || f == ddl.FamilyFloat
}

// canonical renders v so equal values read from different drivers hash the
// same: numbers by value, times in UTC, everything else as text.
func canonical(v any, fam ddl.Family) string {
	if v == nil {
		return "\x00"
	}
	if isNumeric(fam) {
		if f, ok := toFloat(v); ok {
			return formatNumber(f)
		}
	}
	if t, ok := v.(time.Time); ok {
		return ddl.FormatValue(t.UTC())
	}
	return ddl.FormatValue(v)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func almostEqual(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
