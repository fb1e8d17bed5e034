package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kakes-candy/etl-db-tools/internal/ddl"
	"github.com/kakes-candy/etl-db-tools/internal/mover"
)

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}
	return t
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return ddl.FormatValue(x)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func renderColumns(w io.Writer, t *ddl.Table) {
	tw := newTable(w, "#", "name", "type", "nullable", "length", "precision", "scale", "default")
	for i, c := range t.Columns() {
		def := ""
		if c.Default != nil {
			def = ddl.FormatValue(c.Default)
		}
		tw.AppendRow(table.Row{i + 1, c.Name, string(c.Type), c.Nullable, c.Length, c.Precision, c.Scale, def})
	}
	tw.SetTitle(t.Name())
	tw.Render()
}

func renderResult(w io.Writer, format string, res *mover.Result) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		rows := res.Rows
		if rows == nil {
			rows = []mover.Row{}
		}
		return enc.Encode(rows)
	case "csv":
		tw := newTable(w, headerRow(res.Columns)...)
		appendRows(tw, res)
		tw.RenderCSV()
		return nil
	case "md", "markdown":
		tw := newTable(w, headerRow(res.Columns)...)
		appendRows(tw, res)
		tw.RenderMarkdown()
		return nil
	case "", "table":
		if len(res.Rows) == 0 {
			_, _ = fmt.Fprintln(w, "(0 rows)")
			return nil
		}
		tw := newTable(w, headerRow(res.Columns)...)
		appendRows(tw, res)
		tw.Render()
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
		return nil
	default:
		return fmt.Errorf("unknown format %q (table|json|csv|markdown)", format)
	}
}

func headerRow(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func appendRows(tw table.Writer, res *mover.Result) {
	for _, r := range res.Rows {
		row := make(table.Row, len(res.Columns))
		for i, c := range res.Columns {
			row[i] = formatCell(r[c])
		}
		tw.AppendRow(row)
	}
}
