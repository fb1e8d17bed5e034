package ddl

import "fmt"

// Render returns the T-SQL column definition of c, e.g.
//
//	breuk decimal(5,2) default 0.0
//	Nvarchar nvarchar(max) not null default 'onbekend'
//
// See Rules.RenderColumn for the per-family rules.
func (c Column) Render() (string, error) {
	return TSQL.RenderColumn(c)
}

// RenderFor renders c in dialect d.
func (c Column) RenderFor(d Dialect) (string, error) {
	return d.RenderColumn(c)
}

// String is a one-line diagnostic description of c. It never fails, even for
// unsupported types.
func (c Column) String() string {
	def := "none"
	if c.Default != nil {
		def = FormatValue(c.Default)
	}
	return fmt.Sprintf(
		"column: name: %s, type: %s, length: %d, precision: %d, scale: %d, default: %s",
		c.Name, c.Type, c.Length, c.Precision, c.Scale, def,
	)
}
