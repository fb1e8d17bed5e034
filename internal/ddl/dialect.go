package ddl

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Dialect renders column definitions for one SQL dialect.
type Dialect interface {
	Name() string
	RenderColumn(c Column) (string, error)
}

// Rules is the rendering table shared by all dialects. Every dialect renders
// the same type families with the same layout:
//
//	<name> <type>[(<length>|<precision>[,<scale>])][ not null][ default <value>]
//
// and only differs in how it spells types. TSQL is the zero-override case.
type Rules struct {
	// DialectName is returned by Name.
	DialectName string

	// TypeNames overrides the spelling of a type. Types without an entry are
	// written with their T-SQL name.
	TypeNames map[DataType]string

	// MaxTypes overrides the spelling of a character type whose length is out
	// of range (<= 0 or above DataType.MaxLength).
	MaxTypes map[DataType]string

	// MaxToken is written as the length of an out-of-range character type
	// that has no MaxTypes entry, e.g. "max" gives nvarchar(max). When empty
	// the bare type name is written.
	MaxToken string
}

// TSQL renders SQL Server DDL. It is the reference dialect used by
// Column.Render and Table.CreateTableStatement.
var TSQL Dialect = &Rules{DialectName: "mssql", MaxToken: "max"}

// Name implements Dialect.
func (r *Rules) Name() string { return r.DialectName }

// RenderColumn implements Dialect. It dispatches on the type family of c and
// fails without partial output for unsupported types.
func (r *Rules) RenderColumn(c Column) (string, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", fmt.Errorf("%w: column with empty name", ErrInvalidColumn)
	}
	typ := c.Type.Canonical()

	var (
		sb     strings.Builder
		quoted bool
	)
	sb.WriteString(name)
	sb.WriteByte(' ')

	switch typ.Family() {
	case FamilyInteger:
		sb.WriteString(r.typeName(typ))

	case FamilyDateTime:
		sb.WriteString(r.typeName(typ))
		quoted = true

	case FamilyDecimal:
		if c.Precision <= 0 {
			return "", fmt.Errorf("%w: column %s: %s requires a precision", ErrInvalidColumn, name, typ)
		}
		fmt.Fprintf(&sb, "%s(%d,%d)", r.typeName(typ), c.Precision, c.Scale)

	case FamilyFloat:
		sb.WriteString(r.typeName(typ))
		if c.Precision > 0 {
			fmt.Fprintf(&sb, "(%d)", c.Precision)
		}

	case FamilyCharacter:
		if c.Length > 0 && c.Length <= typ.MaxLength() {
			fmt.Fprintf(&sb, "%s(%d)", r.typeName(typ), c.Length)
		} else {
			sb.WriteString(r.maxTypeName(typ))
		}
		quoted = true

	default:
		return "", &DataTypeNotImplementedError{Column: name, Type: c.Type}
	}

	if !c.Nullable {
		sb.WriteString(" not null")
	}
	if c.Default != nil {
		sb.WriteString(" default ")
		sb.WriteString(renderDefault(c.Default, quoted))
	}
	return sb.String(), nil
}

func (r *Rules) typeName(t DataType) string {
	if s, ok := r.TypeNames[t]; ok {
		return s
	}
	return string(t)
}

func (r *Rules) maxTypeName(t DataType) string {
	if s, ok := r.MaxTypes[t]; ok {
		return s
	}
	if r.MaxToken == "" {
		return r.typeName(t)
	}
	return r.typeName(t) + "(" + r.MaxToken + ")"
}

// renderDefault formats a default value. Expr is always verbatim; other
// values are single-quoted (with embedded quotes doubled) when quoted is set.
func renderDefault(v any, quoted bool) string {
	if e, ok := v.(Expr); ok {
		return string(e)
	}
	s := FormatValue(v)
	if !quoted {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// FormatValue renders a Go value as an unquoted SQL literal. Floats always
// carry a decimal point (0.0, 1.5) so a float default is distinguishable
// from an integer one.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case Expr:
		return string(x)
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return formatFloat(x, 64)
	case float32:
		return formatFloat(float64(x), 32)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05.999999999")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64, bits int) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{TSQL.Name(): TSQL}
)

// RegisterDialect registers (or replaces) a dialect under its name. Backend
// packages call it from init.
func RegisterDialect(d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[d.Name()] = d
}

// LookupDialect returns the dialect registered under name.
func LookupDialect(name string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	dialectMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("ddl: no dialect registered for %q", name)
	}
	return d, nil
}

// Dialects returns the registered dialect names in sorted order.
func Dialects() []string {
	dialectMu.RLock()
	defer dialectMu.RUnlock()
	out := make([]string, 0, len(dialects))
	for name := range dialects {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
