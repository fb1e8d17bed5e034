package ddl

import (
	"strings"
)

// DataType is the SQL type name of a column as spelled by SQL Server, e.g.
// "int", "nvarchar" or "datetime2". Dialects other than T-SQL translate the
// name at render time.
type DataType string

// Supported data types.
const (
	Int      DataType = "int"
	TinyInt  DataType = "tinyint"
	SmallInt DataType = "smallint"
	BigInt   DataType = "bigint"
	Bit      DataType = "bit"

	Date           DataType = "date"
	DateTime       DataType = "datetime"
	DateTime2      DataType = "datetime2"
	SmallDateTime  DataType = "smalldatetime"
	Time           DataType = "time"
	DateTimeOffset DataType = "datetimeoffset"

	Decimal DataType = "decimal"
	Numeric DataType = "numeric"

	Float DataType = "float"

	NVarChar DataType = "nvarchar"
	NChar    DataType = "nchar"
	VarChar  DataType = "varchar"
	Char     DataType = "char"
)

// Family groups data types that share one rendering rule.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyInteger
	FamilyDateTime
	FamilyDecimal
	FamilyFloat
	FamilyCharacter
)

func (f Family) String() string {
	switch f {
	case FamilyInteger:
		return "integer"
	case FamilyDateTime:
		return "datetime"
	case FamilyDecimal:
		return "decimal"
	case FamilyFloat:
		return "float"
	case FamilyCharacter:
		return "character"
	default:
		return "unknown"
	}
}

type typeInfo struct {
	family Family
	// maxLength is the largest length rendered literally; character family only.
	maxLength int
}

var types = map[DataType]typeInfo{
	Int:      {family: FamilyInteger},
	TinyInt:  {family: FamilyInteger},
	SmallInt: {family: FamilyInteger},
	BigInt:   {family: FamilyInteger},
	Bit:      {family: FamilyInteger},

	Date:           {family: FamilyDateTime},
	DateTime:       {family: FamilyDateTime},
	DateTime2:      {family: FamilyDateTime},
	SmallDateTime:  {family: FamilyDateTime},
	Time:           {family: FamilyDateTime},
	DateTimeOffset: {family: FamilyDateTime},

	Decimal: {family: FamilyDecimal},
	Numeric: {family: FamilyDecimal},

	Float: {family: FamilyFloat},

	NVarChar: {family: FamilyCharacter, maxLength: 4000},
	NChar:    {family: FamilyCharacter, maxLength: 4000},
	VarChar:  {family: FamilyCharacter, maxLength: 8000},
	Char:     {family: FamilyCharacter, maxLength: 8000},
}

// Canonical returns the lower-cased, trimmed type name.
func (t DataType) Canonical() DataType {
	return DataType(strings.ToLower(strings.TrimSpace(string(t))))
}

// Family reports the rendering family of t, or FamilyUnknown.
func (t DataType) Family() Family {
	return types[t.Canonical()].family
}

// Supported reports whether t can be rendered.
func (t DataType) Supported() bool {
	return t.Family() != FamilyUnknown
}

// MaxLength is the largest character length rendered literally for t; zero
// for non-character types.
func (t DataType) MaxLength() int {
	return types[t.Canonical()].maxLength
}

// SupportedTypes lists every renderable type, grouped by family.
func SupportedTypes() []DataType {
	return []DataType{
		Int, TinyInt, SmallInt, BigInt, Bit,
		Date, DateTime, DateTime2, SmallDateTime, Time, DateTimeOffset,
		Decimal, Numeric,
		Float,
		NVarChar, NChar, VarChar, Char,
	}
}

// Expr is a default value that is emitted verbatim, without quoting. Defaults
// read back from a database catalog are stored as Expr, e.g. "('onbekend')"
// or "(getdate())".
type Expr string

// Column describes a single typed attribute of a table.
//
// A nil Default means the column has no default. Precision zero means "not
// given", which only matters for float (decimal requires a precision).
type Column struct {
	Name      string
	Type      DataType
	Nullable  bool
	Length    int
	Precision int
	Scale     int
	Default   any
}

// Table is a named, ordered set of columns. Column order defines both the
// DDL column order and the value order of positional inserts.
type Table struct {
	name    string
	columns []Column
}
