package ddl

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidColumn is returned when a column cannot be part of a table,
	// e.g. it has no name or its name is already taken.
	ErrInvalidColumn = errors.New("ddl: invalid column")

	// ErrInvalidTable is returned for tables without a name or without
	// columns at render time.
	ErrInvalidTable = errors.New("ddl: invalid table")

	// ErrDataTypeNotImplemented matches any *DataTypeNotImplementedError.
	ErrDataTypeNotImplemented = errors.New("data type not implemented")
)

// DataTypeNotImplementedError reports a column whose type has no rendering rule.
type DataTypeNotImplementedError struct {
	Column string
	Type   DataType
}

func (e *DataTypeNotImplementedError) Error() string {
	return fmt.Sprintf("ddl: data type not implemented: %q (column %s)", string(e.Type), e.Column)
}

// Is makes errors.Is(err, ErrDataTypeNotImplemented) succeed.
func (e *DataTypeNotImplementedError) Is(target error) bool {
	return target == ErrDataTypeNotImplemented
}
