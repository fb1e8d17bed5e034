package mover

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownColumn matches any *UnknownColumnError.
	ErrUnknownColumn = errors.New("mover: unknown column")
	// ErrRowLength matches any *RowLengthError.
	ErrRowLength = errors.New("mover: row length mismatch")
	// ErrEmptyRow matches any *EmptyRowError.
	ErrEmptyRow = errors.New("mover: empty row")
)

// UnknownColumnError reports a row key that is not a column of the target
// table.
type UnknownColumnError struct {
	Table  string
	Column string
	Row    int
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("mover: %q is not a column of %s (row %d)", e.Column, e.Table, e.Row)
}

func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }

// RowLengthError reports a positional row whose length differs from the
// table's column count.
type RowLengthError struct {
	Want int
	Got  int
	Row  int
}

func (e *RowLengthError) Error() string {
	return fmt.Sprintf("expected a row with %d values, got %d (row %d)", e.Want, e.Got, e.Row)
}

func (e *RowLengthError) Unwrap() error { return ErrRowLength }

// EmptyRowError reports a dictionary row without any keys.
type EmptyRowError struct {
	Table string
	Row   int
}

func (e *EmptyRowError) Error() string {
	return fmt.Sprintf("mover: row %d for %s has no columns", e.Row, e.Table)
}

func (e *EmptyRowError) Unwrap() error { return ErrEmptyRow }
