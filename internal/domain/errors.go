package domain

import (
	"errors"
	"fmt"

	"github.com/opensea-data/odv-etl/internal/table"
)

var (
	// ErrUnresolvedReference is returned when a Ref rule names a column that
	// has not been produced earlier in the spec.
	ErrUnresolvedReference = errors.New("reference to unproduced column")

	// ErrMissingColumn is returned when a Func rule needs an input column the unit does not have.
	ErrMissingColumn = errors.New("required input column absent")

	ErrEmptyFieldSpec   = errors.New("field spec has no fields")
	ErrDuplicateField   = errors.New("duplicate output column")
	ErrEmptyFieldName   = errors.New("empty output column name")
	ErrNilRule          = errors.New("nil rule")
	ErrMisalignedColumn = errors.New("computed column length differs from row count")
	ErrNilTable         = errors.New("unit has no table")

	ErrNotInteger   = table.ErrNotInteger
	ErrMissingValue = table.ErrMissingValue
)

// TransformError reports a fatal failure while filling one output column of one unit.
type TransformError struct {
	Unit  string
	Field string
	Rule  RuleKind
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("unit %q: column %q (%s rule): %v", e.Unit, e.Field, e.Rule, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }
