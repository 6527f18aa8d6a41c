package domain

import (
	"fmt"

	"github.com/opensea-data/odv-etl/internal/table"
)

// Transform applies spec to one unit and returns a new table with exactly
// the field spec's columns, in field-spec order, and the unit's row count. The unit's
// table is only read.
func Transform(u Unit, spec *FieldSpec) (*table.Table, error) {
	if u.Table == nil {
		return nil, fmt.Errorf("unit %q: %w", u.Label, ErrNilTable)
	}
	rows := u.Table.Len()
	out := newPartial(spec.Len())

	for _, f := range spec.fields {
		if f.Rule == nil {
			return nil, &TransformError{Unit: u.Label, Field: f.Name, Err: ErrNilRule}
		}
		col, err := f.Rule.resolve(u, out)
		if err != nil {
			return nil, &TransformError{Unit: u.Label, Field: f.Name, Rule: f.Rule.Kind(), Err: err}
		}
		if len(col) != rows {
			return nil, &TransformError{
				Unit:  u.Label,
				Field: f.Name,
				Rule:  f.Rule.Kind(),
				Err:   fmt.Errorf("%w: got %d, want %d", ErrMisalignedColumn, len(col), rows),
			}
		}
		out.add(f.Name, col)
	}

	return table.New(out.names, out.cols)
}
