package domain

import (
	"fmt"

	"github.com/opensea-data/odv-etl/internal/table"
)

// DecodeCoordinate converts a packed D,MMM,SSS integer to decimal degrees.
// Missing decodes to Missing; a value that is not integer-valued is an error.
func DecodeCoordinate(raw table.Value) (table.Value, error) {
	if raw.IsMissing() {
		return table.Missing(), nil
	}
	n, err := raw.AsInt()
	if err != nil {
		return table.Missing(), fmt.Errorf("decode coordinate: %w", err)
	}
	return table.Float(decodePacked(n)), nil
}

func decodePacked(n int64) float64 {
	sign := 1.0
	x := uint64(n)
	if n < 0 {
		sign = -1.0
		x = uint64(-(n + 1)) + 1
	}

	deg := x / 1_000_000
	mmm := (x / 1_000) % 1_000
	sss := x % 1_000

	minutes := float64(mmm) * 60.0 / 1000.0
	seconds := float64(sss) * 60.0 / 1000.0

	return sign * (float64(deg) + minutes/60.0 + seconds/3600.0)
}

// DecodeCoordinates decodes a column element-wise, keeping Missing entries.
func DecodeCoordinates(col []table.Value) ([]table.Value, error) {
	out := make([]table.Value, len(col))
	for i, v := range col {
		d, err := DecodeCoordinate(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}

// CoordinateFunc returns a Func rule that decodes the named input column.
// A unit without that column is a configuration error.
func CoordinateFunc(column string) Func {
	return Func{
		Name: "decode " + column,
		Fn: func(u Unit) ([]table.Value, error) {
			col, ok := u.Table.Column(column)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrMissingColumn, column)
			}
			return DecodeCoordinates(col)
		},
	}
}
