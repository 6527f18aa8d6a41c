package domain

import (
	"errors"
	"testing"

	"github.com/opensea-data/odv-etl/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitOf(t *testing.T, label string, names []string, rows [][]table.Value) Unit {
	t.Helper()
	tbl, err := table.FromRows(names, rows)
	require.NoError(t, err)
	return Unit{Label: label, Table: tbl}
}

func TestTransform_EndToEndScenario(t *testing.T) {
	u := unitOf(t, "2024.xlsx",
		[]string{"Year", "Month", "Temperature"},
		[][]table.Value{{table.Int(2024), table.Int(3), table.Str("12.5")}},
	)
	spec := MustFieldSpec(
		Field{"Cruise", Const{table.Str("X")}},
		Field{"yyyy-mm-dd", MonthDate("Year", "Month")},
		Field{"Temperature", Source{"Temperature"}},
	)

	out, err := Transform(u, spec)
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, map[string]table.Value{
		"Cruise":      table.Str("X"),
		"yyyy-mm-dd":  table.Str("2024-03-01"),
		"Temperature": table.Str("12.5"),
	}, out.Row(0))
}

func TestTransform_ColumnFidelity(t *testing.T) {
	// Input column order is unrelated to field order.
	u := unitOf(t, "u",
		[]string{"c", "b", "a", "extra"},
		[][]table.Value{
			{table.Int(3), table.Int(2), table.Int(1), table.Str("x")},
			{table.Int(6), table.Int(5), table.Int(4), table.Str("y")},
		},
	)
	spec := MustFieldSpec(
		Field{"A", Source{"a"}},
		Field{"Z", Const{table.Int(0)}},
		Field{"B", Source{"b"}},
		Field{"Q", Source{"not-there"}},
	)

	out, err := Transform(u, spec)
	require.NoError(t, err)

	assert.Equal(t, spec.Names(), out.Columns())
	assert.Equal(t, u.Table.Len(), out.Len())
}

func TestTransform_SourceAbsentFillsMissing(t *testing.T) {
	u := unitOf(t, "u", []string{"x"}, [][]table.Value{{table.Int(1)}, {table.Int(2)}})
	spec := MustFieldSpec(Field{"pH", Source{"pH-Wert"}})

	out, err := Transform(u, spec)
	require.NoError(t, err)

	col, ok := out.Column("pH")
	require.True(t, ok)
	require.Len(t, col, 2)
	for _, v := range col {
		assert.True(t, v.IsMissing())
	}
}

func TestTransform_SourceCopiesVerbatim(t *testing.T) {
	u := unitOf(t, "u", []string{"t"}, [][]table.Value{{table.Str("07.5")}, {table.Float(7.5)}, {table.Missing()}})
	spec := MustFieldSpec(Field{"T", Source{"t"}})

	out, err := Transform(u, spec)
	require.NoError(t, err)

	col, _ := out.Column("T")
	assert.Equal(t, []table.Value{table.Str("07.5"), table.Float(7.5), table.Missing()}, col)
}

func TestTransform_RefIsIdentical(t *testing.T) {
	u := unitOf(t, "u",
		[]string{"Jahr", "Monat"},
		[][]table.Value{{table.Int(2024), table.Int(1)}, {table.Int(2024), table.Int(12)}},
	)
	spec := MustFieldSpec(
		Field{"yyyy-mm-dd", MonthDate("Jahr", "Monat")},
		Field{"time_ISO8601", Ref{"yyyy-mm-dd"}},
	)

	out, err := Transform(u, spec)
	require.NoError(t, err)

	src, _ := out.Column("yyyy-mm-dd")
	ref, _ := out.Column("time_ISO8601")
	assert.Equal(t, src, ref)
}

func TestTransform_UnresolvedRefIsFatal(t *testing.T) {
	u := unitOf(t, "sheet-1", []string{"x"}, [][]table.Value{{table.Int(1)}})
	// Bypass NewFieldSpec validation to exercise the engine's own check.
	spec := &FieldSpec{fields: []Field{{"copy", Ref{"never"}}}}

	_, err := Transform(u, spec)
	require.ErrorIs(t, err, ErrUnresolvedReference)

	var te *TransformError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "sheet-1", te.Unit)
	assert.Equal(t, "copy", te.Field)
	assert.Equal(t, KindRef, te.Rule)
}

func TestTransform_FuncErrorCarriesContext(t *testing.T) {
	u := unitOf(t, "2019.xlsx", []string{"Longitude"}, [][]table.Value{{table.Int(7884120)}})
	spec := MustFieldSpec(Field{"yyyy-mm-dd", MonthDate("Jahr", "Monat")})

	_, err := Transform(u, spec)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), `unit "2019.xlsx"`)
	assert.Contains(t, err.Error(), `column "yyyy-mm-dd"`)
	assert.Contains(t, err.Error(), "func rule")
}

func TestTransform_FuncSeesUnitLabel(t *testing.T) {
	u := unitOf(t, "Felswatt_2023.xlsx", []string{"x"}, [][]table.Value{{table.Int(1)}, {table.Int(2)}})
	spec := MustFieldSpec(Field{"file", Func{Name: "label", Fn: func(u Unit) ([]table.Value, error) {
		col := make([]table.Value, u.Table.Len())
		for i := range col {
			col[i] = table.Str(u.Label)
		}
		return col, nil
	}}})

	out, err := Transform(u, spec)
	require.NoError(t, err)
	assert.Equal(t, table.Str("Felswatt_2023.xlsx"), out.At(1, "file"))
}

func TestTransform_MisalignedFuncIsFatal(t *testing.T) {
	u := unitOf(t, "u", []string{"x"}, [][]table.Value{{table.Int(1)}, {table.Int(2)}})
	spec := MustFieldSpec(Field{"short", Func{Fn: func(Unit) ([]table.Value, error) {
		return []table.Value{table.Int(1)}, nil
	}}})

	_, err := Transform(u, spec)
	require.ErrorIs(t, err, ErrMisalignedColumn)
}

func TestTransform_DoesNotMutateInput(t *testing.T) {
	u := unitOf(t, "u", []string{"t"}, [][]table.Value{{table.Int(1)}})
	spec := MustFieldSpec(Field{"T", Source{"t"}}, Field{"T2", Ref{"T"}})

	_, err := Transform(u, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, u.Table.Columns())
	assert.Equal(t, table.Int(1), u.Table.At(0, "t"))
}

func TestTransform_EmptyUnit(t *testing.T) {
	tbl, err := table.Empty([]string{"Jahr", "Monat"})
	require.NoError(t, err)
	spec := MustFieldSpec(Field{"Cruise", Const{table.Str("X")}}, Field{"d", MonthDate("Jahr", "Monat")})

	out, err := Transform(Unit{Label: "empty", Table: tbl}, spec)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, []string{"Cruise", "d"}, out.Columns())
}

func TestTransform_NilTable(t *testing.T) {
	_, err := Transform(Unit{Label: "x"}, MustFieldSpec(Field{"a", Const{table.Int(1)}}))
	require.ErrorIs(t, err, ErrNilTable)
}
