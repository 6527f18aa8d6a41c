package domain

import (
	"math"
	"testing"

	"github.com/opensea-data/odv-etl/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFloat(t *testing.T, raw table.Value) float64 {
	t.Helper()
	v, err := DecodeCoordinate(raw)
	require.NoError(t, err)
	f, ok := v.Float64()
	require.True(t, ok, "expected float, got %s", v.Kind())
	return f
}

func TestDecodeCoordinate_KnownValue(t *testing.T) {
	// deg=52, mmm=301 -> 18.06 min, sss=500 -> 30.0 s
	want := 52 + 18.06/60.0 + 30.0/3600.0
	assert.InDelta(t, want, decodeFloat(t, table.Int(52301500)), 1e-9)
	assert.InDelta(t, 52.309333333, decodeFloat(t, table.Int(52301500)), 1e-9)
}

func TestDecodeCoordinate_Zero(t *testing.T) {
	assert.Equal(t, 0.0, decodeFloat(t, table.Int(0)))
}

func TestDecodeCoordinate_NegativeIsMirrored(t *testing.T) {
	pos := decodeFloat(t, table.Int(7_884_120))
	neg := decodeFloat(t, table.Int(-7_884_120))
	assert.InDelta(t, -pos, neg, 1e-12)
	assert.Less(t, neg, 0.0)
}

func TestDecodeCoordinate_AcceptsIntegralFloatAndString(t *testing.T) {
	assert.InDelta(t, decodeFloat(t, table.Int(54181250)), decodeFloat(t, table.Float(54181250)), 1e-12)
	assert.InDelta(t, decodeFloat(t, table.Int(54181250)), decodeFloat(t, table.Str("54181250")), 1e-12)
}

func TestDecodeCoordinate_Missing(t *testing.T) {
	v, err := DecodeCoordinate(table.Missing())
	require.NoError(t, err)
	assert.True(t, v.IsMissing())
}

func TestDecodeCoordinate_RejectsNonInteger(t *testing.T) {
	_, err := DecodeCoordinate(table.Str("54°11'"))
	require.ErrorIs(t, err, ErrNotInteger)

	_, err = DecodeCoordinate(table.Float(52301500.5))
	require.ErrorIs(t, err, ErrNotInteger)

	_, err = DecodeCoordinate(table.Float(math.Exp2(63)))
	require.ErrorIs(t, err, ErrNotInteger)
}

func TestDecodeCoordinate_MinInt64KeepsSign(t *testing.T) {
	neg := decodeFloat(t, table.Int(math.MinInt64))
	pos := decodeFloat(t, table.Int(math.MaxInt64))
	assert.Less(t, neg, 0.0)
	assert.Greater(t, pos, 0.0)
}

func TestDecodeCoordinate_Bounds(t *testing.T) {
	for _, deg := range []int64{0, 1, 54, 90, 179, 180} {
		for _, mmm := range []int64{0, 1, 500, 999} {
			for _, sss := range []int64{0, 1, 500, 999} {
				x := deg*1_000_000 + mmm*1_000 + sss
				got := decodeFloat(t, table.Int(x))
				assert.LessOrEqual(t, math.Abs(got), 181.0, "x=%d", x)
				assert.GreaterOrEqual(t, got, 0.0, "x=%d", x)
				if x != 0 {
					assert.Less(t, decodeFloat(t, table.Int(-x)), 0.0, "x=%d", -x)
				}
			}
		}
	}
}

func TestDecodeCoordinates_PreservesMissing(t *testing.T) {
	out, err := DecodeCoordinates([]table.Value{table.Int(52301500), table.Missing(), table.Int(0)})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.False(t, out[0].IsMissing())
	assert.True(t, out[1].IsMissing())
	assert.Equal(t, table.Float(0), out[2])
}

func TestDecodeCoordinates_ReportsRow(t *testing.T) {
	_, err := DecodeCoordinates([]table.Value{table.Int(1), table.Str("n/a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestCoordinateFunc_AbsentColumnIsFatal(t *testing.T) {
	u := unitOf(t, "a.xlsx", []string{"Latitude"}, [][]table.Value{{table.Int(54181250)}})

	_, err := CoordinateFunc("Longitude").Fn(u)
	require.ErrorIs(t, err, ErrMissingColumn)
}
