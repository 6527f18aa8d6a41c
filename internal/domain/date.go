package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/opensea-data/odv-etl/internal/table"
)

// DatePrecision selects the date composition strategy.
type DatePrecision string

const (
	// PrecisionMonth composes YYYY-MM-01 from year and month.
	PrecisionMonth DatePrecision = "month"
	// PrecisionDay composes YYYY-MM-DD[Thh:mm] from year, month, day and an optional time.
	PrecisionDay DatePrecision = "day"
)

// ParseDatePrecision accepts "month" or "day" (case-insensitive).
func ParseDatePrecision(s string) (DatePrecision, error) {
	switch p := DatePrecision(strings.ToLower(strings.TrimSpace(s))); p {
	case PrecisionMonth, PrecisionDay:
		return p, nil
	default:
		return "", fmt.Errorf("unknown date precision %q (want %q or %q)", s, PrecisionMonth, PrecisionDay)
	}
}

// ComposeMonthDates builds "YYYY-MM-01" per row. Year and month are required
// on every row.
func ComposeMonthDates(years, months []table.Value) ([]table.Value, error) {
	if len(years) != len(months) {
		return nil, fmt.Errorf("compose month dates: %w", ErrMisalignedColumn)
	}
	out := make([]table.Value, len(years))
	for i := range years {
		y, m, err := yearMonth(i, years[i], months[i])
		if err != nil {
			return nil, err
		}
		out[i] = table.Str(fmt.Sprintf("%04d-%02d-01", y, m))
	}
	return out, nil
}

// ComposeDayDates builds "YYYY-MM-DD" per row and appends "T"+time when
// times is non-nil and the row's time is present. A nil times slice means
// the unit has no time column.
func ComposeDayDates(years, months, days, times []table.Value) ([]table.Value, error) {
	if len(years) != len(months) || len(years) != len(days) || (times != nil && len(times) != len(years)) {
		return nil, fmt.Errorf("compose day dates: %w", ErrMisalignedColumn)
	}
	out := make([]table.Value, len(years))
	for i := range years {
		y, m, err := yearMonth(i, years[i], months[i])
		if err != nil {
			return nil, err
		}
		d, err := days[i].AsInt()
		if err != nil {
			return nil, fmt.Errorf("row %d: day: %w", i, err)
		}
		s := fmt.Sprintf("%04d-%02d-%02d", y, m, d)
		if times != nil && !times[i].IsMissing() {
			s += "T" + timeOfDay(times[i])
		}
		out[i] = table.Str(s)
	}
	return out, nil
}

// timeOfDay renders a time cell. Workbooks store times as fractions of a
// day; those become hh:mm:ss. Anything else is written as read.
func timeOfDay(v table.Value) string {
	var f float64
	switch v.Kind() {
	case table.KindFloat:
		f, _ = v.Float64()
	case table.KindInt:
		n, _ := v.Int64()
		f = float64(n)
	default:
		return v.String()
	}
	if f < 0 || f >= 1 {
		return v.String()
	}
	secs := int(math.Round(f * 86400))
	if secs >= 86400 {
		secs = 86399
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

func yearMonth(row int, year, month table.Value) (int64, int64, error) {
	y, err := year.AsInt()
	if err != nil {
		return 0, 0, fmt.Errorf("row %d: year: %w", row, err)
	}
	m, err := month.AsInt()
	if err != nil {
		return 0, 0, fmt.Errorf("row %d: month: %w", row, err)
	}
	return y, m, nil
}

// MonthDate returns a Func rule composing month-precision dates from the
// named year and month columns.
func MonthDate(yearCol, monthCol string) Func {
	return Func{
		Name: "month date",
		Fn: func(u Unit) ([]table.Value, error) {
			cols, err := requireColumns(u, yearCol, monthCol)
			if err != nil {
				return nil, err
			}
			return ComposeMonthDates(cols[0], cols[1])
		},
	}
}

// DayDate returns a Func rule composing day-precision dates. timeCol may be
// empty or absent from the unit, in which case no time suffix is written.
func DayDate(yearCol, monthCol, dayCol, timeCol string) Func {
	return Func{
		Name: "day date",
		Fn: func(u Unit) ([]table.Value, error) {
			cols, err := requireColumns(u, yearCol, monthCol, dayCol)
			if err != nil {
				return nil, err
			}
			var times []table.Value
			if timeCol != "" {
				times, _ = u.Table.Column(timeCol)
			}
			return ComposeDayDates(cols[0], cols[1], cols[2], times)
		},
	}
}

// DateFunc returns the date rule for the given precision.
func DateFunc(p DatePrecision, cols DateColumns) (Func, error) {
	switch p {
	case PrecisionMonth:
		return MonthDate(cols.Year, cols.Month), nil
	case PrecisionDay:
		return DayDate(cols.Year, cols.Month, cols.Day, cols.Time), nil
	default:
		return Func{}, fmt.Errorf("unknown date precision %q", p)
	}
}

// DateColumns names the input columns the date rules read.
type DateColumns struct {
	Year  string
	Month string
	Day   string
	Time  string
}

func requireColumns(u Unit, names ...string) ([][]table.Value, error) {
	cols := make([][]table.Value, len(names))
	for i, name := range names {
		col, ok := u.Table.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		cols[i] = col
	}
	return cols, nil
}
