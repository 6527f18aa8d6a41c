package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMissingValue is returned when a Missing value is coerced to a concrete type.
	ErrMissingValue = errors.New("missing value")

	// ErrNotInteger is returned when a value cannot be coerced to an integer.
	ErrNotInteger = errors.New("value is not an integer")
)

// Kind identifies the scalar type held by a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single cell. The zero Value is Missing, which is distinct from
// an empty string and from zero.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Missing returns the absent-value sentinel.
func Missing() Value { return Value{} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating-point value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Str returns a string value. An empty string is a value, not Missing.
func Str(v string) Value { return Value{kind: KindString, s: v} }

// Kind reports the scalar type of v.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the absent-value sentinel.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Int64 returns the integer payload and whether v is KindInt.
func (v Value) Int64() (int64, bool) { return v.i, v.kind == KindInt }

// Float64 returns the float payload and whether v is KindFloat.
func (v Value) Float64() (float64, bool) { return v.f, v.kind == KindFloat }

// Text returns the string payload and whether v is KindString.
func (v Value) Text() (string, bool) { return v.s, v.kind == KindString }

// String renders v the way it is written to a delimited text file.
// Missing renders as an empty string.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// AsInt coerces v to an integer. Integral floats and strings holding an
// integer (or an integral float) are accepted; anything else fails.
func (v Value) AsInt() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		return floatToInt(v.f)
	case KindString:
		s := strings.TrimSpace(v.s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotInteger, v.s)
		}
		return floatToInt(f)
	default:
		return 0, ErrMissingValue
	}
}

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v", ErrNotInteger, f)
	}
	// float64(math.MaxInt64) rounds up to 2^63.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v out of range", ErrNotInteger, f)
	}
	return int64(f), nil
}

// Parse infers a Value from raw cell text: empty text is Missing, then
// integer, then float, otherwise the text itself.
func Parse(raw string) Value {
	if raw == "" {
		return Missing()
	}
	s := strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Float(f)
	}
	return Str(raw)
}
