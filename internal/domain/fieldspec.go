package domain

import (
	"fmt"
	"slices"
)

// Field is one output column and the rule that fills it.
type Field struct {
	Name string
	Rule Rule
}

// FieldSpec is the ordered output schema. It is immutable once built.
type FieldSpec struct {
	fields []Field
}

// NewFieldSpec validates and freezes an ordered list of fields. The list must
// not be empty. Names must be non-empty and unique, every rule must be set, and a Ref may only point at a
// field declared before it.
func NewFieldSpec(fields ...Field) (*FieldSpec, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("field spec: %w", ErrEmptyFieldSpec)
	}
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field spec: entry %d: %w", i, ErrEmptyFieldName)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("field spec: %w: %q", ErrDuplicateField, f.Name)
		}
		switch r := f.Rule.(type) {
		case nil:
			return nil, fmt.Errorf("field spec: %q: %w", f.Name, ErrNilRule)
		case Func:
			if r.Fn == nil {
				return nil, fmt.Errorf("field spec: %q: %w", f.Name, ErrNilRule)
			}
		case Ref:
			if _, ok := seen[r.Field]; !ok {
				return nil, fmt.Errorf("field spec: %q: %w: %q", f.Name, ErrUnresolvedReference, r.Field)
			}
		case Const, Source:
		default:
			return nil, fmt.Errorf("field spec: %q: unsupported rule %T", f.Name, r)
		}
		seen[f.Name] = struct{}{}
	}
	return &FieldSpec{fields: slices.Clone(fields)}, nil
}

// MustFieldSpec is NewFieldSpec for static specs; it panics on an invalid spec.
func MustFieldSpec(fields ...Field) *FieldSpec {
	s, err := NewFieldSpec(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of output columns.
func (s *FieldSpec) Len() int { return len(s.fields) }

// Names returns the output column names in order.
func (s *FieldSpec) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a copy of the spec entries.
func (s *FieldSpec) Fields() []Field { return slices.Clone(s.fields) }
