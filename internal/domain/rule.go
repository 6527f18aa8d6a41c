package domain

import (
	"fmt"
	"slices"

	"github.com/opensea-data/odv-etl/internal/table"
)

// Unit is one input file or sheet: its identifying label and its rows.
type Unit struct {
	Label string
	Table *table.Table
}

// RuleKind names the rule variants.
type RuleKind string

const (
	KindConst  RuleKind = "const"
	KindFunc   RuleKind = "func"
	KindRef    RuleKind = "ref"
	KindSource RuleKind = "source"
)

// Rule fills one output column. The set of implementations is closed:
// Const, Func, Ref and Source.
type Rule interface {
	Kind() RuleKind
	resolve(u Unit, out *partial) ([]table.Value, error)
}

// ColumnFunc computes a column aligned to the unit's rows.
type ColumnFunc func(u Unit) ([]table.Value, error)

// Const broadcasts a literal to every row.
type Const struct {
	Value table.Value
}

// Func computes a column from the unit. Name appears in diagnostics.
type Func struct {
	Name string
	Fn   ColumnFunc
}

// Ref copies an output column produced earlier in the same spec.
type Ref struct {
	Field string
}

// Source copies an input column verbatim, or fills Missing when the unit lacks it.
type Source struct {
	Column string
}

func (Const) Kind() RuleKind  { return KindConst }
func (Func) Kind() RuleKind   { return KindFunc }
func (Ref) Kind() RuleKind    { return KindRef }
func (Source) Kind() RuleKind { return KindSource }

func (r Const) resolve(u Unit, _ *partial) ([]table.Value, error) {
	col := make([]table.Value, u.Table.Len())
	for i := range col {
		col[i] = r.Value
	}
	return col, nil
}

func (r Func) resolve(u Unit, _ *partial) ([]table.Value, error) {
	if r.Fn == nil {
		return nil, ErrNilRule
	}
	col, err := r.Fn(u)
	if err != nil {
		if r.Name != "" {
			return nil, fmt.Errorf("%s: %w", r.Name, err)
		}
		return nil, err
	}
	return col, nil
}

func (r Ref) resolve(_ Unit, out *partial) ([]table.Value, error) {
	col, ok := out.lookup(r.Field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedReference, r.Field)
	}
	return slices.Clone(col), nil
}

func (r Source) resolve(u Unit, _ *partial) ([]table.Value, error) {
	if col, ok := u.Table.Column(r.Column); ok {
		return col, nil
	}
	return make([]table.Value, u.Table.Len()), nil
}

// partial is the output table under construction.
type partial struct {
	names []string
	cols  [][]table.Value
	index map[string]int
}

func newPartial(n int) *partial {
	return &partial{
		names: make([]string, 0, n),
		cols:  make([][]table.Value, 0, n),
		index: make(map[string]int, n),
	}
}

func (p *partial) add(name string, col []table.Value) {
	p.index[name] = len(p.cols)
	p.names = append(p.names, name)
	p.cols = append(p.cols, col)
}

func (p *partial) lookup(name string) ([]table.Value, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.cols[i], true
}
