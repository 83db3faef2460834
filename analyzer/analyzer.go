package analyzer

import (
	"strings"

	set "github.com/hashicorp/go-set/v3"

	"github.com/broady/stepgen/ir"
)

// Analyzer holds the forests of one target and the dependency index derived
// from them. It is built once per target and is read-only afterwards.
type Analyzer struct {
	target   *Forest
	fields   map[string]*Forest
	typeVars []string
	index    map[string]*set.Set[string]
}

// New walks the target signature and every field type and builds the
// dependency index: for each field, the target type variables that also
// occur in the field's type tree.
func New(target ir.TypeDescriptor, fields []ir.Field) *Analyzer {
	a := &Analyzer{
		target: Walk(target),
		fields: make(map[string]*Forest, len(fields)),
		index:  make(map[string]*set.Set[string], len(fields)),
	}

	own := set.New[string](0)
	for _, tv := range a.target.TypeVariables() {
		a.typeVars = append(a.typeVars, tv.Name)
		own.Insert(tv.Name)
	}

	for _, field := range fields {
		forest := Walk(field.Type)
		a.fields[field.Name] = forest

		deps := set.New[string](0)
		for _, key := range forest.Nodes() {
			if _, ok := forest.Descriptor(key).(*ir.TypeVariable); ok && own.Contains(key) {
				deps.Insert(key)
			}
		}
		a.index[field.Name] = deps
	}
	return a
}

// Target returns the target's forest.
func (a *Analyzer) Target() *Forest { return a.target }

// Field returns the forest of the named field, or nil.
func (a *Analyzer) Field(name string) *Forest { return a.fields[name] }

// TypeVariables returns the target's type variable names in declaration
// order.
func (a *Analyzer) TypeVariables() []string { return a.typeVars }

// GenericsRequiredFor returns the type variables the named fields depend on,
// ordered as the target declares them. Unknown names contribute nothing.
func (a *Analyzer) GenericsRequiredFor(names ...string) []string {
	required := set.New[string](len(a.typeVars))
	for _, name := range names {
		deps, ok := a.index[name]
		if !ok {
			continue
		}
		for _, tv := range deps.Slice() {
			required.Insert(tv)
		}
	}
	var out []string
	for _, tv := range a.typeVars {
		if required.Contains(tv) {
			out = append(out, tv)
		}
	}
	return out
}

// BoundKind distinguishes upper from lower bounds.
type BoundKind int

const (
	BoundNone BoundKind = iota
	BoundExtends
	BoundSuper
)

// Bound is the rendered constraint of a type variable.
type Bound struct {
	Kind  BoundKind
	Types []string
}

// String renders the bound as "extends A & B", "super X" or "".
func (b Bound) String() string {
	switch b.Kind {
	case BoundExtends:
		return "extends " + strings.Join(b.Types, " & ")
	case BoundSuper:
		return "super " + strings.Join(b.Types, " & ")
	default:
		return ""
	}
}

// Constraint renders the bound as a Go type parameter constraint. Lower
// bounds cannot be expressed in Go and render as any.
func (b Bound) Constraint() string {
	if b.Kind != BoundExtends || len(b.Types) == 0 {
		return "any"
	}
	if len(b.Types) == 1 {
		return b.Types[0]
	}
	return "interface{ " + strings.Join(b.Types, "; ") + " }"
}

// BoundFor looks up the bound recorded for a target type variable. A
// non-trivial upper bound wins; otherwise a non-trivial lower bound is used.
func (a *Analyzer) BoundFor(typeVar string) Bound {
	var lower []string
	for _, child := range a.target.Children(typeVar) {
		desc := a.target.Descriptor(child)
		if ir.IsTrivialBound(desc) {
			continue
		}
		if a.target.Has(typeVar, child, UpperBound) {
			return Bound{Kind: BoundExtends, Types: members(desc)}
		}
		if a.target.Has(typeVar, child, LowerBound) {
			lower = members(desc)
		}
	}
	if len(lower) > 0 {
		return Bound{Kind: BoundSuper, Types: lower}
	}
	return Bound{Kind: BoundNone}
}

func members(d ir.TypeDescriptor) []string {
	if in, ok := d.(*ir.IntersectionType); ok {
		out := make([]string, len(in.Members))
		for i, m := range in.Members {
			out[i] = m.Rendered()
		}
		return out
	}
	return []string{d.Rendered()}
}

// TypeParam pairs a type variable with its bound.
type TypeParam struct {
	Name  string
	Bound Bound
}

// TypeParams pairs each name with its bound, preserving order.
func (a *Analyzer) TypeParams(names []string) []TypeParam {
	out := make([]TypeParam, len(names))
	for i, name := range names {
		out[i] = TypeParam{Name: name, Bound: a.BoundFor(name)}
	}
	return out
}
