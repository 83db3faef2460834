// Package constraint orders and invokes the validation checks attached to
// builder fields, and synthesizes defaults for optional fields left unset.
//
// Checks are produced by Generators resolved from a Registry by kind. At each
// validation point, checks run in ascending weight order; checks with a
// weight of HeavyWeight or more run in a second pass, only when the first
// pass recorded no problem.
package constraint

import (
	"sort"

	"github.com/broady/stepgen/ir"
)

// HeavyWeight is the weight at which a check is deferred to the second pass.
const HeavyWeight = 500

// FieldRef identifies the value being validated.
type FieldRef struct {
	// Name is the parameter name, used in problem messages.
	Name string

	// Expr is the Go expression holding the value at the validation point.
	Expr string

	Type ir.TypeDescriptor
}

// TargetInfo describes the target whose builders are being generated.
type TargetInfo struct {
	Builder  string
	Function string
	Package  string
}

// Generator emits the code of one check on one field.
type Generator interface {
	// Kind returns the registry key the generator was resolved from.
	Kind() string

	// Weight orders checks at a validation point. Lighter checks run first.
	Weight() int

	// Generate writes the check for field, reporting failures to problems.
	Generate(w *Code, field FieldRef, problems ProblemSink, target TargetInfo) error

	// DecorateClass adds package-level declarations the check relies on.
	DecorateClass(d *Decorations)

	// ContributeDocComments describes the check in the field's documentation.
	ContributeDocComments(docs *DocSink)
}

// Site is where a generator is attached: one constraint of one field of one
// builder family.
type Site struct {
	Builder string
	Field   ir.Field

	// Ordinal is the index of the constraint among the field's constraints.
	Ordinal int
}

// Ident returns an identifier prefix unique to the site within a package,
// for naming decorations.
func (s Site) Ident() string {
	return lowerFirst(s.Builder) + ir.Capitalize(s.Field.Name)
}

// Factory creates a generator for a site from the constraint argument. It
// reports a bad argument with an invalid_constraint diagnostic.
type Factory func(site Site, arg string) (Generator, error)

// Registry maps constraint kinds to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Resolve creates the generator for one constraint reference.
func (r *Registry) Resolve(site Site, ref ir.ConstraintRef) (Generator, error) {
	f, ok := r.factories[ref.Kind]
	if !ok {
		return nil, ir.Errorf(ir.CodeInvalidConstraint, "unknown constraint kind %q on parameter %s", ref.Kind, site.Field.Name)
	}
	return f(site, ref.Arg)
}

// ForField resolves every check of a field. A nilable field with a forbid
// null policy gets an implicit notnil check when the kind is registered.
func (r *Registry) ForField(builder string, field ir.Field) ([]Generator, error) {
	var gens []Generator
	if field.Nilable && field.NullPolicy == ir.NullForbid {
		if _, ok := r.factories[KindNotNil]; ok {
			g, err := r.Resolve(Site{Builder: builder, Field: field, Ordinal: -1}, ir.ConstraintRef{Kind: KindNotNil})
			if err != nil {
				return nil, err
			}
			gens = append(gens, g)
		}
	}
	for i, ref := range field.Constraints {
		g, err := r.Resolve(Site{Builder: builder, Field: field, Ordinal: i}, ref)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return gens, nil
}

// Entry is one check bound to the value it validates.
type Entry struct {
	Field     FieldRef
	Generator Generator
}

// Plan is the ordered checks of one validation point.
type Plan struct {
	Light []Entry
	Heavy []Entry
}

// NewPlan orders entries by ascending weight, keeping the given order among
// equal weights, and splits off the heavyweight checks.
func NewPlan(entries ...Entry) *Plan {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Generator.Weight() < sorted[j].Generator.Weight()
	})
	p := &Plan{}
	for _, e := range sorted {
		if e.Generator.Weight() >= HeavyWeight {
			p.Heavy = append(p.Heavy, e)
		} else {
			p.Light = append(p.Light, e)
		}
	}
	return p
}

// Empty reports whether the plan has no checks.
func (p *Plan) Empty() bool { return len(p.Light) == 0 && len(p.Heavy) == 0 }

// Emit writes the checks: light ones unconditionally, heavy ones inside a
// guard that no problem has been recorded yet.
func (p *Plan) Emit(w *Code, problems ProblemSink, target TargetInfo) error {
	for _, e := range p.Light {
		if err := e.Generator.Generate(w, e.Field, problems, target); err != nil {
			return err
		}
	}
	if len(p.Heavy) == 0 {
		return nil
	}
	w.Open("if %s", problems.NoneRecorded())
	for _, e := range p.Heavy {
		if err := e.Generator.Generate(w, e.Field, problems, target); err != nil {
			return err
		}
	}
	w.Close()
	return nil
}

// Decorate lets every check in the plan add declarations and docs.
func (p *Plan) Decorate(d *Decorations, docs *DocSink) {
	for _, group := range [][]Entry{p.Light, p.Heavy} {
		for _, e := range group {
			e.Generator.DecorateClass(d)
			e.Generator.ContributeDocComments(docs)
		}
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] += 'a' - 'A'
	}
	return string(r)
}
