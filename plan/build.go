package plan

import (
	"fmt"
	"go/token"
	"sort"
	"strings"

	"github.com/broady/stepgen/analyzer"
	"github.com/broady/stepgen/constraint"
	"github.com/broady/stepgen/ir"
	"github.com/broady/stepgen/lattice"
)

// Options configure Build. Per-target directive options take precedence.
type Options struct {
	// Registry resolves constraint kinds. Nil means constraint.DefaultRegistry().
	Registry *constraint.Registry

	// Ceiling is the largest required-field count generated as a lattice.
	Ceiling int

	// Version is the code generation version. Zero means DefaultVersion.
	Version int

	// Strategy selects lattice or flat generation. Empty means lattice.
	Strategy ir.Strategy
}

// Build plans the builder family of one target. A target whose required
// fields exceed the ceiling is planned flat and reported with a
// SCALE_FALLBACK warning. Every other failure is a fatal diagnostic.
func Build(target *ir.Target, opts Options) (*File, []ir.Warning, error) {
	var warnings []ir.Warning
	if target.Signature == nil {
		return nil, nil, ir.Errorf(ir.CodeUnsupportedShape, "%s has no signature", target.Name.Name)
	}

	version := opts.Version
	if target.Options.Version != 0 {
		version = target.Options.Version
	}
	if version == 0 {
		version = DefaultVersion
	}
	if version < MinVersion || version > MaxVersion {
		return nil, nil, ir.Errorf(ir.CodeVersionSkew,
			"version %d is not supported (want %d to %d)", version, MinVersion, MaxVersion)
	}

	strategy := opts.Strategy
	if target.Options.Strategy != "" {
		strategy = target.Options.Strategy
	}
	if !strategy.Valid() {
		return nil, nil, ir.Errorf(ir.CodeInvalidDirective, "unknown strategy %q", strategy)
	}
	if strategy == "" {
		strategy = ir.StrategyLattice
	}

	ceiling := opts.Ceiling
	if target.Options.Ceiling != 0 {
		ceiling = target.Options.Ceiling
	}

	registry := opts.Registry
	if registry == nil {
		registry = constraint.DefaultRegistry()
	}

	p, err := newPlanner(target, registry, version)
	if err != nil {
		return nil, nil, err
	}

	if strategy == ir.StrategyLattice {
		l, err := lattice.Build(p.model, p.analyzer, lattice.Options{Root: p.file.Builder, Ceiling: ceiling})
		switch {
		case ir.IsCode(err, ir.CodeScaleViolation):
			d, _ := ir.AsDiagnostic(err)
			src := target.Source
			warnings = append(warnings, ir.Warning{
				Code:    WarnScaleFallback,
				Message: d.Message + "; generating a flat builder",
				Source:  &src,
				Target:  target.Name.Name,
			})
			strategy = ir.StrategyFlat
		case err != nil:
			return nil, nil, err
		default:
			p.planLattice(l)
		}
	}
	if strategy == ir.StrategyFlat {
		p.planFlat()
	}
	p.file.Strategy = strategy

	if err := p.finish(); err != nil {
		return nil, nil, err
	}
	return p.file, warnings, nil
}

// planner carries the per-target state used while building skeletons.
type planner struct {
	target   *ir.Target
	model    *ir.FieldModel
	analyzer *analyzer.Analyzer
	file     *File
	info     constraint.TargetInfo

	// per field name
	checks     map[string][]string
	defaulters map[string]constraint.Defaulter
	members    map[string]string
	flags      map[string]string

	decorations *constraint.Decorations
	docs        *constraint.DocSink
	imports     map[string]bool
}

func newPlanner(target *ir.Target, registry *constraint.Registry, version int) (*planner, error) {
	builder := target.BuilderName()
	p := &planner{
		target:      target,
		model:       ir.NewFieldModel(target.Fields),
		analyzer:    analyzer.New(target.Signature, target.Fields),
		checks:      make(map[string][]string),
		defaulters:  make(map[string]constraint.Defaulter),
		members:     make(map[string]string),
		flags:       make(map[string]string),
		decorations: constraint.NewDecorations(),
		docs:        constraint.NewDocSink(),
		imports:     make(map[string]bool),
		info: constraint.TargetInfo{
			Builder:  builder,
			Function: target.Name.Name,
			Package:  target.Package.Name,
		},
	}

	p.file = &File{
		Package:      target.Package,
		Target:       target.Name.Name,
		Builder:      builder,
		Version:      version,
		ReturnsError: target.ReturnsError,
		Signature:    target.Signature,
		Fields:       target.Fields,
	}
	if target.Result != nil {
		p.file.Result = target.Result.Rendered()
	}
	if !target.Documentation.IsZero() {
		p.file.Doc = strings.Split(strings.TrimSpace(target.Documentation.Body), "\n")
	}

	p.pickNames()

	sink := constraint.SliceSink{Var: p.file.Problems}
	for _, id := range p.model.All() {
		field := p.model.Field(id)
		gens, err := registry.ForField(builder, field)
		if err != nil {
			return nil, err
		}
		entries := make([]constraint.Entry, len(gens))
		for i, g := range gens {
			entries[i] = constraint.Entry{
				Field:     constraint.FieldRef{Name: field.Name, Expr: field.Name, Type: field.Type},
				Generator: g,
			}
		}
		cp := constraint.NewPlan(entries...)
		cp.Decorate(p.decorations, p.docs)
		w := constraint.NewCode()
		if err := cp.Emit(w, sink, p.info); err != nil {
			return nil, err
		}
		p.checks[field.Name] = w.Lines()
		for _, path := range w.Imports() {
			p.imports[path] = true
		}

		if !field.Required {
			d, err := constraint.DefaulterFor(field)
			if err != nil {
				return nil, err
			}
			p.defaulters[field.Name] = d
		}
	}
	return p, nil
}

// pickNames chooses member, flag, receiver and problem-list names that do not
// collide with any parameter.
func (p *planner) pickNames() {
	taken := make(map[string]bool)
	for _, id := range p.model.All() {
		name := p.model.Field(id).Name
		taken[name] = true
		p.members[name] = name
	}
	for _, id := range p.model.All() {
		name := p.model.Field(id).Name
		p.flags[name] = unique(name+"Set", taken)
	}
	p.file.Problems = unique("problems", taken)
	p.file.Receiver = unique("b", taken)
}

func unique(name string, taken map[string]bool) string {
	for taken[name] {
		name += "_"
	}
	taken[name] = true
	return name
}

func (p *planner) typeParams(names []string) []TypeParam {
	var out []TypeParam
	for _, tp := range p.analyzer.TypeParams(names) {
		out = append(out, TypeParam{Name: tp.Name, Constraint: tp.Bound.Constraint()})
	}
	return out
}

// ordered returns the union of a and b in target declaration order.
func (p *planner) ordered(a, b []string) []string {
	in := make(map[string]bool, len(a)+len(b))
	for _, n := range a {
		in[n] = true
	}
	for _, n := range b {
		in[n] = true
	}
	var out []string
	for _, n := range p.analyzer.TypeVariables() {
		if in[n] {
			out = append(out, n)
		}
	}
	return out
}

func (p *planner) param(field ir.Field) Param {
	typ := field.Type.Rendered()
	if field.Variadic {
		if arr, ok := field.Type.(*ir.ArrayType); ok {
			typ = "..." + arr.Elem.Rendered()
		}
	}
	return Param{Name: field.Name, Type: typ, Variadic: field.Variadic}
}

func (p *planner) fieldDoc(method string, field ir.Field) []string {
	doc := []string{fmt.Sprintf("%s sets %s.", method, field.Name)}
	if !field.Documentation.IsZero() {
		doc = append(doc, strings.TrimSpace(field.Documentation.Summary))
	}
	doc = append(doc, p.docs.Lines(field.Name)...)
	return doc
}

func (p *planner) setters() []Setter {
	var out []Setter
	for _, id := range p.model.Optional() {
		out = append(out, p.setter(p.model.Field(id)))
	}
	return out
}

func (p *planner) setter(field ir.Field) Setter {
	s := Setter{
		Method:  ir.Capitalize(field.Name),
		Field:   field.Name,
		Param:   p.param(field),
		SetFlag: p.flags[field.Name],
		Doc:     p.fieldDoc(ir.Capitalize(field.Name), field),
	}
	if p.file.Version < Version2 {
		s.Validation = p.checks[field.Name]
	}
	return s
}

// setterChecks validates, at build time, each of ids that was supplied
// through a setter. Setting a field again replaces the value checked, so
// an earlier bad value leaves no problem behind.
func (p *planner) setterChecks(ids []ir.FieldID) []string {
	if p.file.Version < Version2 {
		return nil
	}
	recv := p.file.Receiver
	var out []string
	for _, id := range ids {
		field := p.model.Field(id)
		lines := p.checks[field.Name]
		if len(lines) == 0 {
			continue
		}
		out = append(out,
			fmt.Sprintf("if %s.%s {", recv, p.flags[field.Name]),
			fmt.Sprintf("\t%s := %s.%s", field.Name, recv, p.members[field.Name]),
		)
		for _, line := range lines {
			out = append(out, "\t"+line)
		}
		out = append(out, "}")
	}
	return out
}

func (p *planner) optionalMembers() []Member {
	var out []Member
	for _, id := range p.model.Optional() {
		field := p.model.Field(id)
		out = append(out, Member{
			Name:    p.members[field.Name],
			Type:    field.Type.Rendered(),
			Mutable: true,
			SetFlag: p.flags[field.Name],
		})
	}
	return out
}

func (p *planner) optionalInit(recv string) []FieldInit {
	var out []FieldInit
	for _, id := range p.model.Optional() {
		field := p.model.Field(id)
		m, flag := p.members[field.Name], p.flags[field.Name]
		out = append(out,
			FieldInit{Member: m, Expr: recv + "." + m},
			FieldInit{Member: flag, Expr: recv + "." + flag},
		)
	}
	return out
}

// construction fills the defaults, arguments and call of a build method.
// supplied maps field names to the expression holding their value; the
// remaining fields are read from the receiver.
func (p *planner) construction(b *BuildMethod, supplied map[string]string) {
	recv := p.file.Receiver
	for _, id := range p.model.Params() {
		field := p.model.Field(id)
		expr, ok := supplied[field.Name]
		if !ok {
			expr = recv + "." + p.members[field.Name]
			if d, isOpt := p.defaulters[field.Name]; isOpt && !d.IsNoOp() {
				w := constraint.NewCode()
				d.Generate(w, field.Name, recv+"."+p.flags[field.Name], expr)
				b.Defaults = append(b.Defaults, w.Lines()...)
				expr = field.Name
			}
		}
		if field.Variadic {
			expr += "..."
		}
		b.Args = append(b.Args, expr)
	}
	fn := instantiate(p.target.Name.Name, p.analyzer.TypeVariables())
	b.Call = fn + "(" + strings.Join(b.Args, ", ") + ")"
}

func (p *planner) planLattice(l *lattice.Lattice) {
	f := p.file
	recv := f.Receiver
	f.States = len(l.States())

	for _, s := range l.Emitted() {
		c := &Class{
			Name:       s.Name,
			TypeParams: p.typeParams(s.Generics),
			Setters:    p.setters(),
		}
		for _, id := range l.Fields(s.Used) {
			field := p.model.Field(id)
			c.Fields = append(c.Fields, Member{Name: p.members[field.Name], Type: field.Type.Rendered()})
		}
		c.Fields = append(c.Fields, p.optionalMembers()...)
		c.Doc = p.classDoc(l, s)

		if s.ID == l.Root().ID {
			c.Entry = p.entry()
		}

		for _, t := range s.Transitions {
			field := p.model.Field(t.Field)
			child := l.State(t.Target)
			tr := Transition{
				Method:         ir.Capitalize(field.Name),
				Field:          field.Name,
				Param:          p.param(field),
				Return:         child.Name,
				ReturnTypeArgs: child.Generics,
				NewTypeParams:  p.typeParams(t.NewGenerics),
				Validation:     p.checks[field.Name],
			}
			if len(t.NewGenerics) > 0 {
				tr.Func = true
				tr.Method = s.Name + "Set" + ir.Capitalize(field.Name)
				tr.TypeParams = p.typeParams(p.ordered(s.Generics, t.NewGenerics))
			}
			tr.Doc = p.fieldDoc(tr.Method, field)
			for _, id := range l.Fields(child.Used) {
				m := p.members[p.model.Field(id).Name]
				expr := recv + "." + m
				if id == t.Field {
					expr = field.Name
				}
				tr.Init = append(tr.Init, FieldInit{Member: m, Expr: expr})
			}
			tr.Init = append(tr.Init, p.optionalInit(recv)...)
			c.Transitions = append(c.Transitions, tr)
		}

		if s.Build != nil {
			b := &BuildMethod{
				Method:        "Build",
				NewTypeParams: p.typeParams(s.Build.NewGenerics),
			}
			supplied := map[string]string{}
			if s.Build.HasLast {
				field := p.model.Field(s.Build.Last)
				last := p.param(field)
				b.Last = &last
				b.Method = "BuildWith" + ir.Capitalize(field.Name)
				b.Validation = p.checks[field.Name]
				supplied[field.Name] = field.Name
			}
			if len(s.Build.NewGenerics) > 0 {
				b.Func = true
				b.Method = s.Name + b.Method
				b.TypeParams = p.typeParams(p.ordered(s.Generics, s.Build.NewGenerics))
			}
			b.SetterChecks = p.setterChecks(p.model.Optional())
			p.construction(b, supplied)
			c.Build = b
		}
		f.Classes = append(f.Classes, c)
	}
}

// entry names the constructor of the first builder, exported iff the
// builder is.
func (p *planner) entry() *Entry {
	f := p.file
	name := "new" + ir.Capitalize(f.Builder)
	if token.IsExported(f.Builder) {
		name = "New" + f.Builder
	}
	return &Entry{
		Name: name,
		Doc:  []string{fmt.Sprintf("%s starts building a value with %s.", name, f.Target)},
	}
}

func (p *planner) classDoc(l *lattice.Lattice, s *lattice.State) []string {
	f := p.file
	if len(l.Required()) == 0 {
		return []string{fmt.Sprintf("%s builds a value with %s.", s.Name, f.Target)}
	}
	doc := []string{fmt.Sprintf("%s is a step in building a value with %s.", s.Name, f.Target)}
	if used := p.model.Names(l.Fields(s.Used)); len(used) > 0 {
		doc = append(doc, "Supplied: "+strings.Join(used, ", ")+".")
	}
	doc = append(doc, "Missing: "+strings.Join(p.model.Names(l.Fields(s.Unused)), ", ")+".")
	return doc
}

func (p *planner) planFlat() {
	f := p.file
	all := p.analyzer.TypeVariables()
	f.States = 1

	c := &Class{
		Name:       f.Builder,
		TypeParams: p.typeParams(all),
		Doc: []string{
			fmt.Sprintf("%s builds a value with %s.", f.Builder, f.Target),
			"Required parameters are checked when Build is called.",
		},
		Entry: p.entry(),
	}
	for _, id := range p.model.All() {
		field := p.model.Field(id)
		c.Fields = append(c.Fields, Member{
			Name:    p.members[field.Name],
			Type:    field.Type.Rendered(),
			Mutable: true,
			SetFlag: p.flags[field.Name],
		})
		s := p.setter(field)
		if field.Required {
			s.Doc[0] = fmt.Sprintf("%s sets %s. Required.", s.Method, field.Name)
		}
		c.Setters = append(c.Setters, s)
	}

	b := &BuildMethod{Method: "Build"}
	for _, id := range p.model.Required() {
		field := p.model.Field(id)
		b.Missing = append(b.Missing, Missing{Field: field.Name, SetFlag: p.flags[field.Name]})
	}
	b.SetterChecks = p.setterChecks(p.model.All())
	p.construction(b, nil)
	c.Build = b
	f.Classes = []*Class{c}
}

// finish collects imports and declarations and checks top-level and method
// names for collisions.
func (p *planner) finish() error {
	f := p.file

	imports := make(map[string]ir.Import)
	for _, imp := range p.target.Imports {
		imports[imp.Path] = imp
	}
	for path := range p.imports {
		if _, ok := imports[path]; !ok {
			imports[path] = ir.Import{Path: path, Name: lastElem(path)}
		}
	}
	for _, path := range p.decorations.Imports() {
		if _, ok := imports[path]; !ok {
			imports[path] = ir.Import{Path: path, Name: lastElem(path)}
		}
	}
	for _, imp := range imports {
		f.Imports = append(f.Imports, imp)
	}
	sort.Slice(f.Imports, func(i, j int) bool { return f.Imports[i].Path < f.Imports[j].Path })
	f.Decls = p.decorations.Decls()

	declared := make(map[string]string)
	claim := func(name, what string) error {
		if other, ok := declared[name]; ok {
			return ir.Errorf(ir.CodeNamingConflict, "%s %s collides with generated %s", what, name, other)
		}
		if p.target.Existing[name] {
			return ir.Errorf(ir.CodeNamingConflict, "%s %s is already declared in package %s", what, name, f.Package.Name)
		}
		declared[name] = what
		return nil
	}
	for _, c := range f.Classes {
		if err := claim(c.Name, "builder type"); err != nil {
			return err
		}
		if c.Entry != nil {
			if err := claim(c.Entry.Name, "function"); err != nil {
				return err
			}
		}
		for _, t := range c.Transitions {
			if t.Func {
				if err := claim(t.Method, "function"); err != nil {
					return err
				}
			}
		}
		if c.Build != nil && c.Build.Func {
			if err := claim(c.Build.Method, "function"); err != nil {
				return err
			}
		}
		if err := checkMethods(c); err != nil {
			return err
		}
	}
	for _, decl := range f.Decls {
		if name := declName(decl); name != "" {
			if err := claim(name, "variable"); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkMethods(c *Class) error {
	seen := make(map[string]bool)
	add := func(name string) error {
		if seen[name] {
			return ir.Errorf(ir.CodeNamingConflict, "method %s is declared twice on %s", name, c.Name)
		}
		seen[name] = true
		return nil
	}
	for _, s := range c.Setters {
		if err := add(s.Method); err != nil {
			return err
		}
	}
	for _, t := range c.Transitions {
		if !t.Func {
			if err := add(t.Method); err != nil {
				return err
			}
		}
	}
	if c.Build != nil && !c.Build.Func {
		return add(c.Build.Method)
	}
	return nil
}

// declName extracts the name from "var name = ...".
func declName(decl string) string {
	rest, ok := strings.CutPrefix(decl, "var ")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, " ")
	return name
}

func lastElem(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	// Major version suffixes are not the package name.
	if len(path) > 1 && path[0] == 'v' && strings.Trim(path[1:], "0123456789") == "" {
		return ""
	}
	return path
}
