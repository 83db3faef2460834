// Package golang renders builder plans as Go source.
package golang

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/broady/stepgen/plan"
)

// Header is the first line of every generated file.
const Header = "// Code generated by stepgen. DO NOT EDIT."

// Emitter renders a plan.File to Go source.
type Emitter struct {
	// Filename is passed to the import fixer; it only affects how missing
	// imports are resolved.
	Filename string

	// Raw skips formatting and import fixing.
	Raw bool

	file *plan.File
	buf  *bytes.Buffer
}

// Emit renders f. The output is gofmt-formatted with unused imports removed
// unless Raw is set.
func (e *Emitter) Emit(f *plan.File) ([]byte, error) {
	e.file = f
	e.buf = &bytes.Buffer{}

	e.emitHeader()
	for _, c := range f.Classes {
		e.emitClass(c)
	}

	src := e.buf.Bytes()
	if e.Raw {
		return src, nil
	}
	name := e.Filename
	if name == "" {
		name = strings.ToLower(f.Builder) + ".go"
	}
	out, err := imports.Process(name, src, nil)
	if err != nil {
		return nil, fmt.Errorf("formatting %s: %w", f.Builder, err)
	}
	return out, nil
}

func (e *Emitter) p(format string, args ...any) {
	fmt.Fprintf(e.buf, format, args...)
	e.buf.WriteByte('\n')
}

// raw writes pre-rendered lines, indented one level per depth.
func (e *Emitter) raw(depth int, lines []string) {
	indent := strings.Repeat("\t", depth)
	for _, line := range lines {
		e.buf.WriteString(indent)
		e.buf.WriteString(line)
		e.buf.WriteByte('\n')
	}
}

func (e *Emitter) emitDoc(depth int, lines []string) {
	indent := strings.Repeat("\t", depth)
	for _, line := range lines {
		if line == "" {
			e.buf.WriteString(indent + "//\n")
			continue
		}
		e.buf.WriteString(indent + "// " + line + "\n")
	}
}

func (e *Emitter) emitHeader() {
	f := e.file
	e.p("%s", Header)
	e.p("")
	e.p("package %s", f.Package.Name)
	e.p("")

	e.p("import (")
	for _, imp := range e.importList() {
		if imp.Name != "" && imp.Name != assumedName(imp.Path) {
			e.p("\t%s %q", imp.Name, imp.Path)
		} else {
			e.p("\t%q", imp.Path)
		}
	}
	e.p(")")
	e.p("")

	for _, decl := range f.Decls {
		e.p("%s", decl)
	}
	if len(f.Decls) > 0 {
		e.p("")
	}
}

type importSpec struct {
	Name string
	Path string
}

// importList returns the plan's imports plus the packages the emitter itself
// refers to. Unused ones are removed by the import fixer.
func (e *Emitter) importList() []importSpec {
	seen := map[string]bool{}
	var out []importSpec
	for _, imp := range e.file.Imports {
		if seen[imp.Path] {
			continue
		}
		seen[imp.Path] = true
		out = append(out, importSpec{Name: imp.Name, Path: imp.Path})
	}
	for _, std := range []string{"errors", "slices"} {
		if !seen[std] {
			out = append(out, importSpec{Path: std})
		}
	}
	return out
}

// assumedName guesses the package name of an import path the way goimports
// does: the last element, skipping a major version suffix.
func assumedName(importPath string) string {
	base := path.Base(importPath)
	if strings.HasPrefix(base, "v") && len(base) > 1 && strings.Trim(base[1:], "0123456789") == "" {
		base = path.Base(path.Dir(importPath))
	}
	if i := strings.IndexAny(base, ".-"); i >= 0 {
		if strings.HasPrefix(base, "go-") {
			base = base[3:]
		} else {
			base = base[:i]
		}
	}
	return base
}

func typeParamList(tps []plan.TypeParam) string {
	if len(tps) == 0 {
		return ""
	}
	parts := make([]string, len(tps))
	for i, tp := range tps {
		parts[i] = tp.Name + " " + tp.Constraint
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (e *Emitter) v2() bool { return e.file.Version >= plan.Version2 }

func (e *Emitter) emitClass(c *plan.Class) {
	f := e.file

	e.emitDoc(0, c.Doc)
	e.p("type %s%s struct {", c.Name, typeParamList(c.TypeParams))
	for _, m := range c.Fields {
		e.p("\t%s %s", m.Name, m.Type)
		if m.SetFlag != "" {
			e.p("\t%s bool", m.SetFlag)
		}
	}
	if e.v2() {
		e.p("\t%s []error", f.Problems)
	}
	e.p("}")
	e.p("")

	if c.Entry != nil {
		e.emitDoc(0, c.Entry.Doc)
		e.p("func %s%s() *%s {", c.Entry.Name, typeParamList(c.TypeParams), c.Ref())
		e.p("\treturn &%s{}", c.Ref())
		e.p("}")
		e.p("")
	}

	for _, s := range c.Setters {
		e.emitSetter(c, s)
	}
	for _, t := range c.Transitions {
		e.emitTransition(c, t)
	}
	if c.Build != nil {
		e.emitBuild(c, c.Build)
	}
}

func paramDecl(p plan.Param) string {
	return p.Name + " " + p.Type
}

// signature returns the method or function header up to the result list.
func (e *Emitter) signature(c *plan.Class, name string, isFunc bool, tps []plan.TypeParam, params ...string) string {
	recv := e.file.Receiver + " *" + c.Ref()
	if isFunc {
		all := append([]string{recv}, params...)
		return fmt.Sprintf("func %s%s(%s)", name, typeParamList(tps), strings.Join(all, ", "))
	}
	return fmt.Sprintf("func (%s) %s(%s)", recv, name, strings.Join(params, ", "))
}

// emitChecks writes the validation of one supplied value. In version 1 a
// failure panics here; in version 2 the problems are left in the local list
// for the transition to carry.
func (e *Emitter) emitChecks(validation []string) {
	if len(validation) == 0 {
		return
	}
	problems := e.file.Problems
	e.p("\tvar %s []error", problems)
	e.raw(1, validation)
	if !e.v2() {
		e.p("\tif len(%s) > 0 {", problems)
		e.p("\t\tpanic(errors.Join(%s...))", problems)
		e.p("\t}")
	}
}

func (e *Emitter) emitSetter(c *plan.Class, s plan.Setter) {
	recv := e.file.Receiver

	e.emitDoc(0, s.Doc)
	e.p("%s *%s {", e.signature(c, s.Method, false, nil, paramDecl(s.Param)), c.Ref())
	e.emitChecks(s.Validation)
	e.p("\t%s.%s = %s", recv, s.Field, s.Param.Name)
	if s.SetFlag != "" {
		e.p("\t%s.%s = true", recv, s.SetFlag)
	}
	e.p("\treturn %s", recv)
	e.p("}")
	e.p("")
}

func (e *Emitter) emitTransition(c *plan.Class, t plan.Transition) {
	f := e.file
	recv := f.Receiver

	e.emitDoc(0, t.Doc)
	e.p("%s *%s {", e.signature(c, t.Method, t.Func, t.TypeParams, paramDecl(t.Param)), t.ReturnRef())
	e.emitChecks(t.Validation)
	e.p("\treturn &%s{", t.ReturnRef())
	for _, init := range t.Init {
		e.p("\t\t%s: %s,", init.Member, init.Expr)
	}
	if e.v2() {
		if len(t.Validation) > 0 {
			e.p("\t\t%s: slices.Concat(%s.%s, %s),", f.Problems, recv, f.Problems, f.Problems)
		} else {
			e.p("\t\t%s: slices.Clone(%s.%s),", f.Problems, recv, f.Problems)
		}
	}
	e.p("\t}")
	e.p("}")
	e.p("")
}

func (e *Emitter) results() string {
	f := e.file
	if e.v2() || f.ReturnsError {
		return "(" + f.Result + ", error)"
	}
	return f.Result
}

func (e *Emitter) emitBuild(c *plan.Class, b *plan.BuildMethod) {
	f := e.file
	recv, problems := f.Receiver, f.Problems

	var params []string
	if b.Last != nil {
		params = append(params, paramDecl(*b.Last))
	}

	doc := []string{b.Method + " constructs the value with " + f.Target + "."}
	if b.Last != nil {
		doc = []string{b.Method + " sets " + b.Last.Name + " and constructs the value with " + f.Target + "."}
	}
	if e.v2() {
		doc = append(doc, "It returns every problem recorded while building, joined.")
	}
	e.emitDoc(0, doc)
	e.p("%s %s {", e.signature(c, b.Method, b.Func, b.TypeParams, params...), e.results())

	local := len(b.Validation) > 0 || len(b.Missing) > 0 || len(b.SetterChecks) > 0
	if local {
		e.p("\tvar %s []error", problems)
	}
	for _, m := range b.Missing {
		e.p("\tif !%s.%s {", recv, m.SetFlag)
		e.p("\t\t%s = append(%s, errors.New(%q))", problems, problems, m.Field+": required")
		e.p("\t}")
	}
	e.raw(1, b.SetterChecks)
	e.raw(1, b.Validation)

	if e.v2() {
		joined := recv + "." + problems
		if local {
			joined = "slices.Concat(" + recv + "." + problems + ", " + problems + ")"
		}
		e.p("\tif err := errors.Join(%s...); err != nil {", joined)
		e.p("\t\treturn *new(%s), err", f.Result)
		e.p("\t}")
	} else if local {
		e.p("\tif len(%s) > 0 {", problems)
		e.p("\t\tpanic(errors.Join(%s...))", problems)
		e.p("\t}")
	}

	e.raw(1, b.Defaults)
	if e.v2() && !f.ReturnsError {
		e.p("\treturn %s, nil", b.Call)
	} else {
		e.p("\treturn %s", b.Call)
	}
	e.p("}")
	e.p("")
}
