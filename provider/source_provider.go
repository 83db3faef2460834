// Package provider finds construction targets in Go source and converts them
// to the intermediate representation.
package provider

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/broady/stepgen/internal/directive"
	"github.com/broady/stepgen/ir"
)

// GeneratedMarker identifies files written by stepgen.
const GeneratedMarker = "// Code generated by stepgen. DO NOT EDIT."

// DefaultFileSuffix is the suffix of generated files.
const DefaultFileSuffix = "_gen.go"

// SourceProvider extracts targets by analyzing Go source code.
type SourceProvider struct{}

// Options configures source-based target extraction.
type Options struct {
	// Patterns are go/packages patterns ("./...", import paths, directories).
	Patterns []string

	// Dir is the directory patterns are resolved in. Empty means the
	// current directory.
	Dir string

	// FileSuffix identifies previously generated files. Empty means
	// DefaultFileSuffix.
	FileSuffix string

	// Env overrides the environment of the go command, if set.
	Env []string
}

// Result holds the targets found and the problems of targets that could not
// be converted. A diagnostic never prevents other targets from loading.
type Result struct {
	Targets     []*ir.Target
	Diagnostics []*ir.Diagnostic
}

// Load finds every function marked with a builder directive in the matched
// packages. Files previously generated by stepgen are blanked before type
// checking so stale output cannot break loading or count as existing
// declarations.
func (p *SourceProvider) Load(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.Patterns) == 0 {
		return nil, fmt.Errorf("no packages specified")
	}
	suffix := opts.FileSuffix
	if suffix == "" {
		suffix = DefaultFileSuffix
	}

	overlay, err := generatedOverlay(ctx, opts, suffix)
	if err != nil {
		return nil, err
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     opts.Dir,
		Env:     opts.Env,
		Overlay: overlay,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedImports |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo,
	}
	pkgs, err := packages.Load(cfg, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found")
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors)
		}
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	result := &Result{}
	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := loadPackage(pkg, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// generatedOverlay replaces each stepgen-generated file in the matched
// packages with an empty file of the same package.
func generatedOverlay(ctx context.Context, opts Options, suffix string) (map[string][]byte, error) {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     opts.Dir,
		Env:     opts.Env,
		Mode:    packages.NeedName | packages.NeedFiles,
	}
	pkgs, err := packages.Load(cfg, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	overlay := make(map[string][]byte)
	for _, pkg := range pkgs {
		for _, file := range pkg.GoFiles {
			if !strings.HasSuffix(file, suffix) {
				continue
			}
			generated, err := isGenerated(file)
			if err != nil {
				return nil, err
			}
			if generated {
				overlay[file] = []byte("package " + pkg.Name + "\n")
			}
		}
	}
	return overlay, nil
}

func isGenerated(file string) (bool, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", file, err)
	}
	firstLine, _, _ := bytes.Cut(content, []byte("\n"))
	return string(bytes.TrimSpace(firstLine)) == GeneratedMarker, nil
}

func loadPackage(pkg *packages.Package, result *Result) error {
	existing := make(map[string]bool)
	for _, name := range pkg.Types.Scope().Names() {
		existing[name] = true
	}
	info := ir.PackageInfo{Path: pkg.PkgPath, Name: pkg.Name}
	if len(pkg.GoFiles) > 0 {
		info.Dir = dirOf(pkg.GoFiles[0])
	}

	for _, file := range pkg.Syntax {
		found, err := directive.ParseFile(pkg.Fset, file)
		if err != nil {
			// A malformed directive is attributed to the whole file; the
			// remaining files still load.
			d, ok := ir.AsDiagnostic(err)
			if !ok {
				return err
			}
			result.Diagnostics = append(result.Diagnostics, d)
			continue
		}
		for _, f := range found {
			c := &converter{pkg: pkg, existing: existing, info: info}
			target, err := c.target(f)
			if err != nil {
				d, ok := ir.AsDiagnostic(err)
				if !ok {
					return err
				}
				src := c.source(f.Decl.Name.Pos())
				result.Diagnostics = append(result.Diagnostics, d.WithTarget(f.Decl.Name.Name, &src))
				continue
			}
			result.Targets = append(result.Targets, target)
		}
	}
	return nil
}

func dirOf(file string) string {
	if i := strings.LastIndexAny(file, `/\`); i >= 0 {
		return file[:i]
	}
	return "."
}

// converter turns one function declaration into an ir.Target.
type converter struct {
	pkg      *packages.Package
	existing map[string]bool
	info     ir.PackageInfo

	typeVars map[*types.TypeParam]*ir.TypeVariable

	// imports maps package path to the qualifier used in rendered text.
	imports map[string]string
	names   map[string]string
}

func (c *converter) source(pos token.Pos) ir.Source {
	position := c.pkg.Fset.Position(pos)
	return ir.Source{File: position.Filename, Line: position.Line, Column: position.Column}
}

func (c *converter) target(f directive.Found) (*ir.Target, error) {
	fn := f.Decl
	if fn.Recv != nil {
		return nil, ir.Errorf(ir.CodeUnsupportedShape, "%s is a method; only functions can be targets", fn.Name.Name)
	}
	obj, ok := c.pkg.TypesInfo.Defs[fn.Name].(*types.Func)
	if !ok {
		return nil, fmt.Errorf("no type information for %s", fn.Name.Name)
	}
	sig := obj.Type().(*types.Signature)

	c.typeVars = make(map[*types.TypeParam]*ir.TypeVariable)
	c.imports = make(map[string]string)
	c.names = make(map[string]string)

	var tvars []*ir.TypeVariable
	for i := 0; i < sig.TypeParams().Len(); i++ {
		tp := sig.TypeParams().At(i)
		tv := &ir.TypeVariable{Name: tp.Obj().Name(), Lower: ir.Null()}
		c.typeVars[tp] = tv
		tvars = append(tvars, tv)
	}
	for i := 0; i < sig.TypeParams().Len(); i++ {
		tp := sig.TypeParams().At(i)
		c.typeVars[tp].Upper = c.constraint(tp.Constraint())
	}

	result, returnsError, err := c.results(fn.Name.Name, sig)
	if err != nil {
		return nil, err
	}

	fields, err := c.fields(f, sig)
	if err != nil {
		return nil, err
	}

	params := make([]ir.TypeDescriptor, len(fields))
	for i, field := range fields {
		params[i] = field.Type
	}
	var thrown []ir.TypeDescriptor
	if returnsError {
		thrown = []ir.TypeDescriptor{ir.Declared("error")}
	}

	target := &ir.Target{
		Name:          ir.GoIdentifier{Name: fn.Name.Name, Package: c.pkg.PkgPath},
		Package:       c.info,
		Signature:     ir.Func(tvars, params, []ir.TypeDescriptor{result}, thrown),
		Fields:        fields,
		Result:        result,
		ReturnsError:  returnsError,
		Options:       f.Set.Options,
		Existing:      c.existing,
		Documentation: parseDocumentation(fn.Doc),
		Source:        c.source(fn.Name.Pos()),
	}
	for path, name := range c.imports {
		target.Imports = append(target.Imports, ir.Import{Path: path, Name: name})
	}
	sort.Slice(target.Imports, func(i, j int) bool { return target.Imports[i].Path < target.Imports[j].Path })
	return target, nil
}

var errorType = types.Universe.Lookup("error").Type()

func (c *converter) results(name string, sig *types.Signature) (ir.TypeDescriptor, bool, error) {
	res := sig.Results()
	switch res.Len() {
	case 0:
		return nil, false, ir.Errorf(ir.CodeUnsupportedShape, "%s returns nothing", name)
	case 1:
		return c.convert(res.At(0).Type()), false, nil
	case 2:
		second := res.At(1).Type()
		if _, ok := second.(*types.TypeParam); ok {
			return nil, false, ir.Errorf(ir.CodeUnsupportedShape, "%s has a parameterized error result", name)
		}
		if !types.Identical(second, errorType) {
			return nil, false, ir.Errorf(ir.CodeUnsupportedShape,
				"second result of %s is %s, not error", name, types.TypeString(second, c.qualifier))
		}
		return c.convert(res.At(0).Type()), true, nil
	default:
		return nil, false, ir.Errorf(ir.CodeUnsupportedShape, "%s has %d results; at most a value and an error are supported", name, res.Len())
	}
}

func (c *converter) fields(f directive.Found, sig *types.Signature) ([]ir.Field, error) {
	params := sig.Params()
	known := make(map[string]bool, params.Len())
	var fields []ir.Field

	for i := 0; i < params.Len(); i++ {
		v := params.At(i)
		name := v.Name()
		if name == "" || name == "_" {
			return nil, ir.Errorf(ir.CodeUnsupportedShape, "parameter %d of %s has no name", i+1, f.Decl.Name.Name)
		}
		known[name] = true

		variadic := sig.Variadic() && i == params.Len()-1
		field := ir.Field{
			Name:     name,
			Type:     c.convert(v.Type()),
			Required: !variadic,
			Nilable:  nilable(v.Type()),
			Variadic: variadic,
			Position: i,
		}
		if variadic {
			field.NullPolicy = ir.NullPermit
		}
		if d := f.Set.Params[name]; d != nil {
			if d.Optional {
				field.Required = false
				field.Default = d.Default
			}
			if d.Nullable {
				if !field.Nilable {
					return nil, ir.Errorf(ir.CodeInvalidDirective, "parameter %s of type %s cannot be nil", name, field.Type.Rendered())
				}
				field.NullPolicy = ir.NullPermit
			}
			field.Constraints = d.Checks
		}
		fields = append(fields, field)
	}

	for _, name := range f.Set.ParamNames() {
		if !known[name] {
			return nil, ir.Errorf(ir.CodeInvalidDirective, "%s has no parameter %s", f.Decl.Name.Name, name)
		}
	}
	return fields, nil
}

func nilable(t types.Type) bool {
	if _, ok := t.(*types.TypeParam); ok {
		return false
	}
	switch t.Underlying().(type) {
	case *types.Pointer, *types.Slice, *types.Map, *types.Chan, *types.Signature, *types.Interface:
		return true
	case *types.Basic:
		return t.Underlying().(*types.Basic).Kind() == types.UnsafePointer
	}
	return false
}

// qualifier records every package rendered type text refers to. Packages
// sharing a name get numbered aliases.
func (c *converter) qualifier(p *types.Package) string {
	if p == nil || p.Path() == c.pkg.PkgPath {
		return ""
	}
	if name, ok := c.imports[p.Path()]; ok {
		return name
	}
	name := p.Name()
	for n := 2; c.names[name] != "" || c.existing[name]; n++ {
		name = p.Name() + strconv.Itoa(n)
	}
	c.names[name] = p.Path()
	c.imports[p.Path()] = name
	return name
}

func (c *converter) text(t types.Type) string {
	return types.TypeString(t, c.qualifier)
}

// convert maps a go/types type to a descriptor whose rendered text is valid
// Go in the target's package.
func (c *converter) convert(t types.Type) ir.TypeDescriptor {
	switch t := t.(type) {
	case *types.TypeParam:
		if tv, ok := c.typeVars[t]; ok {
			return tv
		}
		return ir.TypeVar(t.Obj().Name(), nil)
	case *types.Basic:
		if t.Kind() == types.UntypedNil {
			return ir.Null()
		}
		return ir.Primitive(t.Name())
	case *types.Pointer:
		return ir.Pointer(c.convert(t.Elem()))
	case *types.Slice:
		return ir.Slice(c.convert(t.Elem()))
	case *types.Array:
		return ir.FixedArray(t.Len(), c.convert(t.Elem()))
	case *types.Map:
		return ir.Map(c.convert(t.Key()), c.convert(t.Elem()))
	case *types.Named:
		return c.named(t.Obj(), t.TypeArgs())
	case *types.Alias:
		return c.named(t.Obj(), t.TypeArgs())
	case *types.Chan:
		return ir.Composite(c.text(t), c.convert(t.Elem()))
	case *types.Signature:
		var children []ir.TypeDescriptor
		for i := 0; i < t.Params().Len(); i++ {
			children = append(children, c.convert(t.Params().At(i).Type()))
		}
		for i := 0; i < t.Results().Len(); i++ {
			children = append(children, c.convert(t.Results().At(i).Type()))
		}
		return ir.Composite(c.text(t), children...)
	case *types.Interface:
		if t.Empty() {
			return ir.Declared("any")
		}
		return ir.Composite(c.text(t), c.embedded(t)...)
	case *types.Union:
		return c.union(t)
	default:
		return ir.Composite(c.text(t))
	}
}

func (c *converter) named(obj *types.TypeName, args *types.TypeList) ir.TypeDescriptor {
	name := obj.Name()
	if q := c.qualifier(obj.Pkg()); q != "" {
		name = q + "." + name
	}
	var targs []ir.TypeDescriptor
	for i := 0; i < args.Len(); i++ {
		targs = append(targs, c.convert(args.At(i)))
	}
	return ir.Declared(name, targs...)
}

func (c *converter) embedded(iface *types.Interface) []ir.TypeDescriptor {
	var out []ir.TypeDescriptor
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		out = append(out, c.convert(iface.EmbeddedType(i)))
	}
	return out
}

// union converts a union of type terms. Each term keeps its tilde in the
// rendered text and has the term's type as its only child, so type
// variables mentioned by a term stay reachable. A single term is returned
// on its own.
func (c *converter) union(u *types.Union) ir.TypeDescriptor {
	terms := make([]ir.TypeDescriptor, u.Len())
	for i := 0; i < u.Len(); i++ {
		term := u.Term(i)
		elem := c.convert(term.Type())
		if term.Tilde() {
			terms[i] = ir.Composite("~"+c.text(term.Type()), elem)
		} else {
			terms[i] = elem
		}
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return ir.Union(terms...)
}

// constraint converts a type parameter constraint. An interface made only of
// embedded named constraints and type-term unions becomes an intersection
// of them.
func (c *converter) constraint(t types.Type) ir.TypeDescriptor {
	iface, ok := t.(*types.Interface)
	if !ok || iface.Empty() || iface.NumExplicitMethods() > 0 {
		return c.convert(t)
	}
	var members []ir.TypeDescriptor
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		e := iface.EmbeddedType(i)
		switch e.(type) {
		case *types.Named, *types.Alias, *types.Union:
			members = append(members, c.convert(e))
		default:
			return c.convert(t)
		}
	}
	if len(members) == 1 {
		return members[0]
	}
	return ir.Intersection(members...)
}

// parseDocumentation extracts the summary and body of a doc comment.
// Directive lines are not part of the text.
func parseDocumentation(cg *ast.CommentGroup) ir.Documentation {
	if cg == nil {
		return ir.Documentation{}
	}
	body := strings.TrimSpace(cg.Text())
	if body == "" {
		return ir.Documentation{}
	}
	summary, _, _ := strings.Cut(body, "\n")
	return ir.Documentation{Summary: strings.TrimSpace(summary), Body: body}
}
