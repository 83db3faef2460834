// Package directive parses stepgen directives from Go doc comments.
//
// Directives are line comments in a function's doc comment:
//
//	//stepgen:builder [name=X] [version=N] [strategy=lattice|flat] [ceiling=N]
//	//stepgen:optional <param> [default expression]
//	//stepgen:nullable <param>
//	//stepgen:check <param> <kind> [argument]
//
// The builder directive marks a construction target. The others refine one
// parameter and are only valid on a function that also has a builder
// directive.
package directive

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"net/url"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/broady/stepgen/ir"
)

// Prefix starts every directive comment.
const Prefix = "//stepgen:"

// Kind is the directive name following the prefix.
type Kind string

const (
	KindBuilder  Kind = "builder"
	KindOptional Kind = "optional"
	KindNullable Kind = "nullable"
	KindCheck    Kind = "check"
)

var (
	decoder  = schema.NewDecoder()
	validate = validator.New()
)

// builderOptions are the key=value options of a builder directive.
type builderOptions struct {
	Name     string `schema:"name"`
	Version  int    `schema:"version" validate:"omitempty,min=1"`
	Strategy string `schema:"strategy" validate:"omitempty,oneof=lattice flat"`
	Ceiling  int    `schema:"ceiling" validate:"omitempty,min=1,max=62"`
}

// Param holds the directives for one parameter.
type Param struct {
	Optional bool

	// Default is the default expression of an optional parameter, if any.
	Default string

	Nullable bool

	Checks []ir.ConstraintRef

	// Pos is the first directive naming the parameter.
	Pos token.Position
}

// Set is every directive on one function.
type Set struct {
	Func    string
	Options ir.TargetOptions
	Pos     token.Position

	// Params is keyed by parameter name.
	Params map[string]*Param
}

// ParamNames returns the names of parameters that carry directives, sorted.
func (s *Set) ParamNames() []string {
	names := make([]string, 0, len(s.Params))
	for name := range s.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Found pairs a function declaration with its directives.
type Found struct {
	Decl *ast.FuncDecl
	Set  *Set
}

// ParseFile returns the functions in f marked with a builder directive, in
// source order. A directive outside a function doc comment, or a parameter
// directive without a builder directive, is an error.
func ParseFile(fset *token.FileSet, f *ast.File) ([]Found, error) {
	attached := make(map[*ast.CommentGroup]bool)
	var found []Found
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		attached[fn.Doc] = true
		set, err := ParseFunc(fset, fn)
		if err != nil {
			return nil, err
		}
		if set != nil {
			found = append(found, Found{Decl: fn, Set: set})
		}
	}

	for _, cg := range f.Comments {
		if attached[cg] {
			continue
		}
		for _, c := range cg.List {
			if strings.HasPrefix(c.Text, Prefix) {
				return nil, errorAt(fset.Position(c.Pos()),
					"%s directive must be in a function doc comment", strings.Fields(c.Text)[0])
			}
		}
	}
	return found, nil
}

// ParseFunc parses the directives in fn's doc comment. It returns nil when
// there is no builder directive.
func ParseFunc(fset *token.FileSet, fn *ast.FuncDecl) (*Set, error) {
	if fn.Doc == nil {
		return nil, nil
	}
	set := &Set{Func: fn.Name.Name, Params: make(map[string]*Param)}
	var builder bool
	var first *token.Position

	for _, c := range fn.Doc.List {
		rest, ok := strings.CutPrefix(c.Text, Prefix)
		if !ok {
			continue
		}
		pos := fset.Position(c.Pos())
		if first == nil {
			first = &pos
		}
		kind, args, _ := strings.Cut(strings.TrimSpace(rest), " ")
		args = strings.TrimSpace(args)

		switch Kind(kind) {
		case KindBuilder:
			if builder {
				return nil, errorAt(pos, "duplicate builder directive on %s", fn.Name.Name)
			}
			builder = true
			set.Pos = pos
			opts, err := parseBuilderOptions(args)
			if err != nil {
				return nil, errorAt(pos, "%v", err)
			}
			set.Options = opts
		case KindOptional, KindNullable, KindCheck:
			if err := set.addParam(Kind(kind), args, pos); err != nil {
				return nil, err
			}
		default:
			return nil, errorAt(pos, "unknown directive %s%s", Prefix, kind)
		}
	}

	if !builder {
		if first != nil {
			return nil, errorAt(*first, "%s has parameter directives but no %s%s directive", fn.Name.Name, Prefix, KindBuilder)
		}
		return nil, nil
	}
	return set, nil
}

func (s *Set) addParam(kind Kind, args string, pos token.Position) error {
	name, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)
	if !token.IsIdentifier(name) {
		return errorAt(pos, "%s%s needs a parameter name", Prefix, kind)
	}
	p := s.Params[name]
	if p == nil {
		p = &Param{Pos: pos}
		s.Params[name] = p
	}

	switch kind {
	case KindOptional:
		if p.Optional {
			return errorAt(pos, "parameter %s is marked optional twice", name)
		}
		p.Optional = true
		if rest != "" {
			if _, err := parser.ParseExpr(rest); err != nil {
				return errorAt(pos, "default for %s is not an expression: %v", name, err)
			}
			p.Default = rest
		}
	case KindNullable:
		if rest != "" {
			return errorAt(pos, "%s%s takes only a parameter name", Prefix, kind)
		}
		p.Nullable = true
	case KindCheck:
		ckind, arg, _ := strings.Cut(rest, " ")
		if ckind == "" {
			return errorAt(pos, "check on %s needs a constraint kind", name)
		}
		p.Checks = append(p.Checks, ir.ConstraintRef{Kind: ckind, Arg: strings.TrimSpace(arg)})
	}
	return nil
}

func parseBuilderOptions(args string) (ir.TargetOptions, error) {
	values := url.Values{}
	for _, field := range strings.Fields(args) {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return ir.TargetOptions{}, fmt.Errorf("builder option %q is not key=value", field)
		}
		if values.Has(key) {
			return ir.TargetOptions{}, fmt.Errorf("builder option %s given twice", key)
		}
		values.Set(key, value)
	}

	var opts builderOptions
	if err := decoder.Decode(&opts, values); err != nil {
		return ir.TargetOptions{}, fmt.Errorf("builder options: %w", err)
	}
	if err := validate.Struct(opts); err != nil {
		return ir.TargetOptions{}, fmt.Errorf("builder options: %w", err)
	}
	if opts.Name != "" && !token.IsIdentifier(opts.Name) {
		return ir.TargetOptions{}, fmt.Errorf("builder name %q is not a Go identifier", opts.Name)
	}
	return ir.TargetOptions{
		BuilderName: opts.Name,
		Version:     opts.Version,
		Strategy:    ir.Strategy(opts.Strategy),
		Ceiling:     opts.Ceiling,
	}, nil
}

func errorAt(pos token.Position, format string, args ...any) *ir.Diagnostic {
	d := ir.Errorf(ir.CodeInvalidDirective, format, args...)
	if pos.IsValid() {
		d.Source = &ir.Source{File: pos.Filename, Line: pos.Line, Column: pos.Column}
	}
	return d
}
