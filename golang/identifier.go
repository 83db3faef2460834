package golang

import (
	"go/token"
	"sort"
	"strings"
	"unicode"

	"github.com/broady/stepgen/ir"
	"github.com/broady/stepgen/plan"
)

// Predeclared identifiers that generated bodies refer to. A parameter with
// one of these names would shadow it inside every method taking that
// parameter.
var bodyIdentifiers = map[string]bool{
	"append": true,
	"bool":   true,
	"error":  true,
	"len":    true,
	"new":    true,
	"nil":    true,
	"panic":  true,
	"string": true,
	"true":   true,
}

// Packages the emitter refers to on its own.
var emitterPackages = []string{"errors", "slices"}

// checkNames reports a declared name that is not a Go identifier, and a
// parameter whose name would hide a package qualifier or predeclared
// identifier used by generated code.
func checkNames(f *plan.File) error {
	for _, c := range f.Classes {
		if !validIdentifier(c.Name) {
			return ir.Errorf(ir.CodeInvalidDirective, "builder name %q is not a Go identifier", c.Name)
		}
	}

	used := make(map[string]bool)
	for name := range bodyIdentifiers {
		used[name] = true
	}
	for _, pkg := range emitterPackages {
		used[pkg] = true
	}
	for _, imp := range f.Imports {
		name := imp.Name
		if name == "" {
			name = assumedName(imp.Path)
		}
		used[name] = true
	}

	for _, name := range paramNames(f) {
		if used[name] {
			return ir.Errorf(ir.CodeNamingConflict,
				"parameter %s of %s shadows %s in generated code; rename the parameter", name, f.Target, name)
		}
	}
	return nil
}

// paramNames returns the sorted, distinct parameter names of every method in f.
func paramNames(f *plan.File) []string {
	seen := make(map[string]bool)
	for _, c := range f.Classes {
		for _, s := range c.Setters {
			seen[s.Param.Name] = true
		}
		for _, t := range c.Transitions {
			seen[t.Param.Name] = true
		}
		if c.Build != nil && c.Build.Last != nil {
			seen[c.Build.Last.Name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileName returns the name of the file generated for builder, such as
// serverbuilder_gen.go.
func FileName(builder string) string {
	var sb strings.Builder
	for _, r := range builder {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	if sb.Len() == 0 {
		sb.WriteString("builder")
	}
	return sb.String() + "_gen.go"
}

// validIdentifier reports whether name can be declared in generated code.
func validIdentifier(name string) bool {
	return token.IsIdentifier(name)
}
