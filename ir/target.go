package ir

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Strategy selects how builders are generated for a target.
type Strategy string

const (
	// StrategyLattice generates one type per subset of supplied required fields.
	StrategyLattice Strategy = "lattice"

	// StrategyFlat generates a single runtime-checked builder.
	StrategyFlat Strategy = "flat"
)

// Valid reports whether s names a known strategy. The empty strategy is
// valid and means the default.
func (s Strategy) Valid() bool {
	switch s {
	case "", StrategyLattice, StrategyFlat:
		return true
	}
	return false
}

// TargetOptions are per-target settings taken from the builder directive.
// Zero values mean "use the run-wide setting".
type TargetOptions struct {
	BuilderName string   `json:"builderName,omitempty" yaml:"builderName,omitempty"`
	Version     int      `json:"version,omitempty" yaml:"version,omitempty"`
	Strategy    Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Ceiling     int      `json:"ceiling,omitempty" yaml:"ceiling,omitempty"`
}

// Target is one construction target: a function whose parameter list is
// turned into a builder family.
type Target struct {
	// Name identifies the function.
	Name GoIdentifier

	// Package is where the function lives and where builders are written.
	Package PackageInfo

	// Signature is the full executable descriptor of the function.
	Signature *ExecutableType

	// Fields are the parameters, in declaration order.
	Fields []Field

	// Result is the constructed type.
	Result TypeDescriptor

	// ReturnsError is true when the function has a trailing error result.
	ReturnsError bool

	Options TargetOptions

	// Imports are the packages the rendered parameter and result types refer
	// to, relative to Package.
	Imports []Import

	// Existing holds identifiers already declared in the package, outside
	// generated files. Used for naming conflict checks.
	Existing map[string]bool

	Documentation Documentation
	Source        Source
}

// Import is a package referenced by rendered type text.
type Import struct {
	Path string `json:"path" yaml:"path"`

	// Name is the qualifier used in rendered text.
	Name string `json:"name" yaml:"name"`
}

// BuilderName returns the explicit builder name or one derived from the
// function name: NewServer becomes ServerBuilder, newConn becomes connBuilder.
func (t *Target) BuilderName() string {
	if t.Options.BuilderName != "" {
		return t.Options.BuilderName
	}
	name := t.Name.Name
	exported := isExported(name)
	for _, prefix := range []string{"New", "new"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok && rest != "" {
			name = rest
			break
		}
	}
	if exported {
		name = Capitalize(name)
	} else {
		name = uncapitalize(name)
	}
	return name + "Builder"
}

// TypeParams returns the declared type parameters of the target.
func (t *Target) TypeParams() []*TypeVariable {
	if t.Signature == nil {
		return nil
	}
	return t.Signature.TypeParams
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func uncapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func isExported(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
