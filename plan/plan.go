// Package plan turns a construction target into the skeletons of its
// builder types: classes, members, setters, transitions and build methods.
// A plan says what must exist; rendering it as source is left to a backend.
package plan

import (
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/broady/stepgen/ir"
)

// Supported code generation versions.
const (
	// Version 1 builders panic on validation failures.
	Version1 = 1

	// Version 2 builders accumulate problems and return them from Build.
	Version2 = 2

	MinVersion     = Version1
	MaxVersion     = Version2
	DefaultVersion = Version2
)

// WarnScaleFallback is the warning code reported when a target has too many
// required fields for a lattice and is generated flat instead.
const WarnScaleFallback = "SCALE_FALLBACK"

// File is the plan of one generated file: every builder type of one target.
type File struct {
	Package  ir.PackageInfo `json:"package" yaml:"package"`
	Imports  []ir.Import    `json:"imports,omitempty" yaml:"imports,omitempty"`
	Target   string         `json:"target" yaml:"target"`
	Builder  string         `json:"builder" yaml:"builder"`
	Version  int            `json:"version" yaml:"version"`
	Strategy ir.Strategy    `json:"strategy" yaml:"strategy"`

	// Signature and Fields describe the target as loaded. Only the JSON
	// form carries them.
	Signature ir.TypeDescriptor `json:"signature,omitempty" yaml:"-"`
	Fields    []ir.Field        `json:"fields,omitempty" yaml:"-"`

	// Result is the rendered type the target constructs.
	Result       string `json:"result" yaml:"result"`
	ReturnsError bool   `json:"returnsError,omitempty" yaml:"returnsError,omitempty"`

	// Receiver is the receiver name used by every method. It differs from
	// every parameter name.
	Receiver string `json:"receiver" yaml:"receiver"`

	// Problems names the problem list, both the struct member (version 2)
	// and the local at each validation point.
	Problems string `json:"problems" yaml:"problems"`

	// Decls are package-level declarations the checks depend on.
	Decls []string `json:"decls,omitempty" yaml:"decls,omitempty"`

	Classes []*Class `json:"classes" yaml:"classes"`

	// States is the size of the lattice, the complete state included.
	States int `json:"states" yaml:"states"`

	Doc []string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Class is the skeleton of one builder type.
type Class struct {
	Name        string       `json:"name" yaml:"name"`
	Doc         []string     `json:"doc,omitempty" yaml:"doc,omitempty"`
	TypeParams  []TypeParam  `json:"typeParams,omitempty" yaml:"typeParams,omitempty"`
	Fields      []Member     `json:"fields,omitempty" yaml:"fields,omitempty"`
	Entry       *Entry       `json:"entry,omitempty" yaml:"entry,omitempty"`
	Setters     []Setter     `json:"setters,omitempty" yaml:"setters,omitempty"`
	Transitions []Transition `json:"transitions,omitempty" yaml:"transitions,omitempty"`
	Build       *BuildMethod `json:"build,omitempty" yaml:"build,omitempty"`
}

// Ref returns the class name instantiated with its own type parameters,
// as used in receivers.
func (c *Class) Ref() string {
	return instantiate(c.Name, typeParamNames(c.TypeParams))
}

// TypeParam is a type parameter with its Go constraint.
type TypeParam struct {
	Name       string `json:"name" yaml:"name"`
	Constraint string `json:"constraint" yaml:"constraint"`
}

// Member is a struct field of a builder type.
type Member struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`

	// Mutable members belong to optional fields and change through setters.
	Mutable bool `json:"mutable,omitempty" yaml:"mutable,omitempty"`

	// SetFlag is the boolean member recording whether the field was set.
	SetFlag string `json:"setFlag,omitempty" yaml:"setFlag,omitempty"`
}

// Entry is the constructor function returning the first builder.
type Entry struct {
	Name string   `json:"name" yaml:"name"`
	Doc  []string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Param is the single argument of a setter, transition or build method.
type Param struct {
	Name string `json:"name" yaml:"name"`

	// Type is the declared parameter type; variadic parameters render as
	// ...T.
	Type     string `json:"type" yaml:"type"`
	Variadic bool   `json:"variadic,omitempty" yaml:"variadic,omitempty"`
}

// FieldInit assigns one member of a newly created builder.
type FieldInit struct {
	Member string `json:"member" yaml:"member"`
	Expr   string `json:"expr" yaml:"expr"`
}

// Setter supplies an optional field and returns the same builder.
type Setter struct {
	Method     string   `json:"method" yaml:"method"`
	Field      string   `json:"field" yaml:"field"`
	Param      Param    `json:"param" yaml:"param"`
	SetFlag    string   `json:"setFlag,omitempty" yaml:"setFlag,omitempty"`
	Validation []string `json:"validation,omitempty" yaml:"validation,omitempty"`
	Doc        []string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Transition supplies a required field and returns the next builder.
//
// When NewTypeParams is non-empty the transition is a package-level generic
// function named Method taking the builder as its first argument, since Go
// methods cannot declare type parameters. TypeParams then lists every type
// parameter the function declares.
type Transition struct {
	Method         string      `json:"method" yaml:"method"`
	Func           bool        `json:"func,omitempty" yaml:"func,omitempty"`
	Field          string      `json:"field" yaml:"field"`
	Param          Param       `json:"param" yaml:"param"`
	Return         string      `json:"return" yaml:"return"`
	ReturnTypeArgs []string    `json:"returnTypeArgs,omitempty" yaml:"returnTypeArgs,omitempty"`
	NewTypeParams  []TypeParam `json:"newTypeParams,omitempty" yaml:"newTypeParams,omitempty"`
	TypeParams     []TypeParam `json:"typeParams,omitempty" yaml:"typeParams,omitempty"`
	Init           []FieldInit `json:"init" yaml:"init"`
	Validation     []string    `json:"validation,omitempty" yaml:"validation,omitempty"`
	Doc            []string    `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// ReturnRef returns the instantiated type of the next builder.
func (t *Transition) ReturnRef() string {
	return instantiate(t.Return, t.ReturnTypeArgs)
}

// Missing is a required field a flat builder checks at build time.
type Missing struct {
	Field   string `json:"field" yaml:"field"`
	SetFlag string `json:"setFlag" yaml:"setFlag"`
}

// BuildMethod constructs the target. Like transitions, a build method that
// introduces type parameters is a package-level function.
type BuildMethod struct {
	Method        string      `json:"method" yaml:"method"`
	Func          bool        `json:"func,omitempty" yaml:"func,omitempty"`
	Last          *Param      `json:"last,omitempty" yaml:"last,omitempty"`
	NewTypeParams []TypeParam `json:"newTypeParams,omitempty" yaml:"newTypeParams,omitempty"`
	TypeParams    []TypeParam `json:"typeParams,omitempty" yaml:"typeParams,omitempty"`
	Validation    []string    `json:"validation,omitempty" yaml:"validation,omitempty"`
	Missing       []Missing   `json:"missing,omitempty" yaml:"missing,omitempty"`

	// SetterChecks validate the latest value of each field supplied through
	// a setter. Only version 2 builders have them; version 1 setters check
	// their argument when called.
	SetterChecks []string `json:"setterChecks,omitempty" yaml:"setterChecks,omitempty"`
	Defaults      []string    `json:"defaults,omitempty" yaml:"defaults,omitempty"`

	// Args are the construction arguments in signature order.
	Args []string `json:"args" yaml:"args"`

	// Call is the complete construction expression.
	Call string `json:"call" yaml:"call"`
}

// JSON returns the plan as indented JSON.
func (f *File) JSON() ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// YAML returns the plan as YAML.
func (f *File) YAML() ([]byte, error) {
	return yaml.Marshal(f)
}

// Class returns the class with the given name, or nil.
func (f *File) Class(name string) *Class {
	for _, c := range f.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func typeParamNames(tps []TypeParam) []string {
	names := make([]string, len(tps))
	for i, tp := range tps {
		names[i] = tp.Name
	}
	return names
}

func instantiate(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + "[" + strings.Join(args, ", ") + "]"
}
