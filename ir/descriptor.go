package ir

import (
	"strconv"
	"strings"
)

// TypeKind identifies the category of a type descriptor node.
type TypeKind int

const (
	KindDeclared     TypeKind = iota // Named or composite type (T[A, B], *T, map[K]V)
	KindArray                        // Slice or fixed-length array
	KindTypeVariable                 // Type parameter
	KindWildcard                     // Bounded wildcard (not produced by the Go front end)
	KindPrimitive                    // Built-in basic type
	KindIntersection                 // Every member must hold (A & B)
	KindUnion                        // Any member may hold (A | B)
	KindExecutable                   // Function signature
	KindNone                         // Absent type
	KindNull                         // The nil type
)

// String returns the string representation of the type kind.
func (k TypeKind) String() string {
	switch k {
	case KindDeclared:
		return "Declared"
	case KindArray:
		return "Array"
	case KindTypeVariable:
		return "TypeVariable"
	case KindWildcard:
		return "Wildcard"
	case KindPrimitive:
		return "Primitive"
	case KindIntersection:
		return "Intersection"
	case KindUnion:
		return "Union"
	case KindExecutable:
		return "Executable"
	case KindNone:
		return "None"
	case KindNull:
		return "Null"
	default:
		return "Unknown"
	}
}

// TypeDescriptor is one node in the structural model of a type occurring in a
// target signature.
//
// Two descriptors denote the same node iff their rendered text is equal. The
// same type variable reached from different parameters is therefore a single
// dependency.
type TypeDescriptor interface {
	// Kind returns the descriptor kind for type switching.
	Kind() TypeKind

	// Rendered returns the Go source text of the type, qualified relative to
	// the package the builders are generated into.
	Rendered() string

	// Ensure only types in this package can implement TypeDescriptor.
	sealed()
}

// DeclaredType is a named type, optionally instantiated with type arguments,
// or a composite type whose text is given explicitly.
type DeclaredType struct {
	// Name is the qualified type name without type arguments.
	Name string

	// Args are the type arguments (named types) or component types
	// (composites). They are visited as CHILD edges.
	Args []TypeDescriptor

	// Text overrides the rendering; set for composites such as pointers,
	// maps and channels whose syntax is not Name[Args].
	Text string
}

func (d *DeclaredType) Kind() TypeKind { return KindDeclared }
func (*DeclaredType) sealed()          {}

// Rendered returns Name[A, B] or the explicit text.
func (d *DeclaredType) Rendered() string {
	if d.Text != "" {
		return d.Text
	}
	if len(d.Args) == 0 {
		return d.Name
	}
	return d.Name + "[" + renderList(d.Args, ", ") + "]"
}

// Declared returns a descriptor for a named type.
func Declared(name string, args ...TypeDescriptor) *DeclaredType {
	return &DeclaredType{Name: name, Args: args}
}

// Composite returns a descriptor whose text is fixed and whose children are
// the given component types.
func Composite(text string, children ...TypeDescriptor) *DeclaredType {
	return &DeclaredType{Name: text, Args: children, Text: text}
}

// Pointer returns a descriptor for *elem.
func Pointer(elem TypeDescriptor) *DeclaredType {
	return Composite("*"+elem.Rendered(), elem)
}

// Map returns a descriptor for map[key]value.
func Map(key, value TypeDescriptor) *DeclaredType {
	return Composite("map["+key.Rendered()+"]"+value.Rendered(), key, value)
}

// ArrayType is a slice ([]T) or a fixed-length array ([N]T).
type ArrayType struct {
	Elem TypeDescriptor

	// Len is the array length; -1 for slices.
	Len int64
}

func (d *ArrayType) Kind() TypeKind { return KindArray }
func (*ArrayType) sealed()          {}

func (d *ArrayType) Rendered() string {
	if d.Len < 0 {
		return "[]" + d.Elem.Rendered()
	}
	return "[" + strconv.FormatInt(d.Len, 10) + "]" + d.Elem.Rendered()
}

// Dimensions returns the number of directly nested array levels.
func (d *ArrayType) Dimensions() int {
	n := 1
	for elem := d.Elem; ; n++ {
		inner, ok := elem.(*ArrayType)
		if !ok {
			return n
		}
		elem = inner.Elem
	}
}

// Slice returns a descriptor for []elem.
func Slice(elem TypeDescriptor) *ArrayType {
	return &ArrayType{Elem: elem, Len: -1}
}

// FixedArray returns a descriptor for [n]elem.
func FixedArray(n int64, elem TypeDescriptor) *ArrayType {
	return &ArrayType{Elem: elem, Len: n}
}

// TypeVariable is a type parameter of the target signature.
//
// Bounds may refer back to the variable itself ([T Ordered[T]]), so the
// descriptor graph can contain cycles through TypeVariable nodes.
type TypeVariable struct {
	Name string

	// Upper is the constraint. Nil or a top type means unconstrained.
	Upper TypeDescriptor

	// Lower is the lower bound; Go type parameters always have the nil type.
	Lower TypeDescriptor
}

func (d *TypeVariable) Kind() TypeKind   { return KindTypeVariable }
func (d *TypeVariable) Rendered() string { return d.Name }
func (*TypeVariable) sealed()            {}

// TypeVar returns a type variable bounded above by upper.
func TypeVar(name string, upper TypeDescriptor) *TypeVariable {
	return &TypeVariable{Name: name, Upper: upper, Lower: Null()}
}

// WildcardType is a bounded wildcard. The Go front end never produces one;
// it exists so the model covers every shape the analyzer understands.
type WildcardType struct {
	Extends TypeDescriptor
	Super   TypeDescriptor
}

func (d *WildcardType) Kind() TypeKind { return KindWildcard }
func (*WildcardType) sealed()          {}

func (d *WildcardType) Rendered() string {
	switch {
	case d.Extends != nil:
		return "? extends " + d.Extends.Rendered()
	case d.Super != nil:
		return "? super " + d.Super.Rendered()
	default:
		return "?"
	}
}

// Wildcard returns a wildcard descriptor.
func Wildcard(extends, super TypeDescriptor) *WildcardType {
	return &WildcardType{Extends: extends, Super: super}
}

// PrimitiveType is a predeclared basic type such as int or string.
type PrimitiveType struct {
	Name string
}

func (d *PrimitiveType) Kind() TypeKind   { return KindPrimitive }
func (d *PrimitiveType) Rendered() string { return d.Name }
func (*PrimitiveType) sealed()            {}

// Primitive returns a descriptor for a basic type.
func Primitive(name string) *PrimitiveType {
	return &PrimitiveType{Name: name}
}

// IntersectionType requires every member to hold.
type IntersectionType struct {
	Members []TypeDescriptor
}

func (d *IntersectionType) Kind() TypeKind   { return KindIntersection }
func (d *IntersectionType) Rendered() string { return renderList(d.Members, " & ") }
func (*IntersectionType) sealed()            {}

// Intersection returns an intersection of members.
func Intersection(members ...TypeDescriptor) *IntersectionType {
	return &IntersectionType{Members: members}
}

// UnionType is a union of type terms, as in a Go constraint ~string | ~int.
type UnionType struct {
	Members []TypeDescriptor
}

func (d *UnionType) Kind() TypeKind   { return KindUnion }
func (d *UnionType) Rendered() string { return renderList(d.Members, " | ") }
func (*UnionType) sealed()            {}

// Union returns a union of members.
func Union(members ...TypeDescriptor) *UnionType {
	return &UnionType{Members: members}
}

// ExecutableType is a function signature: the construction target itself.
type ExecutableType struct {
	TypeParams []*TypeVariable
	Params     []TypeDescriptor
	Results    []TypeDescriptor
	Receiver   TypeDescriptor
	Thrown     []TypeDescriptor
}

func (d *ExecutableType) Kind() TypeKind { return KindExecutable }
func (*ExecutableType) sealed()          {}

func (d *ExecutableType) Rendered() string {
	var b strings.Builder
	b.WriteString("func")
	if d.Receiver != nil {
		b.WriteString(" (" + d.Receiver.Rendered() + ")")
	}
	if len(d.TypeParams) > 0 {
		names := make([]string, len(d.TypeParams))
		for i, tp := range d.TypeParams {
			names[i] = tp.Name
		}
		b.WriteString("[" + strings.Join(names, ", ") + "]")
	}
	b.WriteString("(" + renderList(d.Params, ", ") + ")")
	results := append(append([]TypeDescriptor{}, d.Results...), d.Thrown...)
	switch len(results) {
	case 0:
	case 1:
		b.WriteString(" " + results[0].Rendered())
	default:
		b.WriteString(" (" + renderList(results, ", ") + ")")
	}
	return b.String()
}

// Func returns an executable descriptor.
func Func(typeParams []*TypeVariable, params, results, thrown []TypeDescriptor) *ExecutableType {
	return &ExecutableType{TypeParams: typeParams, Params: params, Results: results, Thrown: thrown}
}

// NoneType marks an absent type.
type NoneType struct{}

func (NoneType) Kind() TypeKind   { return KindNone }
func (NoneType) Rendered() string { return "none" }
func (NoneType) sealed()          {}

// None returns the absent type.
func None() NoneType { return NoneType{} }

// NullType is the type of nil.
type NullType struct{}

func (NullType) Kind() TypeKind   { return KindNull }
func (NullType) Rendered() string { return "nil" }
func (NullType) sealed()          {}

// Null returns the nil type.
func Null() NullType { return NullType{} }

// IsTopType reports whether t is the universal constraint.
func IsTopType(t TypeDescriptor) bool {
	if t == nil {
		return false
	}
	switch t.Rendered() {
	case "any", "interface{}", "interface {}":
		return true
	}
	return false
}

// IsTrivialBound reports whether a bound adds no information: absent, nil,
// none, or the top type.
func IsTrivialBound(t TypeDescriptor) bool {
	if t == nil {
		return true
	}
	switch t.Kind() {
	case KindNone, KindNull:
		return true
	}
	return IsTopType(t)
}

func renderList(ts []TypeDescriptor, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.Rendered()
	}
	return strings.Join(parts, sep)
}
