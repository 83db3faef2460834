// Package analyzer walks the type descriptors of a construction target and
// answers which type parameters a set of fields depends on.
package analyzer

import (
	"sort"

	set "github.com/hashicorp/go-set/v3"

	"github.com/broady/stepgen/ir"
)

// Relationship labels the edge between a parent node and a child it was
// visited through.
type Relationship string

const (
	Child       Relationship = "CHILD"
	ArrayMember Relationship = "ARRAY_MEMBER"
	UpperBound  Relationship = "UPPER_BOUND"
	LowerBound  Relationship = "LOWER_BOUND"
	Extends     Relationship = "EXTENDS"
	Super       Relationship = "SUPER"
	BoundEdge   Relationship = "BOUND"
	Param       Relationship = "PARAM"
	Return      Relationship = "RETURN"
	Receiver    Relationship = "RECEIVER"
	Thrown      Relationship = "THROWN"
	TypeVar     Relationship = "TYPE_VAR"
)

// Edge is a (parent, child) pair of node keys.
type Edge struct {
	Parent string
	Child  string
}

// Forest is the result of walking one type expression. Nodes are keyed by
// their rendered text, so the same type reached twice is one node.
type Forest struct {
	order         []string
	nodes         map[string]ir.TypeDescriptor
	children      map[string][]string
	relationships map[Edge]*set.Set[Relationship]
}

// Walk builds the forest rooted at root. A node already on the current walk
// path is linked to its parent but not entered again, which terminates
// recursive bounds such as [T Ordered[T]].
func Walk(root ir.TypeDescriptor) *Forest {
	f := &Forest{
		nodes:         make(map[string]ir.TypeDescriptor),
		children:      make(map[string][]string),
		relationships: make(map[Edge]*set.Set[Relationship]),
	}
	if root != nil {
		w := &walker{forest: f, onPath: make(map[string]bool)}
		w.visit(root)
	}
	return f
}

type walker struct {
	forest *Forest
	onPath map[string]bool
}

func (w *walker) visit(d ir.TypeDescriptor) {
	key := d.Rendered()
	w.forest.add(key, d)
	if w.onPath[key] {
		return
	}
	w.onPath[key] = true
	defer delete(w.onPath, key)

	switch t := d.(type) {
	case *ir.DeclaredType:
		for _, arg := range t.Args {
			w.edge(key, arg, Child)
		}
	case *ir.ArrayType:
		w.edge(key, t.Elem, ArrayMember)
	case *ir.TypeVariable:
		w.edge(key, t.Lower, LowerBound)
		w.edge(key, t.Upper, UpperBound)
	case *ir.WildcardType:
		w.edge(key, t.Extends, Extends)
		w.edge(key, t.Super, Super)
	case *ir.IntersectionType:
		for _, m := range t.Members {
			w.edge(key, m, BoundEdge)
		}
	case *ir.UnionType:
		for _, m := range t.Members {
			w.edge(key, m, BoundEdge)
		}
	case *ir.ExecutableType:
		// Type variables first so they are ordered as declared.
		for _, tv := range t.TypeParams {
			w.edge(key, tv, TypeVar)
		}
		for _, p := range t.Params {
			w.edge(key, p, Param)
		}
		for _, r := range t.Results {
			w.edge(key, r, Return)
		}
		w.edge(key, t.Receiver, Receiver)
		for _, th := range t.Thrown {
			w.edge(key, th, Thrown)
		}
	}
}

func (w *walker) edge(parent string, child ir.TypeDescriptor, label Relationship) {
	if isNil(child) {
		return
	}
	w.forest.link(parent, child.Rendered(), label)
	w.visit(child)
}

func isNil(d ir.TypeDescriptor) bool {
	if d == nil {
		return true
	}
	switch t := d.(type) {
	case *ir.TypeVariable:
		return t == nil
	case *ir.DeclaredType:
		return t == nil
	}
	return false
}

func (f *Forest) add(key string, d ir.TypeDescriptor) {
	if _, ok := f.nodes[key]; ok {
		return
	}
	f.nodes[key] = d
	f.order = append(f.order, key)
}

func (f *Forest) link(parent, child string, label Relationship) {
	e := Edge{Parent: parent, Child: child}
	labels, ok := f.relationships[e]
	if !ok {
		labels = set.New[Relationship](1)
		f.relationships[e] = labels
		f.children[parent] = append(f.children[parent], child)
	}
	labels.Insert(label)
}

// Nodes returns every node key in depth-first visitation order.
func (f *Forest) Nodes() []string { return f.order }

// Contains reports whether the forest has a node with the given key.
func (f *Forest) Contains(key string) bool {
	_, ok := f.nodes[key]
	return ok
}

// Descriptor returns the descriptor first seen for key.
func (f *Forest) Descriptor(key string) ir.TypeDescriptor { return f.nodes[key] }

// Children returns the children of a node in the order they were linked.
func (f *Forest) Children(key string) []string { return f.children[key] }

// Labels returns the relationships recorded between parent and child, sorted.
func (f *Forest) Labels(parent, child string) []Relationship {
	labels, ok := f.relationships[Edge{Parent: parent, Child: child}]
	if !ok {
		return nil
	}
	out := labels.Slice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether the edge parent→child carries label.
func (f *Forest) Has(parent, child string, label Relationship) bool {
	labels, ok := f.relationships[Edge{Parent: parent, Child: child}]
	return ok && labels.Contains(label)
}

// TypeVariables returns the type-variable nodes in visitation order.
func (f *Forest) TypeVariables() []*ir.TypeVariable {
	var out []*ir.TypeVariable
	for _, key := range f.order {
		if tv, ok := f.nodes[key].(*ir.TypeVariable); ok {
			out = append(out, tv)
		}
	}
	return out
}
