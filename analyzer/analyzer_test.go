package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/broady/stepgen/ir"
)

// pairTarget models
//
//	func NewPair[K comparable, V fmt.Stringer](key K, values []V, label string) Pair[K, V]
func pairTarget() (*ir.ExecutableType, []ir.Field) {
	k := ir.TypeVar("K", ir.Declared("comparable"))
	v := ir.TypeVar("V", ir.Declared("fmt.Stringer"))
	fields := []ir.Field{
		{Name: "key", Type: k, Required: true, Position: 0},
		{Name: "values", Type: ir.Slice(v), Required: true, Position: 1},
		{Name: "label", Type: ir.Primitive("string"), Position: 2},
	}
	sig := ir.Func(
		[]*ir.TypeVariable{k, v},
		[]ir.TypeDescriptor{k, ir.Slice(v), ir.Primitive("string")},
		[]ir.TypeDescriptor{ir.Declared("Pair", k, v)},
		nil,
	)
	return sig, fields
}

func TestWalk_Edges(t *testing.T) {
	sig, _ := pairTarget()
	f := Walk(sig)

	root := sig.Rendered()
	require.Equal(t, []Relationship{TypeVar}, f.Labels(root, "V"))
	require.True(t, f.Has(root, "K", Param))
	require.True(t, f.Has(root, "K", TypeVar))
	require.True(t, f.Has(root, "[]V", Param))
	require.True(t, f.Has("[]V", "V", ArrayMember))
	require.True(t, f.Has(root, "Pair[K, V]", Return))
	require.True(t, f.Has("Pair[K, V]", "K", Child))
	require.True(t, f.Has("K", "comparable", UpperBound))
	require.True(t, f.Has("K", "nil", LowerBound), "trivial bounds are still recorded")
	require.Nil(t, f.Labels("K", "V"))
}

func TestWalk_TypeVariableOrder(t *testing.T) {
	sig, _ := pairTarget()
	// Params mention V before K; declaration order must still win.
	sig.Params = []ir.TypeDescriptor{sig.Params[1], sig.Params[0]}

	var names []string
	for _, tv := range Walk(sig).TypeVariables() {
		names = append(names, tv.Name)
	}
	require.Equal(t, []string{"K", "V"}, names)
}

func TestWalk_RecursiveBound(t *testing.T) {
	tv := &ir.TypeVariable{Name: "T", Lower: ir.Null()}
	tv.Upper = ir.Declared("Ordered", tv)

	f := Walk(ir.Slice(tv))
	require.True(t, f.Has("T", "Ordered[T]", UpperBound))
	require.True(t, f.Has("Ordered[T]", "T", Child), "back edge is linked")
	require.Equal(t, []string{"[]T", "T", "nil", "Ordered[T]"}, f.Nodes())
}

func TestWalk_Shapes(t *testing.T) {
	f := Walk(ir.Intersection(ir.Declared("io.Reader"), ir.Union(ir.Primitive("~int"), ir.Primitive("~string"))))
	require.True(t, f.Has("io.Reader & ~int | ~string", "io.Reader", BoundEdge))
	require.True(t, f.Has("~int | ~string", "~int", BoundEdge))

	w := Walk(ir.Wildcard(ir.Declared("Number"), nil))
	require.True(t, w.Has("? extends Number", "Number", Extends))
	require.Len(t, w.Nodes(), 2)

	require.Empty(t, Walk(nil).Nodes())
}

func TestGenericsRequiredFor(t *testing.T) {
	sig, fields := pairTarget()
	a := New(sig, fields)

	require.Equal(t, []string{"K", "V"}, a.TypeVariables())

	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{"none", nil, nil},
		{"key", []string{"key"}, []string{"K"}},
		{"values", []string{"values"}, []string{"V"}},
		{"order independent", []string{"values", "key"}, []string{"K", "V"}},
		{"non generic", []string{"label"}, nil},
		{"unknown", []string{"missing"}, nil},
		{"mixed", []string{"missing", "label", "values"}, []string{"V"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, a.GenericsRequiredFor(tt.names...))
		})
	}
}

func TestGenericsRequiredFor_BoundDependency(t *testing.T) {
	// func New[E any, S ~[]E](s S) Box[S]: supplying s requires E too.
	e := ir.TypeVar("E", ir.Declared("any"))
	s := ir.TypeVar("S", ir.Primitive("~[]E"))
	s.Upper = ir.Composite("~[]E", e)
	fields := []ir.Field{{Name: "s", Type: s, Required: true}}
	sig := ir.Func([]*ir.TypeVariable{e, s}, []ir.TypeDescriptor{s}, []ir.TypeDescriptor{ir.Declared("Box", s)}, nil)

	a := New(sig, fields)
	require.Equal(t, []string{"E", "S"}, a.GenericsRequiredFor("s"))
}

func TestBoundFor(t *testing.T) {
	k := ir.TypeVar("K", ir.Declared("comparable"))
	a := ir.TypeVar("A", ir.Declared("any"))
	both := ir.TypeVar("B", ir.Intersection(ir.Declared("comparable"), ir.Declared("fmt.Stringer")))
	lower := &ir.TypeVariable{Name: "L", Upper: ir.Declared("any"), Lower: ir.Declared("Base")}
	u := ir.TypeVar("U", ir.Union(ir.Primitive("~int"), ir.Primitive("~string")))

	sig := ir.Func([]*ir.TypeVariable{k, a, both, lower, u}, nil, nil, nil)
	an := New(sig, nil)

	tests := []struct {
		name       string
		want       string
		constraint string
	}{
		{"K", "extends comparable", "comparable"},
		{"A", "", "any"},
		{"B", "extends comparable & fmt.Stringer", "interface{ comparable; fmt.Stringer }"},
		{"L", "super Base", "any"},
		{"U", "extends ~int | ~string", "~int | ~string"},
		{"missing", "", "any"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := an.BoundFor(tt.name)
			require.Equal(t, tt.want, b.String())
			require.Equal(t, tt.constraint, b.Constraint())
		})
	}

	params := an.TypeParams([]string{"K", "A"})
	require.Len(t, params, 2)
	require.Equal(t, "K", params[0].Name)
	require.Equal(t, BoundExtends, params[0].Bound.Kind)
	require.Equal(t, BoundNone, params[1].Bound.Kind)
}
