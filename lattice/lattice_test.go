package lattice

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/broady/stepgen/analyzer"
	"github.com/broady/stepgen/ir"
)

func build(t *testing.T, fields []ir.Field, sig *ir.ExecutableType, opts Options) *Lattice {
	t.Helper()
	if sig == nil {
		sig = ir.Func(nil, nil, []ir.TypeDescriptor{ir.Declared("Thing")}, nil)
	}
	if opts.Root == "" {
		opts.Root = "ThingBuilder"
	}
	l, err := Build(ir.NewFieldModel(fields), analyzer.New(sig, fields), opts)
	require.NoError(t, err)
	return l
}

func requiredFields(names ...string) []ir.Field {
	fields := make([]ir.Field, len(names))
	for i, name := range names {
		fields[i] = ir.Field{Name: name, Type: ir.Primitive("int"), Required: true, Position: i}
	}
	return fields
}

func TestBuild_StateCount(t *testing.T) {
	for n := 1; n <= 6; n++ {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			names := make([]string, n)
			for i := range names {
				names[i] = string(rune('a' + i))
			}
			l := build(t, requiredFields(names...), nil, Options{})

			require.Len(t, l.States(), 1<<n)
			require.Len(t, l.Terminals(), n)
			require.Len(t, l.Emitted(), 1<<n-1)

			seen := make(map[string]bool)
			complete := 0
			for _, s := range l.States() {
				require.False(t, seen[s.Name], "duplicate name %s", s.Name)
				seen[s.Name] = true
				if s.Complete() {
					complete++
				}
			}
			require.Equal(t, 1, complete)
		})
	}
}

func TestBuild_ThreeFields(t *testing.T) {
	l := build(t, requiredFields("c", "a", "b"), nil, Options{})

	require.Len(t, l.States(), 8)
	require.Len(t, l.Terminals(), 3)

	root := l.Root()
	require.Equal(t, "ThingBuilderWith", root.Name)
	require.Nil(t, root.Build)
	require.Len(t, root.Transitions, 3)
	for i, want := range []string{"a", "b", "c"} {
		require.Equal(t, want, l.Model().Field(root.Transitions[i].Field).Name, "transitions are name ordered")
	}

	ab, ok := l.LookupNames("b", "a")
	require.True(t, ok)
	require.Equal(t, "ThingBuilderSansC", ab.Name)
	require.Empty(t, ab.Transitions)
	require.NotNil(t, ab.Build)
	require.True(t, ab.Build.HasLast)
	require.Equal(t, "c", l.Model().Field(ab.Build.Last).Name)
	require.True(t, l.State(ab.Build.Target).Complete())
}

func TestBuild_CanonicalizationIdempotent(t *testing.T) {
	l := build(t, requiredFields("a", "b", "c"), nil, Options{})

	viaAB, err := l.Path("a", "b")
	require.NoError(t, err)
	viaBA, err := l.Path("b", "a")
	require.NoError(t, err)
	require.Same(t, viaAB, viaBA)

	looked, ok := l.Lookup(SetOf(0, 1))
	require.True(t, ok)
	require.Same(t, viaAB, looked)

	again, ok := l.LookupNames("a", "b")
	require.True(t, ok)
	require.Same(t, looked, again)
}

func TestBuild_GenericMonotonicity(t *testing.T) {
	k := ir.TypeVar("K", ir.Declared("comparable"))
	v := ir.TypeVar("V", ir.Declared("any"))
	w := ir.TypeVar("W", ir.Declared("any"))
	fields := []ir.Field{
		{Name: "key", Type: k, Required: true, Position: 0},
		{Name: "value", Type: ir.Slice(v), Required: true, Position: 1},
		{Name: "count", Type: ir.Primitive("int"), Required: true, Position: 2},
		{Name: "hook", Type: ir.Composite("func(K)", k), Position: 3},
	}
	sig := ir.Func([]*ir.TypeVariable{k, v, w},
		[]ir.TypeDescriptor{k, ir.Slice(v), ir.Primitive("int"), ir.Composite("func(K)", k)},
		[]ir.TypeDescriptor{ir.Declared("Table", k, v, w)}, nil)

	l := build(t, fields, sig, Options{})
	all := []string{"K", "V", "W"}

	for _, s := range l.States() {
		require.Subset(t, all, s.Generics)
		require.Contains(t, s.Generics, "K", "optional hook binds K on every state")
		for _, other := range l.States() {
			if other.Used.SubsetOf(s.Used) {
				require.Subset(t, s.Generics, other.Generics, "%s ⊂ %s", other.Name, s.Name)
			}
		}
		for _, tr := range s.Transitions {
			child := l.State(tr.Target)
			require.Equal(t, difference(child.Generics, s.Generics), tr.NewGenerics)
		}
	}

	root := l.Root()
	require.Equal(t, []string{"K"}, root.Generics)
	valueStep, err := l.Path("value")
	require.NoError(t, err)
	require.Equal(t, []string{"K", "V"}, valueStep.Generics)

	terminal, err := l.Path("count", "key")
	require.NoError(t, err)
	require.Equal(t, []string{"V", "W"}, terminal.Build.NewGenerics, "result-only W is introduced by build")
}

func TestBuild_ScaleCeiling(t *testing.T) {
	names := make([]string, 11)
	for i := range names {
		names[i] = fmt.Sprintf("f%02d", i)
	}
	fields := requiredFields(names...)
	sig := ir.Func(nil, nil, []ir.TypeDescriptor{ir.Declared("Wide")}, nil)

	_, err := Build(ir.NewFieldModel(fields), analyzer.New(sig, fields), Options{Root: "WideBuilder"})
	require.Error(t, err)
	require.True(t, ir.IsCode(err, ir.CodeScaleViolation))
	d, ok := ir.AsDiagnostic(err)
	require.True(t, ok)
	require.False(t, d.Fatal, "scale violations fall back instead of failing")

	l, err := Build(ir.NewFieldModel(fields), analyzer.New(sig, fields), Options{Root: "WideBuilder", Ceiling: 11})
	require.NoError(t, err)
	require.Len(t, l.States(), 1<<11)
}

func TestBuild_Deterministic(t *testing.T) {
	fields := []ir.Field{
		{Name: "y", Type: ir.Primitive("string"), Required: true, Position: 0},
		{Name: "x", Type: ir.Primitive("int"), Required: true, Position: 1},
		{Name: "z", Type: ir.Primitive("bool"), Position: 2},
	}

	snapshot := func() []string {
		l := build(t, fields, nil, Options{})
		var out []string
		for _, s := range l.States() {
			line := fmt.Sprintf("%s %v", s.Name, s.Generics)
			for _, tr := range s.Transitions {
				line += fmt.Sprintf(" ->%s:%s", l.Model().Field(tr.Field).Name, l.State(tr.Target).Name)
			}
			if s.Build != nil {
				line += " build:" + l.Model().Field(s.Build.Last).Name
			}
			out = append(out, line)
		}
		return out
	}

	first := snapshot()
	require.Equal(t, first, snapshot())
	require.Equal(t, []string{
		"ThingBuilderWith [] ->x:ThingBuilderWithX ->y:ThingBuilderWithY",
		"ThingBuilderWithX [] build:y",
		"ThingBuilderWithY [] build:x",
		"ThingBuilderSans []",
	}, first)
}

func TestBuild_RoundTrip(t *testing.T) {
	fields := []ir.Field{
		{Name: "foo", Type: ir.Primitive("int"), Required: true, Position: 0},
		{Name: "bar", Type: ir.Primitive("string"), Required: true, Position: 1},
		{Name: "baz", Type: ir.Primitive("bool"), Position: 2},
	}
	l := build(t, fields, nil, Options{})

	require.Nil(t, l.Root().Build, "no build before required fields are covered")

	afterFoo, err := l.Path("foo")
	require.NoError(t, err)
	require.Empty(t, afterFoo.Transitions)
	require.Equal(t, "bar", l.Model().Field(afterFoo.Build.Last).Name)

	afterBar, err := l.Path("bar")
	require.NoError(t, err)
	require.Equal(t, "foo", l.Model().Field(afterBar.Build.Last).Name)

	_, err = l.Path("foo", "bar")
	require.Error(t, err, "the last field is supplied only by build")

	for _, s := range l.States() {
		if s.Build != nil {
			require.Equal(t, 1, s.Unused.Len())
		}
	}
}

func TestBuild_NoRequiredFields(t *testing.T) {
	tv := ir.TypeVar("T", ir.Declared("any"))
	fields := []ir.Field{{Name: "opt", Type: ir.Primitive("int")}}
	sig := ir.Func([]*ir.TypeVariable{tv}, []ir.TypeDescriptor{ir.Primitive("int")}, []ir.TypeDescriptor{ir.Declared("Box", tv)}, nil)

	l := build(t, fields, sig, Options{Root: "BoxBuilder"})
	require.Len(t, l.States(), 1)
	root := l.Root()
	require.Equal(t, "BoxBuilder", root.Name)
	require.NotNil(t, root.Build)
	require.False(t, root.Build.HasLast)
	require.Equal(t, []string{"T"}, root.Build.NewGenerics)
	require.Equal(t, []*State{root}, l.Emitted())
}

func TestBuild_CollidingNames(t *testing.T) {
	// {aB} and {a, b} both render as RWithAB.
	fields := requiredFields("a", "aB", "b")
	sig := ir.Func(nil, nil, []ir.TypeDescriptor{ir.Declared("R")}, nil)
	l, err := Build(ir.NewFieldModel(fields), analyzer.New(sig, fields), Options{Root: "R"})
	require.NoError(t, err)

	single, ok := l.LookupNames("aB")
	require.True(t, ok)
	require.Equal(t, "RWithAB", single.Name)
	pair, ok := l.LookupNames("b", "a")
	require.True(t, ok)
	require.Equal(t, "RWithAB2", pair.Name)

	names := make(map[string]bool)
	for _, s := range l.States() {
		require.False(t, names[s.Name], "%s is used twice", s.Name)
		names[s.Name] = true
	}
	require.Len(t, names, 8)
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		used, unused []string
		want         string
	}{
		{nil, []string{"a", "b"}, "FooWith"},
		{[]string{"b", "a"}, []string{"c"}, "FooSansC"},
		{[]string{"a"}, []string{"b"}, "FooWithA"},
		{[]string{"name"}, []string{"host", "port"}, "FooWithName"},
		{[]string{"host", "port"}, []string{"id"}, "FooSansId"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, CanonicalName("Foo", tt.used, tt.unused))
		})
	}

	require.Equal(t, CanonicalKey([]string{"b", "a"}), CanonicalKey([]string{"a", "b"}))
}

func TestFieldSet(t *testing.T) {
	s := SetOf(3, 0, 5)
	require.Equal(t, 3, s.Len())
	require.Equal(t, []int{0, 3, 5}, s.Ranks())
	require.True(t, s.Has(3))
	require.False(t, s.Without(3).Has(3))
	require.True(t, SetOf(0, 5).SubsetOf(s))
	require.False(t, SetOf(1).SubsetOf(s))
	require.Equal(t, FieldSet(0b111), Full(3))
	require.Equal(t, FieldSet(0), Full(0))
	require.Equal(t, 62, Full(MaxCeiling).Len())
}
