package constraint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/broady/stepgen/ir"
)

type fakeGenerator struct {
	weight int
}

func (g fakeGenerator) Kind() string { return "fake" }
func (g fakeGenerator) Weight() int  { return g.weight }

func (g fakeGenerator) Generate(w *Code, f FieldRef, _ ProblemSink, _ TargetInfo) error {
	w.Line("check%d(%s)", g.weight, f.Expr)
	return nil
}

func (fakeGenerator) DecorateClass(*Decorations)     {}
func (fakeGenerator) ContributeDocComments(*DocSink) {}

func TestPlan_WeightOrdering(t *testing.T) {
	f := FieldRef{Name: "items", Expr: "items"}
	p := NewPlan(
		Entry{Field: f, Generator: fakeGenerator{10}},
		Entry{Field: f, Generator: fakeGenerator{500}},
		Entry{Field: f, Generator: fakeGenerator{20}},
	)
	require.Len(t, p.Light, 2)
	require.Len(t, p.Heavy, 1)

	w := NewCode()
	require.NoError(t, p.Emit(w, DefaultSink, TargetInfo{}))
	require.Equal(t, []string{
		"check10(items)",
		"check20(items)",
		"if len(problems) == 0 {",
		"\tcheck500(items)",
		"}",
	}, w.Lines())
}

func TestPlan_StableAcrossFields(t *testing.T) {
	a := FieldRef{Name: "a", Expr: "a"}
	b := FieldRef{Name: "b", Expr: "b"}
	p := NewPlan(
		Entry{Field: a, Generator: fakeGenerator{50}},
		Entry{Field: b, Generator: fakeGenerator{10}},
		Entry{Field: a, Generator: fakeGenerator{10}},
	)
	w := NewCode()
	require.NoError(t, p.Emit(w, DefaultSink, TargetInfo{}))
	require.Equal(t, []string{"check10(b)", "check10(a)", "check50(a)"}, w.Lines())
	require.True(t, NewPlan().Empty())
}

func resolve(t *testing.T, field ir.Field) []Generator {
	t.Helper()
	gens, err := DefaultRegistry().ForField("ServerBuilder", field)
	require.NoError(t, err)
	return gens
}

func TestRegistry_ForField(t *testing.T) {
	field := ir.Field{
		Name:    "tags",
		Type:    ir.Slice(ir.Primitive("string")),
		Nilable: true,
		Constraints: []ir.ConstraintRef{
			{Kind: KindEach, Arg: "required"},
			{Kind: KindLength, Arg: "1,"},
		},
	}
	gens := resolve(t, field)
	require.Len(t, gens, 3)
	require.Equal(t, KindNotNil, gens[0].Kind())
	require.Equal(t, 0, gens[0].Weight())
	require.Equal(t, KindEach, gens[1].Kind())
	require.Equal(t, HeavyWeight, gens[1].Weight())
	require.Equal(t, KindLength, gens[2].Kind())

	field.NullPolicy = ir.NullPermit
	require.Len(t, resolve(t, field), 2, "nullable fields have no implicit notnil")

	require.Equal(t, []string{"each", "func", "length", "nonzero", "notnil", "pattern", "range", "validate"}, DefaultRegistry().Kinds())
}

func TestRegistry_Errors(t *testing.T) {
	tests := []struct {
		name  string
		field ir.Field
	}{
		{"unknown kind", ir.Field{Name: "x", Type: ir.Primitive("int"), Constraints: []ir.ConstraintRef{{Kind: "bogus"}}}},
		{"bad pattern", ir.Field{Name: "x", Type: ir.Primitive("string"), Constraints: []ir.ConstraintRef{{Kind: KindPattern, Arg: "a("}}}},
		{"range without comma", ir.Field{Name: "x", Type: ir.Primitive("int"), Constraints: []ir.ConstraintRef{{Kind: KindRange, Arg: "5"}}}},
		{"range without bounds", ir.Field{Name: "x", Type: ir.Primitive("int"), Constraints: []ir.ConstraintRef{{Kind: KindRange, Arg: ","}}}},
		{"length not integer", ir.Field{Name: "x", Type: ir.Primitive("string"), Constraints: []ir.ConstraintRef{{Kind: KindLength, Arg: "1.5,"}}}},
		{"func not identifier", ir.Field{Name: "x", Type: ir.Primitive("string"), Constraints: []ir.ConstraintRef{{Kind: KindFunc, Arg: "check(x)"}}}},
		{"empty validate", ir.Field{Name: "x", Type: ir.Primitive("string"), Constraints: []ir.ConstraintRef{{Kind: KindValidate}}}},
		{"notnil on int", ir.Field{Name: "x", Type: ir.Primitive("int"), Constraints: []ir.ConstraintRef{{Kind: KindNotNil}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultRegistry().ForField("B", tt.field)
			require.Error(t, err)
			require.True(t, ir.IsCode(err, ir.CodeInvalidConstraint), "got %v", err)
		})
	}
}

func generate(t *testing.T, field ir.Field, expr string) (string, *Decorations, *DocSink) {
	t.Helper()
	var entries []Entry
	for _, g := range resolve(t, field) {
		entries = append(entries, Entry{Field: FieldRef{Name: field.Name, Expr: expr, Type: field.Type}, Generator: g})
	}
	p := NewPlan(entries...)
	w := NewCode()
	require.NoError(t, p.Emit(w, DefaultSink, TargetInfo{Builder: "ServerBuilder"}))
	d, docs := NewDecorations(), NewDocSink()
	p.Decorate(d, docs)
	return w.String(), d, docs
}

func TestBuiltins_Generate(t *testing.T) {
	t.Run("range", func(t *testing.T) {
		code, _, docs := generate(t, ir.Field{
			Name: "port", Type: ir.Primitive("int"),
			Constraints: []ir.ConstraintRef{{Kind: KindRange, Arg: "1,65535"}},
		}, "port")
		require.Contains(t, code, "if port < 1 {")
		require.Contains(t, code, `errors.New("port: must be at least 1")`)
		require.Contains(t, code, "if port > 65535 {")
		require.Equal(t, []string{"Must be between 1 and 65535."}, docs.Lines("port"))
	})

	t.Run("pattern", func(t *testing.T) {
		field := ir.Field{
			Name: "host", Type: ir.Primitive("string"),
			Constraints: []ir.ConstraintRef{{Kind: KindPattern, Arg: `^[a-z.]+$`}},
		}
		code, d, _ := generate(t, field, "b.host")
		require.Contains(t, code, "if !serverBuilderHostPattern.MatchString(string(b.host)) {")
		require.Equal(t, []string{`var serverBuilderHostPattern = regexp.MustCompile("^[a-z.]+$")`}, d.Decls())
		require.Equal(t, []string{"regexp"}, d.Imports())
	})

	t.Run("validate and each", func(t *testing.T) {
		field := ir.Field{
			Name: "emails", Type: ir.Slice(ir.Primitive("string")), Nilable: true, NullPolicy: ir.NullPermit,
			Constraints: []ir.ConstraintRef{
				{Kind: KindEach, Arg: "email"},
				{Kind: KindValidate, Arg: "min=1"},
			},
		}
		code, d, docs := generate(t, field, "emails")
		lines := strings.Split(code, "\n")
		require.Equal(t, `if err := serverBuilderValidator.Var(emails, "min=1"); err != nil {`, lines[0])
		require.Contains(t, code, "if len(problems) == 0 {\n\tif err := serverBuilderValidator.Var(emails, \"dive,email\"); err != nil {")
		require.Equal(t, []string{"var serverBuilderValidator = validator.New()"}, d.Decls(), "validator is declared once")
		require.Equal(t, []string{"Must be at least 1.", "Each element must be a valid email address."}, docs.Lines("emails"))
	})

	t.Run("notnil and nonzero", func(t *testing.T) {
		code, _, _ := generate(t, ir.Field{
			Name: "cfg", Type: ir.Pointer(ir.Declared("Config")), Nilable: true,
			Constraints: []ir.ConstraintRef{{Kind: KindNonZero}},
		}, "cfg")
		require.True(t, strings.HasPrefix(code, "if cfg == nil {"), code)
		require.Contains(t, code, "reflect.ValueOf(&cfg).Elem().IsZero()")
	})

	t.Run("func", func(t *testing.T) {
		code, _, _ := generate(t, ir.Field{
			Name: "addr", Type: ir.Primitive("string"),
			Constraints: []ir.ConstraintRef{{Kind: KindFunc, Arg: "checkAddr"}},
		}, "addr")
		require.Contains(t, code, "if err := checkAddr(addr); err != nil {")
		require.Contains(t, code, `fmt.Errorf("addr: %w", err)`)
	})
}

func TestDefaulterFor(t *testing.T) {
	d, err := DefaulterFor(ir.Field{Name: "n", Type: ir.Primitive("int")})
	require.NoError(t, err)
	require.True(t, d.IsNoOp())

	d, err = DefaulterFor(ir.Field{Name: "n", Type: ir.Primitive("int"), Default: "8080"})
	require.NoError(t, err)
	require.False(t, d.IsNoOp())
	w := NewCode()
	d.Generate(w, "n", "b.nSet", "b.n")
	require.Equal(t, []string{"n := b.n", "if !b.nSet {", "\tn = 8080", "}"}, w.Lines())

	_, err = DefaulterFor(ir.Field{Name: "grid", Type: ir.Slice(ir.Slice(ir.Primitive("int"))), Default: "nil"})
	require.True(t, ir.IsCode(err, ir.CodeUnsupportedShape))

	_, err = DefaulterFor(ir.Field{Name: "row", Type: ir.Slice(ir.Primitive("int")), Default: "[]int{1}"})
	require.NoError(t, err)
}

func TestParseValidateTag(t *testing.T) {
	rules := ParseValidateTag(" required, min=3 ,,oneof=a b")
	require.Equal(t, []ValidateRule{{Name: "required"}, {Name: "min", Param: "3"}, {Name: "oneof", Param: "a b"}}, rules)
	require.Equal(t, "required,min=3,oneof=a b", FormatValidateTag(rules))
	require.Nil(t, ParseValidateTag(""))
}
