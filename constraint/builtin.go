package constraint

import (
	"go/token"
	"regexp"
	"strconv"
	"strings"

	"github.com/broady/stepgen/ir"
)

// Built-in constraint kinds.
const (
	KindNotNil   = "notnil"
	KindNonZero  = "nonzero"
	KindRange    = "range"
	KindLength   = "length"
	KindPattern  = "pattern"
	KindFunc     = "func"
	KindValidate = "validate"
	KindEach     = "each"
)

// DefaultRegistry returns a registry with every built-in kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindNotNil, newNotNil)
	r.Register(KindNonZero, newNonZero)
	r.Register(KindRange, newRange)
	r.Register(KindLength, newLength)
	r.Register(KindPattern, newPattern)
	r.Register(KindFunc, newFunc)
	r.Register(KindValidate, newValidate)
	r.Register(KindEach, newEach)
	return r
}

// base carries the parts every built-in shares.
type base struct {
	kind   string
	weight int
	site   Site
	doc    string
}

func (b base) Kind() string               { return b.kind }
func (b base) Weight() int                { return b.weight }
func (b base) DecorateClass(*Decorations) {}

func (b base) ContributeDocComments(d *DocSink) {
	if b.doc != "" {
		d.Add(b.site.Field.Name, b.doc)
	}
}

func invalid(site Site, kind, format string, args ...any) error {
	d := ir.Errorf(ir.CodeInvalidConstraint, format, args...)
	d.Message = kind + " on parameter " + site.Field.Name + ": " + d.Message
	return d
}

// notnil

type notNil struct{ base }

func newNotNil(site Site, _ string) (Generator, error) {
	if !site.Field.Nilable {
		return nil, invalid(site, KindNotNil, "type %s cannot be nil", site.Field.Type.Rendered())
	}
	return notNil{base{kind: KindNotNil, weight: 0, site: site, doc: "Must not be nil."}}, nil
}

func (notNil) Generate(w *Code, f FieldRef, problems ProblemSink, _ TargetInfo) error {
	problems.Report(w, f, f.Expr+" == nil", "must not be nil")
	return nil
}

// nonzero

type nonZero struct{ base }

func newNonZero(site Site, _ string) (Generator, error) {
	return nonZero{base{kind: KindNonZero, weight: 10, site: site, doc: "Must not be the zero value."}}, nil
}

func (nonZero) Generate(w *Code, f FieldRef, problems ProblemSink, _ TargetInfo) error {
	w.Import("reflect")
	problems.Report(w, f, "reflect.ValueOf(&"+f.Expr+").Elem().IsZero()", "must not be the zero value")
	return nil
}

// range and length

type bounds struct {
	base
	min, max string
	length   bool
}

func parseBounds(site Site, kind, arg string, integer bool) (string, string, error) {
	lo, hi, ok := strings.Cut(arg, ",")
	if !ok {
		return "", "", invalid(site, kind, "argument %q must be min,max", arg)
	}
	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
	if lo == "" && hi == "" {
		return "", "", invalid(site, kind, "argument %q has no bound", arg)
	}
	for _, v := range []string{lo, hi} {
		if v == "" {
			continue
		}
		var err error
		if integer {
			_, err = strconv.Atoi(v)
		} else {
			_, err = strconv.ParseFloat(v, 64)
		}
		if err != nil {
			return "", "", invalid(site, kind, "bound %q is not a number", v)
		}
	}
	return lo, hi, nil
}

func newRange(site Site, arg string) (Generator, error) {
	lo, hi, err := parseBounds(site, KindRange, arg, false)
	if err != nil {
		return nil, err
	}
	return bounds{base: base{kind: KindRange, weight: 10, site: site, doc: describeBounds("Must be", lo, hi)}, min: lo, max: hi}, nil
}

func newLength(site Site, arg string) (Generator, error) {
	lo, hi, err := parseBounds(site, KindLength, arg, true)
	if err != nil {
		return nil, err
	}
	return bounds{base: base{kind: KindLength, weight: 10, site: site, doc: describeBounds("Length must be", lo, hi)}, min: lo, max: hi, length: true}, nil
}

func describeBounds(prefix, lo, hi string) string {
	switch {
	case lo != "" && hi != "":
		return prefix + " between " + lo + " and " + hi + "."
	case lo != "":
		return prefix + " at least " + lo + "."
	default:
		return prefix + " at most " + hi + "."
	}
}

func (b bounds) Generate(w *Code, f FieldRef, problems ProblemSink, _ TargetInfo) error {
	subject, what := f.Expr, ""
	if b.length {
		subject, what = "len("+f.Expr+")", "length "
	}
	if b.min != "" {
		problems.Report(w, f, subject+" < "+b.min, what+"must be at least "+b.min)
	}
	if b.max != "" {
		problems.Report(w, f, subject+" > "+b.max, what+"must be at most "+b.max)
	}
	return nil
}

// pattern

type pattern struct {
	base
	expr  string
	ident string
}

func newPattern(site Site, arg string) (Generator, error) {
	if _, err := regexp.Compile(arg); err != nil {
		return nil, invalid(site, KindPattern, "%v", err)
	}
	ident := site.Ident() + "Pattern"
	if site.Ordinal > 0 {
		ident += strconv.Itoa(site.Ordinal)
	}
	return pattern{
		base:  base{kind: KindPattern, weight: 50, site: site, doc: "Must match " + arg + "."},
		expr:  arg,
		ident: ident,
	}, nil
}

func (p pattern) DecorateClass(d *Decorations) {
	d.Import("regexp")
	d.Decl(p.ident, "var "+p.ident+" = regexp.MustCompile("+strconv.Quote(p.expr)+")")
}

func (p pattern) Generate(w *Code, f FieldRef, problems ProblemSink, _ TargetInfo) error {
	problems.Report(w, f, "!"+p.ident+".MatchString(string("+f.Expr+"))", "must match "+p.expr)
	return nil
}

// func

type funcCheck struct {
	base
	fn string
}

func newFunc(site Site, arg string) (Generator, error) {
	if !isQualifiedIdent(arg) {
		return nil, invalid(site, KindFunc, "%q is not a function name", arg)
	}
	return funcCheck{base{kind: KindFunc, weight: 50, site: site, doc: "Checked by " + arg + "."}, arg}, nil
}

func (c funcCheck) Generate(w *Code, f FieldRef, problems ProblemSink, _ TargetInfo) error {
	problems.ReportError(w, f, c.fn+"("+f.Expr+")")
	return nil
}

func isQualifiedIdent(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if !token.IsIdentifier(p) {
			return false
		}
	}
	return true
}

// validate and each

type validateCheck struct {
	base
	tag string
}

func newValidate(site Site, arg string) (Generator, error) {
	rules := ParseValidateTag(arg)
	if len(rules) == 0 {
		return nil, invalid(site, KindValidate, "empty tag")
	}
	weight := 100
	if hasRule(rules, "dive") {
		weight = HeavyWeight
	}
	return validateCheck{
		base: base{kind: KindValidate, weight: weight, site: site, doc: ir.Capitalize(describeRules(rules)) + "."},
		tag:  FormatValidateTag(rules),
	}, nil
}

func newEach(site Site, arg string) (Generator, error) {
	rules := ParseValidateTag(arg)
	if len(rules) == 0 {
		return nil, invalid(site, KindEach, "empty tag")
	}
	return validateCheck{
		base: base{kind: KindEach, weight: HeavyWeight, site: site, doc: "Each element " + describeRules(rules) + "."},
		tag:  "dive," + FormatValidateTag(rules),
	}, nil
}

func (c validateCheck) validatorVar() string {
	return lowerFirst(c.site.Builder) + "Validator"
}

func (c validateCheck) DecorateClass(d *Decorations) {
	d.Import("github.com/go-playground/validator/v10")
	d.Decl(c.validatorVar(), "var "+c.validatorVar()+" = validator.New()")
}

func (c validateCheck) Generate(w *Code, f FieldRef, problems ProblemSink, _ TargetInfo) error {
	problems.ReportError(w, f, c.validatorVar()+".Var("+f.Expr+", "+strconv.Quote(c.tag)+")")
	return nil
}
