package constraint

import (
	"sort"
	"strconv"
)

// ProblemSink decides how generated code records a validation problem.
type ProblemSink interface {
	// Report emits code that records msg for field when cond holds.
	Report(w *Code, field FieldRef, cond, msg string)

	// ReportError emits code that records the error produced by errExpr,
	// if it is non-nil.
	ReportError(w *Code, field FieldRef, errExpr string)

	// NoneRecorded returns an expression that is true while no problem has
	// been recorded at this validation point.
	NoneRecorded() string
}

// SliceSink appends problems to a local []error variable.
type SliceSink struct {
	Var string
}

// DefaultSink is the sink every generated validation point uses.
var DefaultSink = SliceSink{Var: "problems"}

func (s SliceSink) Report(w *Code, field FieldRef, cond, msg string) {
	w.Import("errors")
	w.Open("if %s", cond)
	w.Line("%s = append(%s, errors.New(%s))", s.Var, s.Var, strconv.Quote(field.Name+": "+msg))
	w.Close()
}

func (s SliceSink) ReportError(w *Code, field FieldRef, errExpr string) {
	w.Import("fmt")
	w.Open("if err := %s; err != nil", errExpr)
	w.Line("%s = append(%s, fmt.Errorf(%s, err))", s.Var, s.Var, strconv.Quote(field.Name+": %w"))
	w.Close()
}

func (s SliceSink) NoneRecorded() string {
	return "len(" + s.Var + ") == 0"
}

// Decorations collects package-level declarations that generated checks
// depend on, such as precompiled patterns. Declarations are deduplicated by
// key and kept in insertion order.
type Decorations struct {
	keys    []string
	decls   map[string]string
	imports map[string]bool
}

// NewDecorations returns an empty collection.
func NewDecorations() *Decorations {
	return &Decorations{decls: make(map[string]string), imports: make(map[string]bool)}
}

// Decl adds a declaration under key unless one is already present.
func (d *Decorations) Decl(key, code string) {
	if _, ok := d.decls[key]; ok {
		return
	}
	d.keys = append(d.keys, key)
	d.decls[key] = code
}

// Import records a package the declarations refer to.
func (d *Decorations) Import(path string) { d.imports[path] = true }

// Decls returns the declarations in insertion order.
func (d *Decorations) Decls() []string {
	out := make([]string, len(d.keys))
	for i, key := range d.keys {
		out[i] = d.decls[key]
	}
	return out
}

// Imports returns the recorded import paths, sorted.
func (d *Decorations) Imports() []string {
	out := make([]string, 0, len(d.imports))
	for path := range d.imports {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// DocSink collects per-field documentation lines describing checks.
type DocSink struct {
	lines map[string][]string
}

// NewDocSink returns an empty doc sink.
func NewDocSink() *DocSink {
	return &DocSink{lines: make(map[string][]string)}
}

// Add appends a line to the documentation of field.
func (d *DocSink) Add(field, line string) {
	for _, existing := range d.lines[field] {
		if existing == line {
			return
		}
	}
	d.lines[field] = append(d.lines[field], line)
}

// Lines returns the lines added for field.
func (d *DocSink) Lines(field string) []string { return d.lines[field] }
