package constraint

import (
	"github.com/broady/stepgen/ir"
)

// Defaulter produces the value of an optional field at build time.
type Defaulter interface {
	// IsNoOp reports whether the stored value is used as is, with the zero
	// value standing in when the field was never set.
	IsNoOp() bool

	// Generate declares local from value, replacing it with the default
	// when isSet is false.
	Generate(w *Code, local, isSet, value string)
}

// DefaulterFor returns the defaulter for an optional field. Defaults are not
// supported on multi-dimensional arrays.
func DefaulterFor(field ir.Field) (Defaulter, error) {
	if field.Default == "" {
		return noopDefaulter{}, nil
	}
	if arr, ok := field.Type.(*ir.ArrayType); ok && arr.Dimensions() > 1 {
		return nil, ir.Errorf(ir.CodeUnsupportedShape,
			"default value for multi-dimensional array parameter %s (%s)", field.Name, arr.Rendered())
	}
	return exprDefaulter{expr: field.Default}, nil
}

type noopDefaulter struct{}

func (noopDefaulter) IsNoOp() bool { return true }

func (noopDefaulter) Generate(w *Code, local, _, value string) {
	w.Line("%s := %s", local, value)
}

type exprDefaulter struct {
	expr string
}

func (exprDefaulter) IsNoOp() bool { return false }

func (d exprDefaulter) Generate(w *Code, local, isSet, value string) {
	w.Line("%s := %s", local, value)
	w.Open("if !%s", isSet)
	w.Line("%s = %s", local, d.expr)
	w.Close()
}
