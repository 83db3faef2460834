package ir

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable diagnostic code.
type ErrorCode string

const (
	CodeScaleViolation    ErrorCode = "scale_violation"
	CodeUnsupportedShape  ErrorCode = "unsupported_shape"
	CodeNamingConflict    ErrorCode = "naming_conflict"
	CodeVersionSkew       ErrorCode = "version_skew"
	CodeInvalidDirective  ErrorCode = "invalid_directive"
	CodeInvalidConstraint ErrorCode = "invalid_constraint"
)

// Diagnostic is a generation-time problem tied to one construction target.
type Diagnostic struct {
	Code    ErrorCode `json:"code" yaml:"code"`
	Message string    `json:"message" yaml:"message"`

	// Target is the constructor the diagnostic belongs to, if known.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Source is the originating declaration, if known.
	Source *Source `json:"source,omitempty" yaml:"source,omitempty"`

	// Fatal diagnostics abort generation of their target.
	Fatal bool `json:"fatal" yaml:"fatal"`
}

func (d *Diagnostic) Error() string {
	msg := fmt.Sprintf("%s: %s", d.Code, d.Message)
	if d.Target != "" {
		msg = d.Target + ": " + msg
	}
	if d.Source != nil && !d.Source.IsZero() {
		msg = d.Source.String() + ": " + msg
	}
	return msg
}

// Errorf creates a fatal diagnostic with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Fatal:   true,
	}
}

// WithTarget returns a copy of d attributed to the named target.
func (d *Diagnostic) WithTarget(target string, src *Source) *Diagnostic {
	c := *d
	c.Target = target
	if src != nil {
		c.Source = src
	}
	return &c
}

// AsDiagnostic extracts a diagnostic from err's chain.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// IsCode reports whether err wraps a diagnostic with the given code.
func IsCode(err error, code ErrorCode) bool {
	d, ok := AsDiagnostic(err)
	return ok && d.Code == code
}
