package golang

import (
	"testing"

	"github.com/broady/stepgen/ir"
	"github.com/broady/stepgen/plan"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		builder string
		want    string
	}{
		{"ServerBuilder", "serverbuilder_gen.go"},
		{"connBuilder", "connbuilder_gen.go"},
		{"HTTP_Builder", "httpbuilder_gen.go"},
		{"_", "builder_gen.go"},
	}
	for _, tt := range tests {
		if got := FileName(tt.builder); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.builder, got, tt.want)
		}
	}
}

func TestCheckNames(t *testing.T) {
	tests := []struct {
		name  string
		field string
		code  ir.ErrorCode
	}{
		{"ok", "port", ""},
		{"shadows errors", "errors", ir.CodeNamingConflict},
		{"shadows slices", "slices", ir.CodeNamingConflict},
		{"shadows import", "time", ir.CodeNamingConflict},
		{"shadows predeclared", "string", ir.CodeNamingConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := serverTarget()
			target.Fields[1].Name = tt.field
			target.Fields[1].Constraints = nil
			f, _, err := plan.Build(target, plan.Options{})
			if err != nil {
				t.Fatalf("plan.Build() error = %v", err)
			}
			err = checkNames(f)
			if tt.code == "" {
				if err != nil {
					t.Errorf("checkNames() error = %v", err)
				}
				return
			}
			if !ir.IsCode(err, tt.code) {
				t.Errorf("checkNames() error = %v, want %s", err, tt.code)
			}
		})
	}

	t.Run("invalid builder name", func(t *testing.T) {
		target := serverTarget()
		target.Options.BuilderName = "Server-Builder"
		f, _, err := plan.Build(target, plan.Options{})
		if err != nil {
			t.Fatalf("plan.Build() error = %v", err)
		}
		if err := checkNames(f); !ir.IsCode(err, ir.CodeInvalidDirective) {
			t.Errorf("checkNames() error = %v, want invalid directive", err)
		}
	})
}
