// Package testutil provides helpers for end-to-end generation tests: throwaway
// modules to load targets from and assertions on generated source.
// This package is designed to be import-cycle safe and can be used from any package.
package testutil

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// ModuleBuilder helps construct a throwaway Go module with fluent API.
type ModuleBuilder struct {
	path      string
	goVersion string
	files     map[string]string
}

// NewModule creates a module builder for the given module path.
func NewModule(path string) *ModuleBuilder {
	return &ModuleBuilder{
		path:      path,
		goVersion: "1.25",
		files:     make(map[string]string),
	}
}

// GoVersion sets the go directive of go.mod.
func (b *ModuleBuilder) GoVersion(v string) *ModuleBuilder {
	b.goVersion = v
	return b
}

// WithFile adds a file at a slash-separated path relative to the module root.
func (b *ModuleBuilder) WithFile(name, content string) *ModuleBuilder {
	b.files[name] = content
	return b
}

// Build writes the module to a temporary directory removed when the test
// ends, and returns the directory.
func (b *ModuleBuilder) Build(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	gomod := "module " + b.path + "\n\ngo " + b.goVersion + "\n"
	writeFile(t, filepath.Join(dir, "go.mod"), gomod)
	for name, content := range b.files {
		writeFile(t, filepath.Join(dir, filepath.FromSlash(name)), content)
	}
	return dir
}

func writeFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// Go runs the go command in dir and fails the test with its output if it
// exits non-zero. The test is skipped when no go command is on PATH.
// Builds use the local toolchain and ignore any enclosing go.work.
func Go(t testing.TB, dir string, args ...string) string {
	t.Helper()
	gobin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go command not found")
	}
	cmd := exec.Command(gobin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOTOOLCHAIN=local", "GOWORK=off", "GOFLAGS=-mod=mod")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

// ParseSource parses generated source, failing the test if it is not valid Go.
func ParseSource(t testing.TB, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "generated.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
	return f
}

// Decls returns the names of the top-level declarations of f, sorted.
// Methods are named Type.Method.
func Decls(f *ast.File) []string {
	var names []string
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			name := d.Name.Name
			if d.Recv != nil && len(d.Recv.List) > 0 {
				name = receiverName(d.Recv.List[0].Type) + "." + name
			}
			names = append(names, name)
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					names = append(names, ts.Name.Name)
				}
			}
		}
	}
	slices.Sort(names)
	return names
}

func receiverName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return receiverName(e.X)
	case *ast.IndexExpr:
		return receiverName(e.X)
	case *ast.IndexListExpr:
		return receiverName(e.X)
	case *ast.Ident:
		return e.Name
	}
	return ""
}

// AssertDecls fails the test unless src declares every name in want.
func AssertDecls(t testing.TB, src []byte, want ...string) {
	t.Helper()
	got := Decls(ParseSource(t, src))
	for _, name := range want {
		if !slices.Contains(got, name) {
			t.Errorf("missing declaration %s; have %v", name, got)
		}
	}
}

// AssertNoDecls fails the test if src declares any name in unwanted.
func AssertNoDecls(t testing.TB, src []byte, unwanted ...string) {
	t.Helper()
	got := Decls(ParseSource(t, src))
	for _, name := range unwanted {
		if slices.Contains(got, name) {
			t.Errorf("unexpected declaration %s", name)
		}
	}
}
