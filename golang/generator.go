package golang

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/broady/stepgen/ir"
	"github.com/broady/stepgen/plan"
)

// Generator writes Go builder files.
type Generator struct{}

var _ Backend = (*Generator)(nil)

func (g *Generator) Name() string { return "go" }

// Generate renders each plan and writes it through the sink. Two plans that
// would be written to the same path are a naming conflict.
func (g *Generator) Generate(ctx context.Context, files []*plan.File, opts GenerateOptions) (*GenerateResult, error) {
	if opts.Sink == nil {
		return nil, fmt.Errorf("golang: no output sink")
	}
	result := &GenerateResult{}
	written := make(map[string]string)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		out, err := g.Render(f, opts.Config)
		if err != nil {
			return result, err
		}
		p, err := OutputPath(f, opts.Config)
		if err != nil {
			return result, err
		}
		if other, ok := written[p]; ok {
			return result, ir.Errorf(ir.CodeNamingConflict,
				"%s and %s are both generated into %s", other, f.Target, p).WithTarget(f.Target, nil)
		}
		written[p] = f.Target

		if err := opts.Sink.WriteFile(ctx, p, out); err != nil {
			return result, fmt.Errorf("writing %s: %w", p, err)
		}
		result.Files = append(result.Files, OutputFile{Path: p, Target: f.Target, Size: int64(len(out))})
		result.BuildersGenerated += len(f.Classes)
	}
	return result, nil
}

// Render checks the names in f and returns its Go source.
func (g *Generator) Render(f *plan.File, cfg GeneratorConfig) ([]byte, error) {
	if err := checkNames(f); err != nil {
		return nil, err
	}
	e := &Emitter{Raw: cfg.Raw, Filename: fileName(f.Builder, cfg)}
	if f.Package.Dir != "" {
		e.Filename = filepath.Join(f.Package.Dir, e.Filename)
	}
	return e.Emit(f)
}

// OutputPath returns the slash-separated sink path of the file for f.
func OutputPath(f *plan.File, cfg GeneratorConfig) (string, error) {
	name := fileName(f.Builder, cfg)
	if f.Package.Dir == "" {
		return name, nil
	}
	root := cfg.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absDir, err := filepath.Abs(f.Package.Dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("package %s at %s is outside %s", f.Package.Path, f.Package.Dir, root)
	}
	if rel == "." {
		return name, nil
	}
	return path.Join(filepath.ToSlash(rel), name), nil
}

func fileName(builder string, cfg GeneratorConfig) string {
	name := FileName(builder)
	if cfg.FileSuffix != "" {
		name = strings.TrimSuffix(name, "_gen.go") + cfg.FileSuffix
	}
	return name
}
