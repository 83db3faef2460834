// Package stepgen generates step builders for Go constructor functions.
//
// A function marked with a //stepgen:builder directive gets a family of
// builder types, one per subset of supplied required parameters, so that the
// build method is only reachable once every required parameter was given.
// See the directive package for the directive syntax.
package stepgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/broady/stepgen/golang"
	"github.com/broady/stepgen/ir"
	"github.com/broady/stepgen/plan"
	"github.com/broady/stepgen/provider"
)

// Result describes a generation run.
type Result struct {
	// Files lists the generated files, in target order.
	Files []golang.OutputFile

	// Targets has one entry per target that produced a file.
	Targets []TargetResult

	// Plans are the builder plans of the successful targets.
	Plans []*plan.File

	Warnings []ir.Warning

	// Diagnostics are the problems of targets that were skipped.
	Diagnostics []*ir.Diagnostic
}

// TargetResult summarizes one generated target.
type TargetResult struct {
	Target   string      `json:"target" yaml:"target"`
	Package  string      `json:"package" yaml:"package"`
	Builder  string      `json:"builder" yaml:"builder"`
	Strategy ir.Strategy `json:"strategy" yaml:"strategy"`
	States   int         `json:"states" yaml:"states"`
	Types    int         `json:"types" yaml:"types"`
	Path     string      `json:"path" yaml:"path"`
}

// Err joins the fatal diagnostics, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, d := range r.Diagnostics {
		if d.Fatal {
			errs = append(errs, d)
		}
	}
	return errors.Join(errs...)
}

// Generate runs the pipeline: load targets, plan each one and write its
// file. A failing target is recorded as a diagnostic and the others still
// generate. The returned error covers configuration, loading and output
// failures only; see Result.Err for per-target problems.
func Generate(ctx context.Context, cfg *Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = applyConfigDefaults(cfg)
	log := cfg.Logger
	result := &Result{}

	targets := cfg.Targets
	if len(targets) == 0 {
		loaded, err := (&provider.SourceProvider{}).Load(ctx, provider.Options{
			Patterns:   cfg.Packages,
			Dir:        cfg.Dir,
			FileSuffix: cfg.FileSuffix,
		})
		if err != nil {
			return nil, err
		}
		targets = loaded.Targets
		for _, d := range loaded.Diagnostics {
			result.addDiagnostic(log, d)
		}
	}
	targets = selectTargets(targets, cfg.Only)
	log.Debug("loaded targets", slog.Int("count", len(targets)))

	gen := &golang.Generator{}
	genCfg := golang.GeneratorConfig{Root: cfg.Root, FileSuffix: cfg.FileSuffix}
	paths := make(map[string]string)

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := target.Name.Name
		src := target.Source

		f, warnings, err := plan.Build(target, plan.Options{
			Registry: cfg.Registry,
			Ceiling:  cfg.Ceiling,
			Version:  cfg.Version,
			Strategy: cfg.Strategy,
		})
		for _, w := range warnings {
			log.Warn(w.Message, slog.String("code", w.Code), slog.String("target", w.Target))
		}
		result.Warnings = append(result.Warnings, warnings...)
		if err != nil {
			if err := result.targetFailed(log, err, name, &src); err != nil {
				return nil, err
			}
			continue
		}

		path, err := golang.OutputPath(f, genCfg)
		if err != nil {
			return nil, err
		}
		if other, ok := paths[path]; ok {
			d := ir.Errorf(ir.CodeNamingConflict, "%s is also generated by %s", path, other)
			result.addDiagnostic(log, d.WithTarget(name, &src))
			continue
		}

		out, err := gen.Generate(ctx, []*plan.File{f}, golang.GenerateOptions{Sink: cfg.Sink, Config: genCfg})
		if err != nil {
			if err := result.targetFailed(log, err, name, &src); err != nil {
				return nil, err
			}
			continue
		}
		paths[path] = name

		result.Plans = append(result.Plans, f)
		result.Files = append(result.Files, out.Files...)
		result.Targets = append(result.Targets, TargetResult{
			Target:   name,
			Package:  target.Package.Path,
			Builder:  f.Builder,
			Strategy: f.Strategy,
			States:   f.States,
			Types:    out.BuildersGenerated,
			Path:     path,
		})
		log.Info("generated builder",
			slog.String("target", name),
			slog.String("path", path),
			slog.String("strategy", string(f.Strategy)),
			slog.Int("states", f.States),
		)
	}
	return result, nil
}

// targetFailed records err as a diagnostic of the target. Errors that are
// not diagnostics, such as sink failures, are returned.
func (r *Result) targetFailed(log *slog.Logger, err error, target string, src *ir.Source) error {
	d, ok := ir.AsDiagnostic(err)
	if !ok {
		return fmt.Errorf("%s: %w", target, err)
	}
	if d.Target == "" {
		d = d.WithTarget(target, src)
	}
	r.addDiagnostic(log, d)
	return nil
}

func (r *Result) addDiagnostic(log *slog.Logger, d *ir.Diagnostic) {
	attrs := []any{slog.String("code", string(d.Code))}
	if d.Target != "" {
		attrs = append(attrs, slog.String("target", d.Target))
	}
	if d.Source != nil {
		attrs = append(attrs, slog.String("source", d.Source.String()))
	}
	log.Error(d.Message, attrs...)
	r.Diagnostics = append(r.Diagnostics, d)
}

// selectTargets filters targets to the named ones and orders them by
// package and name.
func selectTargets(targets []*ir.Target, only []string) []*ir.Target {
	var out []*ir.Target
	for _, t := range targets {
		if len(only) == 0 || slices.Contains(only, t.Name.Name) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Package.Path != out[j].Package.Path {
			return out[i].Package.Path < out[j].Package.Path
		}
		return out[i].Name.Name < out[j].Name.Name
	})
	return out
}
