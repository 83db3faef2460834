package stepgen

import (
	"context"
	"log/slog"

	"github.com/broady/stepgen/constraint"
	"github.com/broady/stepgen/ir"
	"github.com/broady/stepgen/sink"
)

// Generator provides a fluent API for generation.
// Create with FromPackages() or FromTargets() and configure with method chaining.
//
// Example:
//
//	stepgen.FromPackages("./...").
//	    Ceiling(8).
//	    ToDir(ctx, ".")
type Generator struct {
	cfg Config
}

// FromPackages creates a Generator scanning the packages matched by the
// go/packages patterns.
func FromPackages(patterns ...string) *Generator {
	return &Generator{cfg: Config{Packages: patterns}}
}

// FromTargets creates a Generator for targets built by hand, skipping
// package loading.
func FromTargets(targets ...*ir.Target) *Generator {
	return &Generator{cfg: Config{Targets: targets}}
}

// Dir sets the directory package patterns are resolved in.
func (g *Generator) Dir(dir string) *Generator {
	g.cfg.Dir = dir
	return g
}

// Only restricts generation to the named target functions.
func (g *Generator) Only(names ...string) *Generator {
	g.cfg.Only = append(g.cfg.Only, names...)
	return g
}

// Ceiling sets the largest required-parameter count generated as a lattice.
func (g *Generator) Ceiling(n int) *Generator {
	g.cfg.Ceiling = n
	return g
}

// Version sets the code generation version.
func (g *Generator) Version(v int) *Generator {
	g.cfg.Version = v
	return g
}

// Strategy sets the default strategy: ir.StrategyLattice or ir.StrategyFlat.
func (g *Generator) Strategy(s ir.Strategy) *Generator {
	g.cfg.Strategy = s
	return g
}

// FileSuffix sets the suffix of generated file names.
func (g *Generator) FileSuffix(suffix string) *Generator {
	g.cfg.FileSuffix = suffix
	return g
}

// Registry sets the constraint registry.
func (g *Generator) Registry(r *constraint.Registry) *Generator {
	g.cfg.Registry = r
	return g
}

// Logger sets the logger. The default is slog.Default().
func (g *Generator) Logger(l *slog.Logger) *Generator {
	g.cfg.Logger = l
	return g
}

// Config returns a copy of the accumulated configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate runs generation into memory and returns the sink holding the
// files alongside the result.
func (g *Generator) Generate(ctx context.Context) (*Result, *sink.MemorySink, error) {
	mem := sink.NewMemorySink()
	cfg := g.cfg
	cfg.Sink = mem
	result, err := Generate(ctx, &cfg)
	return result, mem, err
}

// ToDir generates files below dir, next to their targets.
// This is a terminal operation that writes files to disk.
func (g *Generator) ToDir(ctx context.Context, dir string) (*Result, error) {
	cfg := g.cfg
	cfg.Root = dir
	cfg.Sink = sink.NewFilesystemSink(dir)
	return Generate(ctx, &cfg)
}

// Check reports the generated files below dir that are missing or out of
// date, without writing anything.
func (g *Generator) Check(ctx context.Context, dir string) (*Result, []string, error) {
	check := sink.NewCheckSink(dir)
	cfg := g.cfg
	cfg.Root = dir
	cfg.Sink = check
	result, err := Generate(ctx, &cfg)
	if err != nil {
		return nil, nil, err
	}
	return result, check.Stale(), nil
}
