package gen

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/broady/stepgen"
	"github.com/broady/stepgen/cmd/stepgen/internal/options"
	"github.com/broady/stepgen/sink"
)

type Cmd struct {
	options.Targets
	Out string `help:"Root directory generated files are written below." default:"."`
}

func (c *Cmd) Run(ctx context.Context, g *options.Globals) error {
	cfg, err := c.Config(g)
	if err != nil {
		return err
	}

	// Resolve output directory to absolute path
	root, err := filepath.Abs(c.Out)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	cfg.Root = root
	cfg.Sink = sink.NewFilesystemSink(root)

	result, err := stepgen.Generate(ctx, cfg)
	if err != nil {
		return err
	}
	for _, t := range result.Targets {
		fmt.Printf("✓ %s → %s (%s, %d states, %d types)\n", t.Target, t.Path, t.Strategy, t.States, t.Types)
	}
	for _, d := range result.Diagnostics {
		fmt.Printf("✗ %s\n", d)
	}
	return result.Err()
}
