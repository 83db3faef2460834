package check

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
	Out string `help:"Root directory generated files live below." default:"."`
}

// Run regenerates in memory and fails when a file on disk differs.
func (c *Cmd) Run(ctx context.Context, g *options.Globals) error {
	cfg, err := c.Config(g)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(c.Out)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	check := sink.NewCheckSink(root)
	cfg.Root = root
	cfg.Sink = check

	result, err := stepgen.Generate(ctx, cfg)
	if err != nil {
		return err
	}
	if err := result.Err(); err != nil {
		return err
	}

	stale := check.Stale()
	for _, path := range stale {
		fmt.Printf("✗ %s is out of date\n", path)
	}
	if len(stale) > 0 {
		return fmt.Errorf("%d generated files are out of date; run stepgen gen", len(stale))
	}
	fmt.Printf("✓ %d builders up to date\n", len(result.Targets))
	return nil
}
