// Package plancmd prints builder plans without writing files.
package plancmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/broady/stepgen"
	"github.com/broady/stepgen/cmd/stepgen/internal/options"
	"github.com/broady/stepgen/plan"
	"github.com/broady/stepgen/sink"
)

type Cmd struct {
	options.Targets
	Format string `help:"Output format." enum:"json,yaml" default:"yaml" short:"f"`
}

func (c *Cmd) Run(ctx context.Context, g *options.Globals) error {
	cfg, err := c.Config(g)
	if err != nil {
		return err
	}
	cfg.Sink = sink.NewMemorySink()

	result, err := stepgen.Generate(ctx, cfg)
	if err != nil {
		return err
	}
	if err := write(os.Stdout, c.Format, result.Plans); err != nil {
		return err
	}
	return result.Err()
}

func write(w io.Writer, format string, plans []*plan.File) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = json.MarshalIndent(plans, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(plans)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
