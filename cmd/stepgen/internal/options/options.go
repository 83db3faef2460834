// Package options holds the flags shared by stepgen commands.
package options

import (
	"log/slog"
	"os"

	"github.com/broady/stepgen"
	"github.com/broady/stepgen/ir"
)

// Globals are flags accepted before any command.
type Globals struct {
	Config  string `help:"YAML configuration file." short:"c" type:"existingfile"`
	Verbose bool   `help:"Log debug output." short:"v"`
}

// Logger returns a text logger on stderr.
func (g *Globals) Logger() *slog.Logger {
	level := slog.LevelWarn
	if g.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Targets are the flags selecting and tuning targets. Set flags override the
// configuration file.
type Targets struct {
	Packages []string `arg:"" optional:"" help:"Package patterns to scan (default: ./...)."`
	Dir      string   `help:"Directory patterns are resolved in."`
	Only     []string `help:"Generate only these target functions." short:"o"`
	Ceiling  int      `help:"Largest required-parameter count generated as a lattice."`
	Version  int      `help:"Code generation version (1 panics, 2 returns errors)."`
	Strategy string   `help:"Default strategy: lattice or flat."`
}

// Config merges the configuration file with the flags.
func (r *Targets) Config(g *Globals) (*stepgen.Config, error) {
	cfg := &stepgen.Config{}
	if g.Config != "" {
		loaded, err := stepgen.LoadConfig(g.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if len(r.Packages) > 0 {
		cfg.Packages = r.Packages
	}
	if len(cfg.Packages) == 0 {
		cfg.Packages = []string{"./..."}
	}
	if r.Dir != "" {
		cfg.Dir = r.Dir
	}
	if len(r.Only) > 0 {
		cfg.Only = r.Only
	}
	if r.Ceiling != 0 {
		cfg.Ceiling = r.Ceiling
	}
	if r.Version != 0 {
		cfg.Version = r.Version
	}
	if r.Strategy != "" {
		cfg.Strategy = ir.Strategy(r.Strategy)
	}
	cfg.Logger = g.Logger()
	return cfg, nil
}
