package stepgen

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/broady/stepgen/constraint"
	"github.com/broady/stepgen/ir"
	"github.com/broady/stepgen/lattice"
	"github.com/broady/stepgen/plan"
	"github.com/broady/stepgen/provider"
	"github.com/broady/stepgen/sink"
)

var validate = validator.New()

// Config holds the configuration for a generation run. Directive options on
// a target override the run-wide Ceiling, Version and Strategy.
type Config struct {
	// Packages are go/packages patterns naming the packages to scan.
	// e.g. []string{"./..."}
	Packages []string `yaml:"packages" validate:"required_without=Targets,dive,required"`

	// Dir is the directory patterns are resolved in. Default: "."
	Dir string `yaml:"dir"`

	// Root is the directory generated paths are relative to. Output files
	// are written next to their target. Default: "."
	Root string `yaml:"root"`

	// Only restricts generation to the named target functions.
	Only []string `yaml:"only" validate:"dive,required"`

	// Ceiling is the largest number of required parameters generated as a
	// lattice; larger targets fall back to a flat builder.
	// Default: 10
	Ceiling int `yaml:"ceiling" validate:"omitempty,min=1,max=62"`

	// Version is the code generation version.
	// Default: 2
	Version int `yaml:"version" validate:"omitempty,min=1,max=2"`

	// Strategy is "lattice" (default) or "flat".
	Strategy ir.Strategy `yaml:"strategy" validate:"omitempty,oneof=lattice flat"`

	// FileSuffix is appended to the lowercased builder name.
	// Default: "_gen.go"
	FileSuffix string `yaml:"fileSuffix" validate:"omitempty,endswith=.go"`

	// Targets bypass package loading when set.
	Targets []*ir.Target `yaml:"-" validate:"-"`

	// Registry resolves constraint kinds. Default: constraint.DefaultRegistry()
	Registry *constraint.Registry `yaml:"-" validate:"-"`

	// Sink receives generated files. Default: a filesystem sink at Root.
	Sink sink.OutputSink `yaml:"-" validate:"-"`

	Logger *slog.Logger `yaml:"-" validate:"-"`
}

// LoadConfig reads a YAML configuration file. Unknown keys are errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyConfigDefaults applies default values to Config.
func applyConfigDefaults(cfg *Config) *Config {
	// Make a copy to avoid mutating the input
	result := *cfg

	if result.Dir == "" {
		result.Dir = "."
	}
	if result.Root == "" {
		result.Root = "."
	}
	if result.Ceiling == 0 {
		result.Ceiling = lattice.DefaultCeiling
	}
	if result.Version == 0 {
		result.Version = plan.DefaultVersion
	}
	if result.Strategy == "" {
		result.Strategy = ir.StrategyLattice
	}
	if result.FileSuffix == "" {
		result.FileSuffix = provider.DefaultFileSuffix
	}
	if result.Registry == nil {
		result.Registry = constraint.DefaultRegistry()
	}
	if result.Logger == nil {
		result.Logger = slog.Default()
	}
	if result.Sink == nil {
		result.Sink = sink.NewFilesystemSink(result.Root)
	}
	return &result
}
