package stepgen

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/broady/stepgen/ir"
	"github.com/broady/stepgen/lattice"
	"github.com/broady/stepgen/plan"
	"github.com/broady/stepgen/sink"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stepgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
packages:
  - ./...
only: [NewServer]
ceiling: 6
version: 1
strategy: flat
fileSuffix: _builder.go
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, []string{"./..."}, cfg.Packages)
	require.Equal(t, []string{"NewServer"}, cfg.Only)
	require.Equal(t, 6, cfg.Ceiling)
	require.Equal(t, 1, cfg.Version)
	require.Equal(t, ir.StrategyFlat, cfg.Strategy)
	require.Equal(t, "_builder.go", cfg.FileSuffix)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "reading config")

	_, err = LoadConfig(writeConfig(t, "packages: [./...]\nceil: 4\n"))
	require.ErrorContains(t, err, "ceil")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"packages", Config{Packages: []string{"./..."}}, false},
		{"targets", Config{Targets: []*ir.Target{{}}}, false},
		{"nothing to load", Config{}, true},
		{"empty pattern", Config{Packages: []string{""}}, true},
		{"ceiling too large", Config{Packages: []string{"."}, Ceiling: 63}, true},
		{"negative ceiling", Config{Packages: []string{"."}, Ceiling: -1}, true},
		{"version 3", Config{Packages: []string{"."}, Version: 3}, true},
		{"unknown strategy", Config{Packages: []string{"."}, Strategy: "tree"}, true},
		{"suffix without .go", Config{Packages: []string{"."}, FileSuffix: "_gen"}, true},
		{"empty only", Config{Packages: []string{"."}, Only: []string{""}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestApplyConfigDefaults(t *testing.T) {
	in := &Config{Packages: []string{"."}}
	cfg := applyConfigDefaults(in)

	require.Equal(t, ".", cfg.Dir)
	require.Equal(t, ".", cfg.Root)
	require.Equal(t, lattice.DefaultCeiling, cfg.Ceiling)
	require.Equal(t, plan.DefaultVersion, cfg.Version)
	require.Equal(t, ir.StrategyLattice, cfg.Strategy)
	require.Equal(t, "_gen.go", cfg.FileSuffix)
	require.NotNil(t, cfg.Registry)
	require.NotNil(t, cfg.Logger)
	require.IsType(t, &sink.FilesystemSink{}, cfg.Sink)

	require.Empty(t, in.Root, "input is not modified")
	require.Nil(t, in.Sink)

	mem := sink.NewMemorySink()
	logger := slog.New(slog.DiscardHandler)
	kept := applyConfigDefaults(&Config{Ceiling: 3, Version: 1, Strategy: ir.StrategyFlat, Sink: mem, Logger: logger})
	require.Equal(t, 3, kept.Ceiling)
	require.Equal(t, 1, kept.Version)
	require.Equal(t, ir.StrategyFlat, kept.Strategy)
	require.Same(t, mem, kept.Sink)
	require.Same(t, logger, kept.Logger)
}
