package golang

import (
	"context"

	"github.com/broady/stepgen/ir"
	"github.com/broady/stepgen/plan"
	"github.com/broady/stepgen/sink"
)

// Backend turns builder plans into source files.
type Backend interface {
	// Name returns the backend's identifier (e.g., "go").
	Name() string

	// Generate renders and writes one file per plan.
	Generate(ctx context.Context, files []*plan.File, opts GenerateOptions) (*GenerateResult, error)
}

// GenerateOptions configures generation behavior.
type GenerateOptions struct {
	// Sink receives generated output files.
	Sink sink.OutputSink

	Config GeneratorConfig
}

// GeneratorConfig controls file placement.
type GeneratorConfig struct {
	// Root is the directory sink paths are relative to. A plan's file is
	// written into its package directory, relative to Root. Plans without a
	// package directory are written at the sink root.
	Root string

	// FileSuffix replaces the default "_gen.go" suffix.
	FileSuffix string

	// Raw skips gofmt and import fixing, for debugging.
	Raw bool
}

// GenerateResult contains generation output metadata.
type GenerateResult struct {
	// Files lists all files that were written.
	Files []OutputFile

	// BuildersGenerated is the number of builder types written.
	BuildersGenerated int

	Warnings []ir.Warning
}

// OutputFile describes a generated file.
type OutputFile struct {
	// Path is the sink-relative path of the file.
	Path string

	// Target is the constructor the file builds.
	Target string

	Size int64
}
