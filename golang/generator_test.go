package golang

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/broady/stepgen/ir"
	"github.com/broady/stepgen/plan"
	"github.com/broady/stepgen/sink"
)

func TestGenerator_Name(t *testing.T) {
	if got := (&Generator{}).Name(); got != "go" {
		t.Errorf("Name() = %q, want %q", got, "go")
	}
}

func TestGenerator_Generate(t *testing.T) {
	root := t.TempDir()
	server := serverTarget()
	server.Package.Dir = filepath.Join(root, "server")
	pair := pairTarget()

	files := []*plan.File{
		mustPlan(t, server, plan.Options{}),
		mustPlan(t, pair, plan.Options{}),
	}
	mem := sink.NewMemorySink()
	result, err := (&Generator{}).Generate(context.Background(), files, GenerateOptions{
		Sink:   mem,
		Config: GeneratorConfig{Root: root},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := []string{"pairbuilder_gen.go", "server/serverbuilder_gen.go"}
	got := mem.Paths()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("paths = %v, want %v", got, want)
	}
	if len(result.Files) != 2 || result.Files[0].Target != "NewServer" {
		t.Errorf("Files = %+v", result.Files)
	}
	if result.Files[0].Size != int64(len(mem.Get(result.Files[0].Path))) {
		t.Errorf("Size does not match written content")
	}
	if result.BuildersGenerated != len(files[0].Classes)+len(files[1].Classes) {
		t.Errorf("BuildersGenerated = %d", result.BuildersGenerated)
	}
}

func TestGenerator_Errors(t *testing.T) {
	ctx := context.Background()
	f := mustPlan(t, pairTarget(), plan.Options{})

	t.Run("no sink", func(t *testing.T) {
		if _, err := (&Generator{}).Generate(ctx, []*plan.File{f}, GenerateOptions{}); err == nil {
			t.Error("expected error without sink")
		}
	})

	t.Run("same output path", func(t *testing.T) {
		_, err := (&Generator{}).Generate(ctx, []*plan.File{f, f}, GenerateOptions{Sink: sink.NewMemorySink()})
		if !ir.IsCode(err, ir.CodeNamingConflict) {
			t.Errorf("err = %v, want naming conflict", err)
		}
	})

	t.Run("package outside root", func(t *testing.T) {
		g := *f
		g.Package.Dir = t.TempDir()
		_, err := (&Generator{}).Generate(ctx, []*plan.File{&g}, GenerateOptions{
			Sink:   sink.NewMemorySink(),
			Config: GeneratorConfig{Root: t.TempDir()},
		})
		if err == nil {
			t.Error("expected error for package outside root")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := (&Generator{}).Generate(cctx, []*plan.File{f}, GenerateOptions{Sink: sink.NewMemorySink()})
		if err == nil {
			t.Error("expected context error")
		}
	})
}

func TestOutputPath_Suffix(t *testing.T) {
	f := &plan.File{Builder: "ServerBuilder"}
	got, err := OutputPath(f, GeneratorConfig{FileSuffix: "_builder.go"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "serverbuilder_builder.go" {
		t.Errorf("OutputPath() = %q", got)
	}
}
