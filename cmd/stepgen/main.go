package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/broady/stepgen/cmd/stepgen/internal/check"
	"github.com/broady/stepgen/cmd/stepgen/internal/gen"
	"github.com/broady/stepgen/cmd/stepgen/internal/options"
	"github.com/broady/stepgen/cmd/stepgen/internal/plancmd"
)

type CLI struct {
	options.Globals

	Version VersionCmd  `cmd:"" help:"Print version information."`
	Gen     gen.Cmd     `cmd:"" help:"Generate step builders next to their constructors."`
	Check   check.Cmd   `cmd:"" help:"Verify generated builders are up to date without writing files."`
	Plan    plancmd.Cmd `cmd:"" help:"Print builder plans without writing files."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("stepgen"),
		kong.Description("Generate compile-time checked step builders for Go constructors."),
		kong.UsageOnError(),
		kong.Bind(&cli.Globals),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}
