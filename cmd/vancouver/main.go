package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/vancouver/cmd/vancouver/commands"
	"git.home.luguber.info/inful/vancouver/internal/foundation/errors"
	"git.home.luguber.info/inful/vancouver/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := commands.NewGlobal()
	ctx := kong.Parse(cli,
		kong.Name("vancouver"),
		kong.Description("Convert Markdown with [@citation] markers into numbered, cross-linked HTML."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
		kong.Bind(global),
	)

	err := ctx.Run(global, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
