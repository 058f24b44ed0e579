package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/posener/complete"
	"github.com/willabides/kongplete"

	"github.com/dalazx/parquet-dump/cmd"
)

var cli struct {
	Dump   cmd.DumpCmd   `cmd:"" help:"Dump rows of a Parquet file as CSV or JSON."`
	Meta   cmd.MetaCmd   `cmd:"" help:"Print Parquet file metadata."`
	Browse cmd.BrowseCmd `cmd:"" help:"Browse Parquet file with TUI."`
	Serve  cmd.ServeCmd  `cmd:"" help:"Start HTTP API server for Parquet file."`
}

func main() {
	parser := kong.Must(
		&cli,
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Description("Read-only Parquet decoder and dump utility."),
	)
	kongplete.Complete(parser, kongplete.WithPredictor("file", complete.PredictFiles("*")))

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run())
}
