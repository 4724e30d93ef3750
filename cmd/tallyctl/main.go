package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"tally/internal/ctl"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	ctl.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
