// Command cfl tracks a crypto portfolio: a ledger of buys, sells, swaps and transfers, valued at live prices.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/coinfolio/cmd"
)

func main() {
	// COMP_LINE is set when the shell asks for completions, Complete exits then.
	cmd.Completion().Complete("cfl")

	commander := subcommands.NewCommander(flag.CommandLine, "cfl")
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()

	if args := flag.Args(); len(args) > 0 && !cmd.IsCommand(args[0]) {
		switch args[0] {
		case "help", "flags", "commands":
		default:
			if found, code := cmd.RunExtension(args[0], args[1:]); found {
				os.Exit(code)
			}
		}
	}

	os.Exit(int(commander.Execute(context.Background())))
}
