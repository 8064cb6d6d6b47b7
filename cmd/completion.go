package cmd

import (
	"flag"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/coinfolio/docs"
	"github.com/etnz/coinfolio/oracle"
)

// symbolFlags are the flags taking a symbol, completed with the known symbols.
var symbolFlags = map[string]bool{"from": true, "to": true, "symbol": true}

// Completion describes cfl for shell completion: every subcommand with its flags.
//
// Install it with COMP_INSTALL=1 cfl.
func Completion() *complete.Command {
	symbols := predict.Set(oracle.NewSymbolTable(nil).Symbols())

	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: make(map[string]complete.Predictor),
	}
	flag.CommandLine.VisitAll(func(f *flag.Flag) {
		root.Flags[f.Name] = predict.Something
	})
	root.Flags["config"] = predict.Files("*.toml")
	root.Flags["v"] = predict.Nothing

	for _, cmds := range Commands() {
		for _, c := range cmds {
			sub := &complete.Command{Flags: make(map[string]complete.Predictor), Args: predict.Nothing}
			fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
			c.SetFlags(fs)
			fs.VisitAll(func(f *flag.Flag) {
				switch {
				case symbolFlags[f.Name]:
					sub.Flags[f.Name] = symbols
				case f.Name == "o":
					sub.Flags[f.Name] = predict.Files("*")
				case f.Name == "format":
					sub.Flags[f.Name] = predict.Set{"csv", "jsonl"}
				default:
					sub.Flags[f.Name] = predict.Something
				}
			})
			switch c.Name() {
			case "import":
				sub.Args = predict.Files("*")
			case "topic":
				sub.Args = predict.Set(append(docs.Names(), docs.Index, docs.All))
			}
			root.Sub[c.Name()] = sub
		}
	}
	return root
}
