package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"golang.org/x/term"
	"google.golang.org/genai"

	"github.com/etnz/coinfolio/agent"
)

type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }
func (*assistCmd) Usage() string {
	return `cfl assist [question]

  Starts a chat about the portfolio. The optional question is asked first.
  The Gemini client reads its credentials from the environment (GOOGLE_API_KEY or GEMINI_API_KEY).
`
}

func (*assistCmd) SetFlags(*flag.FlagSet) {}

func (*assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error opening portfolio:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	model := a.cfg.Assist.Model
	assistant := agent.New(os.Stdout, os.Stdin, model, agent.NewTrader(model), agent.NewAccountant(model, a.tracker))
	if term.IsTerminal(int(os.Stdout.Fd())) {
		assistant.Render = func(md string) string {
			out, err := glamour.Render(md, "auto")
			if err != nil {
				return md
			}
			return out
		}
	}

	var prompts []string
	if f.NArg() > 0 {
		prompts = append(prompts, strings.Join(f.Args(), " "))
	}
	if err := assistant.Run(ctx, client, prompts...); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
