package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/BegaDeveloper/nlbash/internal/ai"
	"github.com/BegaDeveloper/nlbash/internal/executor"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	application := &app{
		in:             os.Stdin,
		out:            os.Stdout,
		errOut:         os.Stderr,
		interactive:    executor.IsInteractive(os.Stdin),
		outIsTerminal:  executor.IsInteractive(os.Stdout),
		transport:      ai.NewRestyTransport(resty.New()),
		execute:        executor.Run,
		loadDotEnvFile: true,
	}
	code := application.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func (application *app) run(ctx context.Context, args []string) int {
	if len(args) > 0 {
		switch strings.TrimSpace(args[0]) {
		case "history":
			return application.runHistory(args[1:])
		case "config":
			return application.runConfig(args[1:])
		case "doctor":
			if doctorError := application.runDoctor(ctx, args[1:]); doctorError != nil {
				fmt.Fprintf(application.errOut, "doctor failed: %v\n", doctorError)
				return exitFailure
			}
			return exitSuccess
		case "help", "-h", "--help":
			application.usage()
			return exitSuccess
		}
	}
	return application.runTranslate(ctx, args)
}

func (application *app) usage() {
	fmt.Fprintln(application.out, strings.TrimSpace(`
usage: nlbash [--no-execute] [--yes] [--config path] [query...]
       nlbash history [-n count]
       nlbash config get <key> | set <key> <value> | path
       nlbash doctor

Translates a natural-language request into a bash command using the completion API.
Flags may appear anywhere on the line. A query that starts with history, config,
doctor or help is read as a subcommand; put -- before it to translate it instead:
  nlbash -- history of git commits
The API key is read from the `+ai.APIKeyEnv+` environment variable.`))
}

// parseInterspersed accepts flags before, between and after positional arguments,
// returning the positionals in order. Everything after "--" is positional.
func parseInterspersed(flags *flag.FlagSet, args []string) ([]string, error) {
	positionals := []string{}
	for {
		if parseError := flags.Parse(args); parseError != nil {
			return nil, parseError
		}
		rest := flags.Args()
		if len(rest) == 0 {
			return positionals, nil
		}
		consumed := len(args) - len(rest)
		if consumed > 0 && args[consumed-1] == "--" {
			return append(positionals, rest...), nil
		}
		positionals = append(positionals, rest[0])
		args = rest[1:]
	}
}
