package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BegaDeveloper/nlbash/internal/history"
	"github.com/BegaDeveloper/nlbash/internal/runtimeconfig"
)

func (application *app) runHistory(args []string) int {
	flags := flag.NewFlagSet("nlbash history", flag.ContinueOnError)
	flags.SetOutput(application.errOut)
	limit := flags.Int("n", 10, "number of entries to show")
	configPath := flags.String("config", "", "path to config.yaml")
	if parseError := flags.Parse(args); parseError != nil {
		if errors.Is(parseError, flag.ErrHelp) {
			return exitSuccess
		}
		return exitFailure
	}

	env, envError := application.loadEnvironment(*configPath)
	if envError != nil {
		fmt.Fprintf(application.errOut, "Error: %v\n", envError)
		return exitFailure
	}

	count := *limit
	if maxEntries := env.config.History.MaxEntries; maxEntries > 0 && count > maxEntries {
		count = maxEntries
	}

	store, openError := history.Open(env.config.History)
	if openError != nil {
		env.renderer.Error(openError)
		return exitFailure
	}
	defer store.Close()

	entries, readError := store.Recent(count)
	if readError != nil {
		env.renderer.Error(readError)
		return exitFailure
	}
	env.renderer.History(entries)
	return exitSuccess
}

func (application *app) runConfig(args []string) int {
	flags := flag.NewFlagSet("nlbash config", flag.ContinueOnError)
	flags.SetOutput(application.errOut)
	configPath := flags.String("config", "", "path to config.yaml")
	rest, parseError := parseInterspersed(flags, args)
	if parseError != nil {
		if errors.Is(parseError, flag.ErrHelp) {
			return exitSuccess
		}
		return exitFailure
	}
	if len(rest) == 0 {
		fmt.Fprintln(application.errOut, "usage: nlbash config get <key> | set <key> <value> | path")
		return exitFailure
	}

	fileConfig, loadError := runtimeconfig.Load(*configPath)
	if loadError != nil {
		fmt.Fprintf(application.errOut, "Error: %v\n", loadError)
		return exitFailure
	}
	if fileConfig.Warning != "" {
		fmt.Fprintf(application.errOut, "Warning: %s\n", fileConfig.Warning)
	}

	switch strings.TrimSpace(rest[0]) {
	case "path":
		fmt.Fprintln(application.out, fileConfig.Path)
		return exitSuccess
	case "get":
		if len(rest) != 2 {
			fmt.Fprintln(application.errOut, "usage: nlbash config get <key>")
			return exitFailure
		}
		value, ok := fileConfig.Get(rest[1])
		if !ok {
			fmt.Fprintf(application.errOut, "Error: unknown config key %q\n", rest[1])
			return exitFailure
		}
		encoded, encodeError := yaml.Marshal(value)
		if encodeError != nil {
			fmt.Fprintf(application.errOut, "Error: %v\n", encodeError)
			return exitFailure
		}
		fmt.Fprint(application.out, string(encoded))
		return exitSuccess
	case "set":
		if len(rest) != 3 {
			fmt.Fprintln(application.errOut, "usage: nlbash config set <key> <value>")
			return exitFailure
		}
		if fileConfig.UsingDefaults {
			fmt.Fprintf(application.errOut, "Error: refusing to overwrite %s; fix or remove it first\n", fileConfig.Path)
			return exitFailure
		}
		if setError := fileConfig.Set(rest[1], rest[2]); setError != nil {
			fmt.Fprintf(application.errOut, "Error: %v\n", setError)
			return exitFailure
		}
		if saveError := runtimeconfig.Save(fileConfig); saveError != nil {
			fmt.Fprintf(application.errOut, "Error: %v\n", saveError)
			return exitFailure
		}
		fmt.Fprintf(application.out, "%s updated in %s\n", rest[1], fileConfig.Path)
		return exitSuccess
	default:
		fmt.Fprintf(application.errOut, "Error: unknown config command %q\n", rest[0])
		return exitFailure
	}
}
