package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/BegaDeveloper/nlbash/internal/ai"
	"github.com/BegaDeveloper/nlbash/internal/history"
	"github.com/BegaDeveloper/nlbash/internal/runtimeconfig"
)

type doctorCheck struct {
	name    string
	ok      bool
	details string
}

func (application *app) runDoctor(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("nlbash doctor", flag.ContinueOnError)
	flags.SetOutput(application.errOut)
	configPath := flags.String("config", "", "path to config.yaml")
	if parseError := flags.Parse(args); parseError != nil {
		return parseError
	}

	env, err := application.loadEnvironment(*configPath)
	if err != nil {
		return err
	}

	checks := []doctorCheck{
		checkAPIKey(),
		checkConfigFile(env.fileConfig),
		checkAPIReachable(ctx, env.config.API),
		checkHistoryStore(env.config.History),
	}

	hasFailure := false
	for _, check := range checks {
		status := "PASS"
		if !check.ok {
			status = "FAIL"
			hasFailure = true
		}
		fmt.Fprintf(application.out, "[%s] %s: %s\n", status, check.name, check.details)
	}
	if hasFailure {
		fmt.Fprintln(application.errOut, "")
		fmt.Fprintln(application.errOut, "nlbash doctor found configuration issues.")
		fmt.Fprintln(application.errOut, "Fix the failing checks and rerun: nlbash doctor")
		return fmt.Errorf("one or more doctor checks failed")
	}
	fmt.Fprintln(application.out, "")
	fmt.Fprintln(application.out, "nlbash doctor passed: credential, config, API and history look good.")
	return nil
}

func checkAPIKey() doctorCheck {
	if strings.TrimSpace(os.Getenv(ai.APIKeyEnv)) == "" {
		return doctorCheck{
			name:    "api credential",
			ok:      false,
			details: fmt.Sprintf("%s is not set (export it or add it to ~/.config/nlbash/.env)", ai.APIKeyEnv),
		}
	}
	return doctorCheck{name: "api credential", ok: true, details: ai.APIKeyEnv + " is set"}
}

func checkConfigFile(fileConfig runtimeconfig.FileConfig) doctorCheck {
	if fileConfig.Warning != "" {
		return doctorCheck{name: "config file", ok: false, details: fileConfig.Warning}
	}
	return doctorCheck{name: "config file", ok: true, details: fmt.Sprintf("%s loaded", fileConfig.Path)}
}

// checkAPIReachable only proves the endpoint answers HTTP; any status counts, so no
// completion is requested and no credit is spent.
func checkAPIReachable(ctx context.Context, apiConfig runtimeconfig.APIConfig) doctorCheck {
	apiURL := strings.TrimSpace(apiConfig.URL)
	if apiURL == "" {
		apiURL = ai.DefaultURL
	}
	client := resty.New().SetTimeout(3 * time.Second)
	response, err := client.R().SetContext(ctx).Get(apiURL)
	if err != nil {
		return doctorCheck{
			name:    "api endpoint",
			ok:      false,
			details: fmt.Sprintf("cannot reach %s (%v)", apiURL, err),
		}
	}
	return doctorCheck{
		name:    "api endpoint",
		ok:      true,
		details: fmt.Sprintf("%s answered HTTP %d", apiURL, response.StatusCode()),
	}
}

func checkHistoryStore(historyConfig runtimeconfig.HistoryConfig) doctorCheck {
	if !historyConfig.Enabled {
		return doctorCheck{name: "history", ok: true, details: "history is disabled"}
	}
	store, err := history.Open(historyConfig)
	if err != nil {
		return doctorCheck{name: "history", ok: false, details: err.Error()}
	}
	defer store.Close()
	if _, err := store.Recent(1); err != nil {
		return doctorCheck{name: "history", ok: false, details: err.Error()}
	}
	if err := store.CheckWritable(); err != nil {
		return doctorCheck{name: "history", ok: false, details: err.Error()}
	}
	return doctorCheck{name: "history", ok: true, details: fmt.Sprintf("%s backend is readable and writable", historyConfig.Backend)}
}
