package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BegaDeveloper/nlbash/internal/ai"
	"github.com/BegaDeveloper/nlbash/internal/display"
	"github.com/BegaDeveloper/nlbash/internal/executor"
	"github.com/BegaDeveloper/nlbash/internal/history"
	"github.com/BegaDeveloper/nlbash/internal/logging"
	"github.com/BegaDeveloper/nlbash/internal/runtimeconfig"
	"github.com/BegaDeveloper/nlbash/internal/security"
)

type app struct {
	in             io.Reader
	out            io.Writer
	errOut         io.Writer
	interactive    bool
	outIsTerminal  bool
	transport      ai.Transport
	execute        func(ctx context.Context, command string, options executor.Options) (int, error)
	loadDotEnvFile bool
}

type environment struct {
	fileConfig runtimeconfig.FileConfig
	config     runtimeconfig.Config
	logger     *slog.Logger
	renderer   *display.Renderer
}

// loadEnvironment resolves configuration once per process: .env files, the YAML
// config, NLBASH_* overrides and logging.
func (application *app) loadEnvironment(configPath string) (environment, error) {
	if application.loadDotEnvFile {
		if _, dotEnvError := runtimeconfig.LoadDotEnv(runtimeconfig.DefaultDotEnvPaths()...); dotEnvError != nil {
			fmt.Fprintf(application.errOut, "Warning: could not load .env: %v\n", dotEnvError)
		}
	}

	fileConfig, loadError := runtimeconfig.Load(configPath)
	if loadError != nil {
		return environment{}, loadError
	}
	config := fileConfig.Config.WithEnvOverrides()
	renderer := display.NewRenderer(application.out, application.errOut, config.Display.Color && application.outIsTerminal)
	if fileConfig.Warning != "" {
		renderer.Warning(fileConfig.Warning)
	}

	logger, logError := logging.Init(config.Logging)
	if logError != nil {
		renderer.Warning(fmt.Sprintf("logging disabled: %v", logError))
	}
	return environment{fileConfig: fileConfig, config: config, logger: logger, renderer: renderer}, nil
}

func (application *app) runTranslate(ctx context.Context, args []string) int {
	flags := flag.NewFlagSet("nlbash", flag.ContinueOnError)
	flags.SetOutput(application.errOut)
	noExecute := flags.Bool("no-execute", false, "don't execute the command, just show it")
	autoConfirm := flags.Bool("yes", false, "execute without asking for confirmation")
	flags.BoolVar(autoConfirm, "y", false, "shorthand for --yes")
	configPath := flags.String("config", "", "path to config.yaml")
	queryWords, parseError := parseInterspersed(flags, args)
	if parseError != nil {
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

	query := strings.TrimSpace(strings.Join(queryWords, " "))
	if query == "" && application.interactive {
		query = application.promptQuery()
	}

	settings, settingsError := translatorSettings(env.config)
	if settingsError != nil {
		env.logger.Warn("deny-list file ignored", slog.String("error", settingsError.Error()))
		env.renderer.Warning(settingsError.Error())
	}
	translator := ai.NewTranslator(settings, os.Getenv(ai.APIKeyEnv), application.transport)

	startedAt := time.Now()
	command, translateError := translator.Translate(ctx, query)
	if translateError != nil {
		application.logTranslateFailure(env.logger, translateError, time.Since(startedAt))
		env.renderer.Error(translateError)
		return exitFailure
	}
	env.logger.Info("command translated",
		slog.String("model", settings.Model),
		slog.Duration("duration", time.Since(startedAt)))

	env.renderer.Command(command)
	application.recordHistory(env, query, command)
	application.copyToClipboard(env, command)

	if *noExecute {
		return exitSuccess
	}
	return application.confirmAndExecute(ctx, env, command, *autoConfirm)
}

func (application *app) promptQuery() string {
	fmt.Fprint(application.out, "\nEnter your command in natural language: ")
	line, _ := bufio.NewReader(application.in).ReadString('\n')
	return strings.TrimSpace(line)
}

func translatorSettings(config runtimeconfig.Config) (ai.Settings, error) {
	temperature := config.API.Temperature
	settings := ai.Settings{
		URL:             config.API.URL,
		Timeout:         time.Duration(config.API.Timeout) * time.Second,
		Model:           config.API.Model,
		Temperature:     &temperature,
		MaxTokens:       config.API.MaxTokens,
		TopP:            config.API.TopP,
		PresencePenalty: config.API.PresencePenalty,
		MaxWords:        config.Safety.MaxCommandWords,
	}

	extraPatterns := append([]string{}, config.Safety.DenyPatterns...)
	filePatterns, loadError := security.LoadDenyPatterns(runtimeconfig.ExpandPath(config.Safety.DenyFile))
	extraPatterns = append(extraPatterns, filePatterns...)
	settings.DenyList = security.NewDenyList(extraPatterns...)
	return settings, loadError
}

func (application *app) logTranslateFailure(logger *slog.Logger, translateError error, duration time.Duration) {
	attributes := []any{
		slog.String("kind", ai.KindOf(translateError).String()),
		slog.String("error", translateError.Error()),
		slog.Duration("duration", duration),
	}
	var translationError *ai.TranslationError
	if errors.As(translateError, &translationError) && translationError.StatusCode != 0 {
		attributes = append(attributes, slog.Int("status", translationError.StatusCode))
	}
	logger.Warn("translation failed", attributes...)
	if rawExcerpt, ok := ai.DebugRawResponseFromError(translateError); ok {
		logger.Debug("raw completion response", slog.String("body", rawExcerpt))
	}
}

// recordHistory is best-effort: failures are logged and never change the outcome.
func (application *app) recordHistory(env environment, query string, command string) {
	if !env.config.History.Enabled {
		return
	}
	store, openError := history.Open(env.config.History)
	if openError != nil {
		env.logger.Warn("history unavailable", slog.String("error", openError.Error()))
		return
	}
	defer store.Close()
	if appendError := store.Append(history.Entry{Timestamp: time.Now(), Query: query, Command: command}); appendError != nil {
		env.logger.Warn("history append failed", slog.String("error", appendError.Error()))
	}
}

func (application *app) copyToClipboard(env environment, command string) {
	if !env.config.Display.CopyToClipboard || !application.outIsTerminal {
		return
	}
	if copyError := display.CopyToClipboard(application.out, command); copyError != nil {
		env.logger.Warn("clipboard copy failed", slog.String("error", copyError.Error()))
		return
	}
	env.renderer.Note("Command copied to clipboard")
}

func (application *app) confirmAndExecute(ctx context.Context, env environment, command string, autoConfirm bool) int {
	assessment, _ := security.AssessCommand(command)
	env.renderer.Risk(assessment)

	confirmed, confirmError := executor.ConfirmExecution(application.in, application.out, command, autoConfirm, application.interactive)
	if confirmError == nil && confirmed && autoConfirm && assessment.RequiresRiskConfirmation {
		confirmed, confirmError = executor.ConfirmRiskyExecution(application.in, application.out, command, assessment.RiskReason, application.interactive)
	}
	if confirmError != nil {
		env.renderer.Error(confirmError)
		return exitFailure
	}
	if !confirmed {
		fmt.Fprintln(application.out, "Command not executed.")
		return exitSuccess
	}

	fmt.Fprintln(application.out, "\nExecuting command...")
	exitCode, runError := application.execute(ctx, command, executor.Options{
		Shell: env.config.Execution.Shell,
		PTY:   env.config.Execution.PTY,
	})
	env.logger.Info("command executed",
		slog.Int("exit_code", exitCode),
		slog.String("risk", assessment.RiskLevel))
	if runError != nil && exitCode == 0 {
		env.renderer.Error(runError)
		return exitFailure
	}
	return exitCode
}
