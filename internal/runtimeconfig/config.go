package runtimeconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API       APIConfig       `yaml:"api"`
	Safety    SafetyConfig    `yaml:"safety"`
	History   HistoryConfig   `yaml:"history"`
	Display   DisplayConfig   `yaml:"display"`
	Execution ExecutionConfig `yaml:"execution"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type APIConfig struct {
	URL             string   `yaml:"url"`
	Timeout         int      `yaml:"timeout"`
	Model           string   `yaml:"model"`
	Temperature     float64  `yaml:"temperature"`
	MaxTokens       int      `yaml:"max_tokens"`
	TopP            *float64 `yaml:"top_p,omitempty"`
	PresencePenalty *float64 `yaml:"presence_penalty,omitempty"`
}

type SafetyConfig struct {
	MaxCommandWords int      `yaml:"max_command_words"`
	DenyPatterns    []string `yaml:"deny_patterns"`
	DenyFile        string   `yaml:"deny_file"`
}

type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Backend    string `yaml:"backend"`
	File       string `yaml:"file"`
	DB         string `yaml:"db"`
	MaxEntries int    `yaml:"max_entries"`
}

type DisplayConfig struct {
	CopyToClipboard bool `yaml:"copy_to_clipboard"`
	Color           bool `yaml:"color"`
}

type ExecutionConfig struct {
	PTY   bool   `yaml:"pty"`
	Shell string `yaml:"shell"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

func Default() Config {
	return Config{
		API: APIConfig{
			URL:         "https://api.perplexity.ai/chat/completions",
			Timeout:     30,
			Model:       "sonar",
			Temperature: 0.1,
			MaxTokens:   100,
		},
		Safety: SafetyConfig{
			MaxCommandWords: 50,
			DenyPatterns:    []string{},
			DenyFile:        "~/.config/nlbash/deny-patterns",
		},
		History: HistoryConfig{
			Enabled:    true,
			Backend:    "file",
			File:       "~/.bash_history",
			DB:         "~/.config/nlbash/history.db",
			MaxEntries: 1000,
		},
		Display: DisplayConfig{
			CopyToClipboard: true,
			Color:           true,
		},
		Execution: ExecutionConfig{
			PTY:   true,
			Shell: "sh",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   "~/.config/nlbash/logs/nlbash.log",
		},
	}
}

// FileConfig is the merged view of the config file. Values keeps the raw tree so
// dotted keys can be read and updated; Config is its typed decoding.
// UsingDefaults is set when the file exists but could not be used; saving such a
// FileConfig would replace the user's file with defaults.
type FileConfig struct {
	Path          string
	Values        map[string]any
	Config        Config
	Warning       string
	UsingDefaults bool
}

func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory failed: %w", err)
	}
	return filepath.Join(homeDir, ".config", "nlbash"), nil
}

func DefaultConfigPath() (string, error) {
	configDir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// Load reads the YAML config at path (default path when empty). A missing file is
// created with defaults. A file that cannot be parsed yields defaults and a Warning.
func Load(path string) (FileConfig, error) {
	configPath := strings.TrimSpace(path)
	if configPath == "" {
		resolvedPath, err := DefaultConfigPath()
		if err != nil {
			return FileConfig{}, err
		}
		configPath = resolvedPath
	}

	defaultValues, err := toValues(Default())
	if err != nil {
		return FileConfig{}, err
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return FileConfig{}, fmt.Errorf("read config failed: %w", err)
		}
		fileConfig := FileConfig{Path: configPath, Values: defaultValues, Config: Default()}
		if saveErr := Save(fileConfig); saveErr != nil {
			fileConfig.Warning = fmt.Sprintf("could not create default config: %v", saveErr)
		}
		return fileConfig, nil
	}

	userValues := map[string]any{}
	if unmarshalErr := yaml.Unmarshal(raw, &userValues); unmarshalErr != nil {
		return fallback(configPath, defaultValues, fmt.Sprintf("could not parse %s, using defaults: %v", configPath, unmarshalErr)), nil
	}

	merged := mergeValues(defaultValues, userValues)
	config, decodeErr := fromValues(merged)
	if decodeErr != nil {
		return fallback(configPath, defaultValues, fmt.Sprintf("invalid values in %s, using defaults: %v", configPath, decodeErr)), nil
	}
	return FileConfig{Path: configPath, Values: merged, Config: config}, nil
}

func fallback(path string, defaultValues map[string]any, warning string) FileConfig {
	return FileConfig{Path: path, Values: defaultValues, Config: Default(), Warning: warning, UsingDefaults: true}
}

func Save(config FileConfig) error {
	if strings.TrimSpace(config.Path) == "" {
		return fmt.Errorf("config path is required")
	}
	if err := os.MkdirAll(filepath.Dir(config.Path), 0o700); err != nil {
		return fmt.Errorf("create config directory failed: %w", err)
	}
	values := config.Values
	if values == nil {
		defaultValues, err := toValues(Default())
		if err != nil {
			return err
		}
		values = defaultValues
	}
	content, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode config failed: %w", err)
	}
	if err := os.WriteFile(config.Path, content, 0o600); err != nil {
		return fmt.Errorf("write config failed: %w", err)
	}
	return nil
}

// Get returns the value at a dotted key such as "api.url".
func (config FileConfig) Get(key string) (any, bool) {
	var current any = config.Values
	for _, part := range strings.Split(strings.TrimSpace(key), ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set updates a dotted key. rawValue is parsed as a YAML scalar, so "20" becomes a
// number and "false" a boolean. The update is rejected when the result no longer
// decodes into Config.
func (config *FileConfig) Set(key string, rawValue string) error {
	parts := strings.Split(strings.TrimSpace(key), ".")
	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("invalid config key %q", key)
		}
	}

	var value any
	if err := yaml.Unmarshal([]byte(rawValue), &value); err != nil {
		return fmt.Errorf("parse value for %s failed: %w", key, err)
	}

	updated := mergeValues(config.Values, map[string]any{})
	current := updated
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value

	decoded, err := fromValues(updated)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	config.Values = updated
	config.Config = decoded
	return nil
}

// mergeValues returns a copy of base with override merged in recursively.
func mergeValues(base map[string]any, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for key, value := range base {
		if nested, ok := value.(map[string]any); ok {
			result[key] = mergeValues(nested, map[string]any{})
			continue
		}
		result[key] = value
	}
	for key, value := range override {
		baseNested, baseIsMap := result[key].(map[string]any)
		overrideNested, overrideIsMap := value.(map[string]any)
		if baseIsMap && overrideIsMap {
			result[key] = mergeValues(baseNested, overrideNested)
			continue
		}
		result[key] = value
	}
	return result
}

func toValues(config Config) (map[string]any, error) {
	raw, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("encode config failed: %w", err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode config failed: %w", err)
	}
	return values, nil
}

func fromValues(values map[string]any) (Config, error) {
	raw, err := yaml.Marshal(values)
	if err != nil {
		return Config{}, err
	}
	config := Default()
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// ExpandPath resolves a leading "~" against the user's home directory.
func ExpandPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return trimmed
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return trimmed
	}
	return filepath.Join(homeDir, strings.TrimPrefix(trimmed, "~"))
}
