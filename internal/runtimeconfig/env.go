package runtimeconfig

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvAPIURL     = "NLBASH_API_URL"
	EnvModel      = "NLBASH_MODEL"
	EnvAPITimeout = "NLBASH_API_TIMEOUT"
	EnvLogLevel   = "NLBASH_LOG_LEVEL"
	EnvHistory    = "NLBASH_HISTORY"
)

// LoadDotEnv loads KEY=VALUE files into the process environment. Missing files
// are skipped and variables that are already set are never overridden.
func LoadDotEnv(paths ...string) ([]string, error) {
	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		expanded := ExpandPath(path)
		if expanded == "" {
			continue
		}
		if info, err := os.Stat(expanded); err == nil && !info.IsDir() {
			existing = append(existing, expanded)
		}
	}
	if len(existing) == 0 {
		return nil, nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return nil, err
	}
	return existing, nil
}

func DefaultDotEnvPaths() []string {
	paths := []string{".env"}
	if configDir, err := DefaultConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, ".env"))
	}
	return paths
}

func ResolveString(key string, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(fallback)
}

func ResolveBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func ResolveInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// WithEnvOverrides applies NLBASH_* environment variables on top of the file values.
func (config Config) WithEnvOverrides() Config {
	config.API.URL = ResolveString(EnvAPIURL, config.API.URL)
	config.API.Model = ResolveString(EnvModel, config.API.Model)
	config.API.Timeout = ResolveInt(EnvAPITimeout, config.API.Timeout)
	config.Logging.Level = ResolveString(EnvLogLevel, config.Logging.Level)
	config.History.Enabled = ResolveBool(EnvHistory, config.History.Enabled)
	return config
}
