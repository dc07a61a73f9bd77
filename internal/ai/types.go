package ai

import (
	"time"

	"github.com/BegaDeveloper/nlbash/internal/security"
)

const (
	DefaultURL         = "https://api.perplexity.ai/chat/completions"
	DefaultModel       = "sonar"
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 100
	DefaultTimeout     = 30 * time.Second
	DefaultMaxWords    = 50
)

// Settings carries every value the translation core consumes. The front end
// resolves it once from configuration; zero fields fall back to the defaults above.
type Settings struct {
	URL             string
	Timeout         time.Duration
	Model           string
	Temperature     *float64
	MaxTokens       int
	TopP            *float64
	PresencePenalty *float64
	MaxWords        int
	DenyList        *security.DenyList
}

func DefaultSettings() Settings {
	return Settings{
		URL:         DefaultURL,
		Timeout:     DefaultTimeout,
		Model:       DefaultModel,
		Temperature: float64Pointer(DefaultTemperature),
		MaxTokens:   DefaultMaxTokens,
		MaxWords:    DefaultMaxWords,
		DenyList:    security.DefaultDenyList(),
	}
}

func (settings Settings) withDefaults() Settings {
	if settings.URL == "" {
		settings.URL = DefaultURL
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}
	if settings.Model == "" {
		settings.Model = DefaultModel
	}
	// Zero is a valid temperature; only an unset or negative value falls back.
	if settings.Temperature == nil || *settings.Temperature < 0 {
		settings.Temperature = float64Pointer(DefaultTemperature)
	}
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = DefaultMaxTokens
	}
	if settings.MaxWords <= 0 {
		settings.MaxWords = DefaultMaxWords
	}
	if settings.DenyList == nil {
		settings.DenyList = security.DefaultDenyList()
	}
	return settings
}

func float64Pointer(value float64) *float64 {
	return &value
}

func (settings Settings) extractPolicy() ExtractPolicy {
	return ExtractPolicy{MaxWords: settings.MaxWords, DenyList: settings.DenyList}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model           string    `json:"model"`
	Messages        []Message `json:"messages"`
	Temperature     float64   `json:"temperature"`
	MaxTokens       int       `json:"max_tokens"`
	TopP            *float64  `json:"top_p,omitempty"`
	PresencePenalty *float64  `json:"presence_penalty,omitempty"`
}

// RawResponse is the unparsed reply of the completion API.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// ExtractPolicy bounds what Extract accepts as a command.
type ExtractPolicy struct {
	MaxWords int
	DenyList *security.DenyList
}
