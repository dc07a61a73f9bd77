package ai

import (
	"fmt"
	"strings"
)

const (
	CommandMarker = "command:"

	systemInstruction = "You are a Linux command-line expert that translates natural language to bash commands."
)

// BuildRequest renders the completion request for one query. It performs no I/O.
func BuildRequest(query string, settings Settings) (CompletionRequest, error) {
	normalizedQuery := strings.TrimSpace(query)
	if normalizedQuery == "" {
		return CompletionRequest{}, newError(KindInvalidInput, "query must be a non-empty string")
	}

	settings = settings.withDefaults()
	return CompletionRequest{
		Model: settings.Model,
		Messages: []Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: buildPrompt(normalizedQuery)},
		},
		Temperature:     *settings.Temperature,
		MaxTokens:       settings.MaxTokens,
		TopP:            settings.TopP,
		PresencePenalty: settings.PresencePenalty,
	}, nil
}

func buildPrompt(query string) string {
	return fmt.Sprintf(`GENERAL INSTRUCTIONS
You are a Linux command-line expert. Translate the natural language request below into one precise bash command.

RULES:
1. Return only the bash command, no explanations and no markdown
2. Answer with exactly one line starting with '%[1]s' followed by the command
3. Keep the command safe and follow best practices
4. Use appropriate flags and options for better usability
5. For destructive operations (delete, modify), add safeguards when possible

USER REQUEST:
%[2]s

ANSWER FORMAT:
%[1]s`, CommandMarker, query)
}
