package ai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

var statusMessages = map[int]string{
	http.StatusBadRequest:          "API rejected the request as malformed (status 400)",
	http.StatusNotFound:            "API endpoint not found, check api.url (status 404)",
	http.StatusInternalServerError: "API server error (status 500)",
	http.StatusServiceUnavailable:  "API service unavailable, try again later (status 503)",
}

// Extract turns a raw completion response into a vetted command. Each step
// short-circuits: status, content type, structure, marker, emptiness, length,
// deny-list.
func Extract(raw RawResponse, policy ExtractPolicy) (string, error) {
	if statusError := classifyStatus(raw.StatusCode); statusError != nil {
		return "", statusError
	}

	if contentType := strings.TrimSpace(raw.ContentType); contentType != "" && !strings.Contains(strings.ToLower(contentType), "json") {
		return "", newResponseError(fmt.Sprintf("unexpected response format %q", contentType), raw.Body)
	}

	content, contentError := messageContent(raw.Body)
	if contentError != nil {
		return "", contentError
	}

	return vetCommand(extractMarked(content), policy)
}

func classifyStatus(statusCode int) *TranslationError {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &TranslationError{Kind: KindAuth, Message: "invalid API key or unauthorized access", StatusCode: statusCode}
	case statusCode == http.StatusTooManyRequests:
		return &TranslationError{Kind: KindRateLimit, Message: "API rate limit exceeded", StatusCode: statusCode}
	}

	message, ok := statusMessages[statusCode]
	if !ok {
		message = fmt.Sprintf("API request failed with status %d", statusCode)
	}
	return &TranslationError{Kind: KindTranslation, Message: message, StatusCode: statusCode}
}

func messageContent(body []byte) (string, error) {
	var payload any
	if decodeError := json.Unmarshal(body, &payload); decodeError != nil {
		translationError := newResponseError("invalid JSON response from API", body)
		translationError.Cause = decodeError
		return "", translationError
	}

	root, ok := payload.(map[string]any)
	if !ok {
		return "", newResponseError("invalid API response: expected JSON object", body)
	}
	choices, ok := root["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", newResponseError("invalid API response: missing or invalid 'choices' field", body)
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", newResponseError("invalid API response: 'choices[0]' is not an object", body)
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return "", newResponseError("invalid API response: missing or invalid 'message' field", body)
	}
	content, ok := message["content"].(string)
	if !ok {
		return "", newResponseError("invalid API response: missing or invalid 'content' field", body)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", newResponseError("invalid API response: empty 'content' field", body)
	}
	return content, nil
}

func extractMarked(content string) string {
	if _, command, found := strings.Cut(content, CommandMarker); found {
		return strings.TrimSpace(command)
	}
	return strings.TrimSpace(content)
}

func vetCommand(command string, policy ExtractPolicy) (string, error) {
	if command == "" {
		return "", newError(KindTranslation, "empty command received from API")
	}

	maxWords := policy.MaxWords
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	if len(strings.Fields(command)) > maxWords {
		return "", newError(KindTranslation, fmt.Sprintf("generated command is suspiciously long (more than %d words)", maxWords))
	}

	if denyError := policy.DenyList.Check(command); denyError != nil {
		return "", &TranslationError{
			Kind:    KindTranslation,
			Message: "generated command contains potentially dangerous operations",
			Cause:   denyError,
		}
	}
	return command, nil
}
