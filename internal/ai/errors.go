package ai

import (
	"errors"
	"fmt"
	"strings"
)

const maxDebugRawResponseLength = 2000

type Kind int

const (
	KindTranslation Kind = iota
	KindInvalidInput
	KindAuth
	KindRateLimit
	KindTimeout
	KindConnection
	KindTransport
)

func (kind Kind) String() string {
	switch kind {
	case KindInvalidInput:
		return "invalid_input"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindTransport:
		return "transport"
	default:
		return "translation"
	}
}

func (kind Kind) isTransport() bool {
	return kind == KindTimeout || kind == KindConnection || kind == KindTransport
}

// Sentinels for errors.Is. ErrTranslation matches every failure produced by this
// package; ErrTransport matches timeout, connection and generic transport faults.
var (
	ErrTranslation  = errors.New("translation failed")
	ErrInvalidInput = errors.New("invalid input")
	ErrAuth         = errors.New("authentication failed")
	ErrRateLimit    = errors.New("rate limit exceeded")
	ErrTransport    = errors.New("transport failure")
	ErrTimeout      = errors.New("request timed out")
	ErrConnection   = errors.New("connection failure")
)

type TranslationError struct {
	Kind       Kind
	Message    string
	StatusCode int
	RawExcerpt string
	Cause      error
}

func (translationError *TranslationError) Error() string {
	if translationError == nil {
		return "translation failed"
	}
	message := translationError.Message
	if message == "" {
		message = "translation failed"
	}
	if translationError.Cause != nil {
		return fmt.Sprintf("%s: %v", message, translationError.Cause)
	}
	return message
}

func (translationError *TranslationError) Unwrap() error {
	if translationError == nil {
		return nil
	}
	return translationError.Cause
}

func (translationError *TranslationError) Is(target error) bool {
	if translationError == nil {
		return false
	}
	switch target {
	case ErrTranslation:
		return true
	case ErrTransport:
		return translationError.Kind.isTransport()
	case ErrInvalidInput:
		return translationError.Kind == KindInvalidInput
	case ErrAuth:
		return translationError.Kind == KindAuth
	case ErrRateLimit:
		return translationError.Kind == KindRateLimit
	case ErrTimeout:
		return translationError.Kind == KindTimeout
	case ErrConnection:
		return translationError.Kind == KindConnection
	}
	return false
}

func newError(kind Kind, message string) *TranslationError {
	return &TranslationError{Kind: kind, Message: message}
}

func newResponseError(message string, rawBody []byte) *TranslationError {
	return &TranslationError{
		Kind:       KindTranslation,
		Message:    message,
		RawExcerpt: sanitizeDebugRawResponse(string(rawBody)),
	}
}

// KindOf reports the kind of a translation failure. Errors not produced by this
// package report KindTranslation.
func KindOf(err error) Kind {
	var translationError *TranslationError
	if errors.As(err, &translationError) {
		return translationError.Kind
	}
	return KindTranslation
}

func DebugRawResponseFromError(err error) (string, bool) {
	var translationError *TranslationError
	if !errors.As(err, &translationError) || translationError.RawExcerpt == "" {
		return "", false
	}
	return translationError.RawExcerpt, true
}

func sanitizeDebugRawResponse(raw string) string {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.ReplaceAll(sanitized, "\r", "\\r")
	sanitized = strings.ReplaceAll(sanitized, "\n", "\\n")
	sanitized = strings.ReplaceAll(sanitized, "\t", "\\t")
	sanitized = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return ' '
		}
		return r
	}, sanitized)

	if len(sanitized) > maxDebugRawResponseLength {
		return sanitized[:maxDebugRawResponseLength] + "...<truncated>"
	}
	if sanitized == "" {
		return "<empty>"
	}
	return sanitized
}
