package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/go-resty/resty/v2"
)

// APIKeyEnv names the environment variable holding the completion API credential.
const APIKeyEnv = "PERPLEXITY_API_KEY"

// Transport performs the single outbound call. Connection reuse and pooling belong
// to the implementation, not to the translator.
type Transport interface {
	Post(ctx context.Context, url string, apiKey string, request CompletionRequest) (RawResponse, error)
}

type RestyTransport struct {
	client *resty.Client
}

func NewRestyTransport(client *resty.Client) *RestyTransport {
	if client == nil {
		client = resty.New()
	}
	return &RestyTransport{client: client}
}

func (transport *RestyTransport) Post(ctx context.Context, url string, apiKey string, request CompletionRequest) (RawResponse, error) {
	response, postError := transport.client.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(request).
		Post(url)
	if postError != nil {
		return RawResponse{}, fmt.Errorf("call completion API: %w", postError)
	}
	return RawResponse{
		StatusCode:  response.StatusCode(),
		ContentType: response.Header().Get("Content-Type"),
		Body:        response.Body(),
	}, nil
}

type Translator struct {
	settings  Settings
	apiKey    string
	transport Transport
}

func NewTranslator(settings Settings, apiKey string, transport Transport) *Translator {
	return &Translator{
		settings:  settings.withDefaults(),
		apiKey:    strings.TrimSpace(apiKey),
		transport: transport,
	}
}

// Translate turns one natural-language query into a vetted command. It makes at
// most one network call and never retries.
func (translator *Translator) Translate(ctx context.Context, query string) (string, error) {
	request, buildError := BuildRequest(query, translator.settings)
	if buildError != nil {
		return "", buildError
	}
	if translator.apiKey == "" {
		return "", newError(KindAuth, fmt.Sprintf("API key not found, set the %s environment variable", APIKeyEnv))
	}
	if translator.transport == nil {
		return "", newError(KindTransport, "no transport configured")
	}

	requestCtx, cancel := context.WithTimeout(ctx, translator.settings.Timeout)
	defer cancel()

	raw, postError := translator.transport.Post(requestCtx, translator.settings.URL, translator.apiKey, request)
	if postError != nil {
		return "", classifyTransportError(postError)
	}
	return Extract(raw, translator.settings.extractPolicy())
}

func classifyTransportError(err error) *TranslationError {
	var translationError *TranslationError
	if errors.As(err, &translationError) {
		return translationError
	}

	var netError net.Error
	var dnsError *net.DNSError
	var opError *net.OpError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netError) && netError.Timeout()):
		return &TranslationError{Kind: KindTimeout, Message: "API request timed out", Cause: err}
	case errors.Is(err, syscall.ECONNREFUSED) || errors.As(err, &dnsError) || errors.As(err, &opError):
		return &TranslationError{Kind: KindConnection, Message: "could not connect to the API server", Cause: err}
	default:
		return &TranslationError{Kind: KindTransport, Message: "API request failed", Cause: err}
	}
}
