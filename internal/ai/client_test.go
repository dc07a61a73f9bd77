package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

type countingTransport struct {
	calls    atomic.Int32
	response RawResponse
	err      error
}

func (transport *countingTransport) Post(ctx context.Context, url string, apiKey string, request CompletionRequest) (RawResponse, error) {
	transport.calls.Add(1)
	return transport.response, transport.err
}

func TestTranslate_MissingAPIKeyMakesNoCall(t *testing.T) {
	t.Parallel()

	transport := &countingTransport{response: okResponse("command: ls")}
	translator := NewTranslator(DefaultSettings(), "  ", transport)

	_, translateError := translator.Translate(context.Background(), "list files")
	if !errors.Is(translateError, ErrAuth) {
		t.Fatalf("expected auth error, got %v", translateError)
	}
	if calls := transport.calls.Load(); calls != 0 {
		t.Fatalf("expected zero transport calls, got %d", calls)
	}
}

func TestTranslate_EmptyQueryMakesNoCall(t *testing.T) {
	t.Parallel()

	transport := &countingTransport{response: okResponse("command: ls")}
	translator := NewTranslator(DefaultSettings(), "key", transport)

	_, translateError := translator.Translate(context.Background(), " ")
	if !errors.Is(translateError, ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", translateError)
	}
	if calls := transport.calls.Load(); calls != 0 {
		t.Fatalf("expected zero transport calls, got %d", calls)
	}
}

func TestTranslate_TransportErrorsAreClassified(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      error
		expected error
		kind     Kind
	}{
		{name: "deadline", err: context.DeadlineExceeded, expected: ErrTimeout, kind: KindTimeout},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "api.invalid", IsNotFound: true}, expected: ErrConnection, kind: KindConnection},
		{name: "generic", err: errors.New("tls handshake failure"), expected: ErrTransport, kind: KindTransport},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			transport := &countingTransport{err: testCase.err}
			translator := NewTranslator(DefaultSettings(), "key", transport)
			_, translateError := translator.Translate(context.Background(), "list files")
			if !errors.Is(translateError, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, translateError)
			}
			if !errors.Is(translateError, ErrTransport) || !errors.Is(translateError, ErrTranslation) {
				t.Fatalf("expected transport faults to match the broad sentinels")
			}
			if KindOf(translateError) != testCase.kind {
				t.Fatalf("expected kind %s, got %s", testCase.kind, KindOf(translateError))
			}
			if transport.calls.Load() != 1 {
				t.Fatalf("expected exactly one call without retry, got %d", transport.calls.Load())
			}
		})
	}
}

func TestTranslate_RestyTransportRoundTrip(t *testing.T) {
	t.Parallel()

	var receivedAuth string
	var receivedRequest CompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		receivedAuth = request.Header.Get("Authorization")
		if decodeError := json.NewDecoder(request.Body).Decode(&receivedRequest); decodeError != nil {
			http.Error(writer, decodeError.Error(), http.StatusBadRequest)
			return
		}
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"command: ls -la"}}]}`))
	}))
	defer server.Close()

	settings := DefaultSettings()
	settings.URL = server.URL
	translator := NewTranslator(settings, "secret", NewRestyTransport(resty.New()))

	command, translateError := translator.Translate(context.Background(), "show all files")
	if translateError != nil {
		t.Fatalf("unexpected error: %v", translateError)
	}
	if command != "ls -la" {
		t.Fatalf("expected ls -la, got %q", command)
	}
	if receivedAuth != "Bearer secret" {
		t.Fatalf("expected bearer credential, got %q", receivedAuth)
	}
	if receivedRequest.Model != DefaultModel || receivedRequest.MaxTokens != DefaultMaxTokens {
		t.Fatalf("unexpected wire request: %+v", receivedRequest)
	}
	if len(receivedRequest.Messages) != 2 || receivedRequest.Messages[0].Role != "system" {
		t.Fatalf("expected system and user turns, got %+v", receivedRequest.Messages)
	}
}

func TestTranslate_RestyTransportStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		status   int
		expected error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, expected: ErrAuth},
		{name: "rate limited", status: http.StatusTooManyRequests, expected: ErrRateLimit},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				writer.Header().Set("Content-Type", "application/json")
				writer.WriteHeader(testCase.status)
				_, _ = writer.Write([]byte(`{"choices":[{"message":{"content":"command: ls"}}]}`))
			}))
			defer server.Close()

			settings := DefaultSettings()
			settings.URL = server.URL
			translator := NewTranslator(settings, "secret", NewRestyTransport(nil))
			_, translateError := translator.Translate(context.Background(), "list files")
			if !errors.Is(translateError, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, translateError)
			}
		})
	}
}

func TestTranslate_RestyTransportTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-release:
		case <-request.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	settings := DefaultSettings()
	settings.URL = server.URL
	settings.Timeout = 50 * time.Millisecond
	translator := NewTranslator(settings, "secret", NewRestyTransport(nil))

	_, translateError := translator.Translate(context.Background(), "list files")
	if !errors.Is(translateError, ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", translateError)
	}
}

func TestTranslate_RestyTransportConnectionRefused(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	settings := DefaultSettings()
	settings.URL = url
	translator := NewTranslator(settings, "secret", NewRestyTransport(nil))

	_, translateError := translator.Translate(context.Background(), "list files")
	if !errors.Is(translateError, ErrConnection) {
		t.Fatalf("expected connection error, got %v", translateError)
	}
}
