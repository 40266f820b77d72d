package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/leofalp/mathchat/internal/utils"
	"github.com/leofalp/mathchat/providers/ai"
	"github.com/leofalp/mathchat/providers/observability"
)

const (
	// DefaultBaseURL is the OpenAI-compatible endpoint of a local Ollama server.
	DefaultBaseURL = "http://localhost:11434/v1"

	chatCompletionsEndpoint = "/chat/completions"
	providerName            = "openai"
)

// OpenAIProvider implements ai.StreamProvider for the /chat/completions endpoint.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.StreamProvider = (*OpenAIProvider)(nil)

// New creates a provider pointed at DefaultBaseURL. OPENAI_API_KEY and
// OPENAI_API_BASE_URL are honored when set; the With* methods override them.
func New() *OpenAIProvider {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &OpenAIProvider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// WithAPIKey sets the bearer token. An empty key sends no Authorization header.
func (p *OpenAIProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API
func (p *OpenAIProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

// WithHttpClient sets a custom HTTP client
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// BaseURL returns the configured base URL.
func (p *OpenAIProvider) BaseURL() string {
	return p.baseURL
}

// SendMessage implements the Provider interface
func (p *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.enrichSpan(ctx, request, false)

	chatRequest := requestToChatCompletion(request)
	_, resp, err := utils.DoPostSync[chatCompletionResponse](ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, chatRequest)
	if err != nil {
		return nil, ai.TransportError(err)
	}
	if resp == nil {
		return nil, ai.TransportError(fmt.Errorf("empty response from %s", p.baseURL))
	}

	return chatCompletionToGeneric(*resp), nil
}

// IsStopMessage reports whether the given chat response should be treated as a stop/end signal.
func (p *OpenAIProvider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return true
	}
	if len(message.ToolCalls) > 0 {
		return false
	}
	switch message.FinishReason {
	case "stop", "length", "content_filter", "":
		return true
	}
	return message.Content == ""
}

func (p *OpenAIProvider) enrichSpan(ctx context.Context, request ai.ChatRequest, streaming bool) {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Bool("llm.streaming", streaming),
		)
	}

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "Preparing chat completions request",
			observability.String(observability.AttrLLMProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}
}
