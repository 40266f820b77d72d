package client

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/leofalp/mathchat/internal/utils"
	"github.com/leofalp/mathchat/providers/ai"
	"github.com/leofalp/mathchat/providers/observability"
)

// Default generation parameters used when no GenerationConfig is supplied.
const (
	DefaultModel           = "mistral"
	DefaultMaxOutputTokens = 2000
)

// Client binds a completion provider to the parameters that stay fixed for a
// whole session: model, system prompt and generation config. Every request is
// threaded through the middleware chain built at construction time.
type Client struct {
	provider     ai.Provider
	model        string
	systemPrompt string
	generation   ai.GenerationConfig
	observer     observability.Provider
	middlewares  []Middleware
	stream       StreamFunc
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the model identifier sent with each request.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithSystemPrompt sets the system prompt prepended to each request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// WithGenerationConfig replaces the default generation parameters.
func WithGenerationConfig(config ai.GenerationConfig) Option {
	return func(c *Client) {
		c.generation = config
	}
}

// WithObserver enables tracing, metrics and logs for every request. The
// observability middleware becomes the outermost wrapper of the chain.
func WithObserver(observer observability.Provider) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithMiddleware appends middlewares to the chain, outermost first.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}

// New creates a Client for provider. By default it requests model "mistral"
// with a 2000 token output limit, temperature 0 and automatic tool choice.
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, errors.New("client: provider must not be nil")
	}

	c := &Client{
		provider: provider,
		model:    DefaultModel,
		generation: ai.GenerationConfig{
			MaxOutputTokens: DefaultMaxOutputTokens,
			Temperature:     utils.Ptr(0.0),
			ToolMode:        ai.ToolModeAuto,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := validateGeneration(c.generation); err != nil {
		return nil, err
	}

	middlewares := c.middlewares
	if c.observer != nil {
		middlewares = append([]Middleware{NewObservabilityMiddleware(c.observer, c.model)}, middlewares...)
	}
	c.stream = buildStreamChain(provider, middlewares)

	return c, nil
}

func validateGeneration(config ai.GenerationConfig) error {
	if config.MaxOutputTokens < 0 {
		return fmt.Errorf("client: max output tokens must not be negative, got %d", config.MaxOutputTokens)
	}
	if config.Temperature != nil && (*config.Temperature < 0 || *config.Temperature > 2) {
		return fmt.Errorf("client: temperature must be within [0, 2], got %g", *config.Temperature)
	}
	if config.ToolMode != "" && !config.ToolMode.Valid() {
		return fmt.Errorf("client: unknown tool mode %q", config.ToolMode)
	}
	return nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Observer returns the configured observability provider, or nil.
func (c *Client) Observer() observability.Provider {
	return c.observer
}

// Stream dispatches messages and the tool descriptors to the completion
// service and returns the streamed response. Pre-stream failures match
// ai.ErrTransport; failures while iterating match ai.ErrStreamInterrupted.
func (c *Client) Stream(ctx context.Context, messages []ai.Message, tools []ai.ToolDescription) (*ai.ChatStream, error) {
	generation := c.generation
	request := ai.ChatRequest{
		Model:            c.model,
		Messages:         slices.Clone(messages),
		SystemPrompt:     c.systemPrompt,
		Tools:            tools,
		GenerationConfig: &generation,
	}
	return c.stream(ctx, request)
}
