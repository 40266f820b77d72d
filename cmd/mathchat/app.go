package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/leofalp/mathchat/core/client"
	"github.com/leofalp/mathchat/core/client/middleware"
	"github.com/leofalp/mathchat/core/session"
	"github.com/leofalp/mathchat/internal/config"
	"github.com/leofalp/mathchat/internal/utils"
	"github.com/leofalp/mathchat/providers/ai"
	"github.com/leofalp/mathchat/providers/ai/openai"
	"github.com/leofalp/mathchat/providers/display/console"
	"github.com/leofalp/mathchat/providers/memory/inmemory"
	"github.com/leofalp/mathchat/providers/observability"
	slogobs "github.com/leofalp/mathchat/providers/observability/slog"
	"github.com/leofalp/mathchat/providers/tool/mathtool"
)

// ProviderFactory creates the completion provider for a configuration.
type ProviderFactory func(cfg *config.Config) (ai.Provider, error)

// DefaultProviderFactory returns an OpenAI-compatible provider pointed at
// cfg.BaseURL. The HTTP client has no timeout of its own: the timeout
// middleware bounds every request including its stream.
func DefaultProviderFactory(cfg *config.Config) (ai.Provider, error) {
	provider := openai.New()
	provider.WithBaseURL(cfg.BaseURL)
	provider.WithAPIKey(cfg.APIKey)
	return provider, nil
}

// App holds the process I/O and the provider factory so that tests can swap
// them out.
type App struct {
	ProviderFactory ProviderFactory
	Stdin           io.Reader
	Stdout          io.Writer
	Stderr          io.Writer
}

// DefaultApp wires the process standard streams and the OpenAI provider.
func DefaultApp() *App {
	return &App{
		ProviderFactory: DefaultProviderFactory,
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
	}
}

// Chat runs the interactive loop until end of input or cancellation.
// Cancellation is a normal way to leave and is not reported as an error.
func (a *App) Chat(ctx context.Context, cfg *config.Config) error {
	logger, err := newLogger(a.Stderr, cfg)
	if err != nil {
		return err
	}
	observer := slogobs.New(logger)

	provider, err := a.ProviderFactory(cfg)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	llm, err := newClient(provider, cfg, logger, observer)
	if err != nil {
		return err
	}

	sess, err := session.New(llm, mathtool.NewRegistry(),
		session.WithMemory(inmemory.New()),
		session.WithSink(newConsole(a.Stdout, cfg)),
		session.WithObserver(observer),
		session.WithMaxToolRounds(cfg.MaxToolRounds),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	if cfg.Banner {
		printBanner(a.Stdout, cfg, useColors(cfg))
	}

	observer.Info(ctx, "session started",
		observability.String(observability.AttrSessionID, sess.ID()),
		observability.String(observability.AttrLLMModel, cfg.Model),
		observability.String("base_url", cfg.BaseURL),
	)

	err = sess.Run(ctx, a.Stdin)
	if errors.Is(err, context.Canceled) {
		// Leave the prompt line before the shell takes over.
		fmt.Fprintln(a.Stdout)
		return nil
	}
	return err
}

// newClient binds the provider to the configured model and generation
// parameters. Each attempt gets its own timeout and log line; the retry
// layer sits outside them and the observer, added by client.New, outside all.
func newClient(provider ai.Provider, cfg *config.Config, logger *slog.Logger, observer observability.Provider) (*client.Client, error) {
	llm, err := client.New(provider,
		client.WithModel(cfg.Model),
		client.WithSystemPrompt(cfg.SystemPrompt),
		client.WithGenerationConfig(ai.GenerationConfig{
			MaxOutputTokens: cfg.MaxOutputTokens,
			Temperature:     utils.Ptr(cfg.Temperature),
			ToolMode:        ai.ToolMode(cfg.ToolChoice),
		}),
		client.WithObserver(observer),
		client.WithMiddleware(
			middleware.NewRetryMiddleware(retryConfig(cfg)),
			middleware.NewTimeoutMiddleware(cfg.RequestTimeout),
			middleware.NewLoggingMiddleware(logger, middleware.ParseLogLevel(cfg.Log.Requests)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return llm, nil
}

// retryConfig translates the user-facing retry count, where 0 means no
// retries, into the middleware convention.
func retryConfig(cfg *config.Config) middleware.RetryConfig {
	retries := cfg.Retry.MaxRetries
	if retries == 0 {
		retries = -1
	}
	return middleware.RetryConfig{
		MaxRetries:     retries,
		InitialBackoff: cfg.Retry.InitialBackoff,
	}
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := slogobs.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger, err := slogobs.NewLogger(w, level, cfg.Log.Format, useColors(cfg))
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

func newConsole(w io.Writer, cfg *config.Config) *console.Console {
	if !cfg.Color {
		return console.New(w, console.WithColors(false))
	}
	return console.New(w)
}

// useColors honours --no-color and NO_COLOR, and leaves colors off when
// stdout is not a terminal.
func useColors(cfg *config.Config) bool {
	return cfg.Color && !color.NoColor
}
