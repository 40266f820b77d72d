package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/leofalp/mathchat/core/client"
	"github.com/leofalp/mathchat/internal/errorsx"
	"github.com/leofalp/mathchat/internal/utils"
	"github.com/leofalp/mathchat/providers/ai"
	"github.com/leofalp/mathchat/providers/observability"
)

// RetryConfig holds the tuning parameters for the retry middleware. Zero values
// are replaced with the defaults documented below when NewRetryMiddleware is called.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first failure.
	// A value of 2 means the provider is called at most 3 times.
	// Default: 2. Use a negative value to disable retries.
	MaxRetries int

	// InitialBackoff is the wait duration before the first retry attempt.
	// Default: 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff.
	// Default: 10s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth multiplier
	// (backoff = min(InitialBackoff * BackoffFactor^attempt, MaxBackoff)).
	// Default: 2.0.
	BackoffFactor float64

	// JitterFraction adds random noise in [0, JitterFraction * backoff].
	// Default: 0.1.
	JitterFraction float64

	// RetryableFunc returns true when an error should trigger a retry.
	// Default: [IsRetryable].
	RetryableFunc func(error) bool
}

// retryableStatusCodes are the HTTP answers worth another attempt.
var retryableStatusCodes = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// IsRetryable reports whether a pre-stream failure is transient: a 408, 429
// or 5xx gateway/server answer, or a network error such as a refused
// connection while the model server starts. Context cancellation and
// deadlines are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *utils.StatusError
	if errors.As(err, &statusErr) {
		return retryableStatusCodes[statusErr.StatusCode]
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// applyRetryDefaults fills in zero-valued fields in config.
func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 2
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	if config.InitialBackoff == 0 {
		config.InitialBackoff = 500 * time.Millisecond
	}

	if config.MaxBackoff == 0 {
		config.MaxBackoff = 10 * time.Second
	}

	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}

	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}

	if config.RetryableFunc == nil {
		config.RetryableFunc = IsRetryable
	}
}

// computeBackoff returns the backoff duration for the given attempt (0-indexed).
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}

	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter is intentional
	return time.Duration(base + jitter)
}

// NewRetryMiddleware returns a Middleware that retries failures to open a
// stream. Once the first event may have been shown to the user the stream is
// never restarted, so mid-stream errors pass through untouched.
//
// On exhaustion the returned error wraps both [ErrRetryExhausted] and the last
// provider error and carries the llm_retry_exhausted reason.
func NewRetryMiddleware(config RetryConfig) client.Middleware {
	applyRetryDefaults(&config)

	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			var lastErr error

			for attempt := 0; attempt <= config.MaxRetries; attempt++ {
				if attempt > 0 {
					backoff := computeBackoff(config, attempt-1)
					if span := observability.SpanFromContext(ctx); span != nil {
						span.AddEvent("llm.request.retry",
							observability.Int(observability.AttrLLMAttempt, attempt+1),
							observability.Duration("backoff", backoff),
							observability.Error(lastErr),
						)
					}

					timer := time.NewTimer(backoff)
					select {
					case <-ctx.Done():
						timer.Stop()
						return nil, ai.TransportError(ctx.Err())
					case <-timer.C:
					}
				}

				stream, err := next(ctx, request)
				if err == nil {
					return stream, nil
				}

				lastErr = err

				if !config.RetryableFunc(err) {
					return nil, err
				}
			}

			if config.MaxRetries == 0 {
				return nil, lastErr
			}

			return nil, errorsx.ReasonedError{
				Err:    fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr),
				Reason: errorsx.ReasonLLMRetryExhausted,
			}
		}
	}
}
