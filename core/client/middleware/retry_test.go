package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/leofalp/mathchat/internal/errorsx"
	"github.com/leofalp/mathchat/internal/utils"
	"github.com/leofalp/mathchat/providers/ai"
)

func statusErr(code int) error {
	return ai.TransportError(&utils.StatusError{StatusCode: code, Body: http.StatusText(code)})
}

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

// TestRetryMiddleware_SuccessOnFirstTry performs no retry when the stream opens.
func TestRetryMiddleware_SuccessOnFirstTry(t *testing.T) {
	seq := &streamSequence{}
	chain := NewRetryMiddleware(fastRetry(3))(seq.next)

	stream, err := chain(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content, err := drain(stream); err != nil || content != "hello" {
		t.Errorf("drain = %q, %v", content, err)
	}
	if seq.calls != 1 {
		t.Errorf("expected 1 call, got %d", seq.calls)
	}
}

// TestRetryMiddleware_RetryThenSuccess retries transient status codes.
func TestRetryMiddleware_RetryThenSuccess(t *testing.T) {
	seq := &streamSequence{errors: []error{statusErr(503), statusErr(429)}}
	chain := NewRetryMiddleware(fastRetry(3))(seq.next)

	if _, err := chain(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq.calls != 3 {
		t.Errorf("expected 3 calls, got %d", seq.calls)
	}
}

// TestRetryMiddleware_ExhaustsRetries wraps both the sentinel and the last error.
func TestRetryMiddleware_ExhaustsRetries(t *testing.T) {
	seq := &streamSequence{errors: []error{statusErr(500), statusErr(502), statusErr(503)}}
	chain := NewRetryMiddleware(fastRetry(2))(seq.next)

	_, err := chain(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if !errors.Is(err, ai.ErrTransport) {
		t.Errorf("expected ErrTransport to still match, got %v", err)
	}
	var statusError *utils.StatusError
	if !errors.As(err, &statusError) || statusError.StatusCode != 503 {
		t.Errorf("expected last status 503, got %v", err)
	}
	if reason := errorsx.Reason(err); reason != errorsx.ReasonLLMRetryExhausted {
		t.Errorf("reason = %q", reason)
	}
	if seq.calls != 3 {
		t.Errorf("expected 3 calls, got %d", seq.calls)
	}
}

// TestRetryMiddleware_NonRetryableError returns client errors immediately.
func TestRetryMiddleware_NonRetryableError(t *testing.T) {
	seq := &streamSequence{errors: []error{statusErr(400)}}
	chain := NewRetryMiddleware(fastRetry(3))(seq.next)

	_, err := chain(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, ai.ErrTransport) || errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected the raw transport error, got %v", err)
	}
	if seq.calls != 1 {
		t.Errorf("expected 1 call, got %d", seq.calls)
	}
}

// TestRetryMiddleware_Disabled makes a single attempt with a negative MaxRetries.
func TestRetryMiddleware_Disabled(t *testing.T) {
	seq := &streamSequence{errors: []error{statusErr(503)}}
	chain := NewRetryMiddleware(RetryConfig{MaxRetries: -1})(seq.next)

	_, err := chain(context.Background(), ai.ChatRequest{})
	if err == nil || errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected the provider error, got %v", err)
	}
	if seq.calls != 1 {
		t.Errorf("expected 1 call, got %d", seq.calls)
	}
}

// TestRetryMiddleware_ContextCancellation stops waiting between attempts.
func TestRetryMiddleware_ContextCancellation(t *testing.T) {
	seq := &streamSequence{errors: []error{statusErr(503), statusErr(503)}}
	chain := NewRetryMiddleware(RetryConfig{MaxRetries: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour})(seq.next)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := chain(ctx, ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, ai.ErrTransport) {
		t.Fatalf("expected a transport-wrapped deadline error, got %v", err)
	}
	if seq.calls != 1 {
		t.Errorf("expected 1 call, got %d", seq.calls)
	}
}

// TestRetryMiddleware_MidStreamNotRetried leaves errors after the stream opened alone.
func TestRetryMiddleware_MidStreamNotRetried(t *testing.T) {
	calls := 0
	next := func(context.Context, ai.ChatRequest) (*ai.ChatStream, error) {
		calls++
		return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
			yield(ai.StreamEvent{}, ai.StreamError(statusErr(503)))
		}), nil
	}
	chain := NewRetryMiddleware(fastRetry(3))(next)

	stream, err := chain(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := drain(stream); !errors.Is(err, ai.ErrStreamInterrupted) {
		t.Errorf("expected ErrStreamInterrupted, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// TestRetryMiddleware_CustomRetryableFunc uses the caller's classification.
func TestRetryMiddleware_CustomRetryableFunc(t *testing.T) {
	custom := errors.New("custom")
	seq := &streamSequence{errors: []error{custom, custom}}
	config := fastRetry(3)
	config.RetryableFunc = func(err error) bool { return errors.Is(err, custom) }

	if _, err := NewRetryMiddleware(config)(seq.next)(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq.calls != 3 {
		t.Errorf("expected 3 calls, got %d", seq.calls)
	}
}

// TestApplyRetryDefaults fills zero values.
func TestApplyRetryDefaults(t *testing.T) {
	var config RetryConfig
	applyRetryDefaults(&config)

	if config.MaxRetries != 2 || config.InitialBackoff != 500*time.Millisecond ||
		config.MaxBackoff != 10*time.Second || config.BackoffFactor != 2 ||
		config.JitterFraction != 0.1 || config.RetryableFunc == nil {
		t.Errorf("unexpected defaults %+v", config)
	}
}

// TestComputeBackoff grows exponentially and caps at MaxBackoff plus jitter.
func TestComputeBackoff(t *testing.T) {
	config := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2,
		JitterFraction: 0.1,
	}

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{5, time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			got := computeBackoff(config, tt.attempt)
			upper := tt.base + tt.base/10
			if got < tt.base || got > upper {
				t.Errorf("backoff %v not in [%v, %v]", got, tt.base, upper)
			}
		})
	}
}

// TestIsRetryable covers the default classification.
func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", statusErr(429), true},
		{"500", statusErr(500), true},
		{"503", statusErr(503), true},
		{"400", statusErr(400), false},
		{"404", statusErr(404), false},
		{"refused", ai.TransportError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}), true},
		{"canceled", ai.TransportError(context.Canceled), false},
		{"deadline", ai.TransportError(context.DeadlineExceeded), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
