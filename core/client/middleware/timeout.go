package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leofalp/mathchat/core/client"
	"github.com/leofalp/mathchat/internal/errorsx"
	"github.com/leofalp/mathchat/providers/ai"
)

// DefaultTimeout bounds one completion request including its whole stream.
const DefaultTimeout = 2 * time.Minute

// NewTimeoutMiddleware returns a Middleware that enforces a per-request
// deadline. A non-positive timeout selects [DefaultTimeout].
//
// The cancel function is not deferred immediately. It is called once the
// inner stream is exhausted, a mid-stream error occurs, or the iterator is
// abandoned, so the timeout governs the complete lifetime of the stream and
// not just the time to the first byte. Events after StreamEventDone, such as
// the usage chunk OpenAI-compatible servers send last, are still forwarded.
//
// Errors caused by this deadline keep their ai.ErrTransport or
// ai.ErrStreamInterrupted identity and carry the llm_timeout reason. A
// shorter deadline already present on the caller's context wins as usual.
func NewTimeoutMiddleware(timeout time.Duration) client.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			parent := ctx
			ctx, cancel := context.WithTimeout(ctx, timeout)

			stream, err := next(ctx, request)
			if err != nil {
				err = markTimeout(parent, ctx, err, timeout)
				cancel()
				return nil, err
			}

			return wrapStreamWithCancel(parent, ctx, stream, cancel, timeout), nil
		}
	}
}

// wrapStreamWithCancel returns a ChatStream whose iterator calls cancel once
// the inner stream ends or errors, or the caller breaks out.
func wrapStreamWithCancel(parent, ctx context.Context, stream *ai.ChatStream, cancel context.CancelFunc, timeout time.Duration) *ai.ChatStream {
	iteratorFunc := func(yield func(ai.StreamEvent, error) bool) {
		defer cancel()

		for event, err := range stream.Iter() {
			if err != nil {
				yield(event, markTimeout(parent, ctx, err, timeout))
				return
			}

			if !yield(event, nil) {
				return
			}
		}
	}

	return ai.NewChatStream(iteratorFunc)
}

// markTimeout tags err with the llm_timeout reason when it was caused by this
// middleware's deadline rather than by the caller.
func markTimeout(parent, ctx context.Context, err error, timeout time.Duration) error {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) || parent.Err() != nil {
		return err
	}
	return errorsx.ReasonedError{
		Err:    fmt.Errorf("request timed out after %s: %w", timeout, err),
		Reason: errorsx.ReasonLLMTimeout,
	}
}
