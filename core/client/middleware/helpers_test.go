package middleware

import (
	"context"
	"time"

	"github.com/leofalp/mathchat/providers/ai"
)

// eventStream yields the given events in order.
func eventStream(events ...ai.StreamEvent) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
	})
}

// okStream is a content event followed by a done event.
func okStream() *ai.ChatStream {
	return eventStream(
		ai.StreamEvent{Type: ai.StreamEventContent, Role: ai.RoleAssistant, Content: "hello"},
		ai.StreamEvent{Type: ai.StreamEventUsage, Usage: &ai.Usage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4}},
		ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: "stop"},
	)
}

// streamSequence returns a StreamFunc that pops the next error on each call
// and opens okStream once the errors are used up.
type streamSequence struct {
	errors []error
	calls  int
}

func (s *streamSequence) next(_ context.Context, _ ai.ChatRequest) (*ai.ChatStream, error) {
	index := s.calls
	s.calls++
	if index < len(s.errors) && s.errors[index] != nil {
		return nil, s.errors[index]
	}
	return okStream(), nil
}

// slowStream waits for sleep between the first content event and done,
// yielding the context error if the deadline fires first.
func slowStream(sleep time.Duration) func(context.Context, ai.ChatRequest) (*ai.ChatStream, error) {
	return func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatStream, error) {
		return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
			if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: "hel"}, nil) {
				return
			}
			select {
			case <-time.After(sleep):
				if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: "lo"}, nil) {
					return
				}
				yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: "stop"}, nil)
			case <-ctx.Done():
				yield(ai.StreamEvent{}, ai.StreamError(ctx.Err()))
			}
		}), nil
	}
}

// drain consumes a stream and returns the concatenated content and the first error.
func drain(stream *ai.ChatStream) (string, error) {
	var content string
	for event, err := range stream.Iter() {
		if err != nil {
			return content, err
		}
		content += event.Content
	}
	return content, nil
}

// finishThenUsageStream sends usage after the done event, the order used by
// OpenAI-compatible servers with stream_options.include_usage.
func finishThenUsageStream() *ai.ChatStream {
	return eventStream(
		ai.StreamEvent{Type: ai.StreamEventContent, Role: ai.RoleAssistant, Content: "Hi"},
		ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: "stop"},
		ai.StreamEvent{Type: ai.StreamEventUsage, Usage: &ai.Usage{PromptTokens: 11, CompletionTokens: 3, TotalTokens: 14}},
	)
}
