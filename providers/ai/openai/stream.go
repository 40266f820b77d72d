package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leofalp/mathchat/internal/utils"
	"github.com/leofalp/mathchat/providers/ai"
	"github.com/leofalp/mathchat/providers/observability"
)

// StreamMessage implements ai.StreamProvider for the chat completions endpoint.
// Failures before the first event wrap ai.ErrTransport; failures while
// reading wrap ai.ErrStreamInterrupted and are yielded through the iterator.
func (p *OpenAIProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	p.enrichSpan(ctx, request, true)
	observer := observability.ObserverFromContext(ctx)

	chatRequest := requestToChatCompletion(request)
	streamEnabled := true
	chatRequest.Stream = &streamEnabled
	chatRequest.StreamOptions = &streamOptions{IncludeUsage: true}

	httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, chatRequest)
	if err != nil {
		if observer != nil {
			observer.Trace(ctx, "Streaming HTTP request failed", observability.Error(err))
		}
		return nil, ai.TransportError(err)
	}

	sseScanner := utils.NewSSEScanner(httpResponse.Body)

	iteratorFunc := func(yield func(ai.StreamEvent, error) bool) {
		defer utils.CloseWithLog(httpResponse.Body)

		state := &streamState{}
		for {
			if ctx.Err() != nil {
				yield(ai.StreamEvent{}, ai.StreamError(ctx.Err()))
				return
			}

			payload, sseErr := sseScanner.Next()
			if errors.Is(sseErr, io.EOF) {
				// Servers that close without a finish_reason still get the fallback
				for _, event := range state.finish("") {
					if !yield(event, nil) {
						return
					}
				}
				return
			}
			if sseErr != nil {
				// A read error after cancellation is reported as the cancellation
				if ctx.Err() != nil {
					sseErr = ctx.Err()
				}
				yield(ai.StreamEvent{}, ai.StreamError(fmt.Errorf("SSE read error: %w", sseErr)))
				return
			}

			chunk, parseErr := unmarshalStreamChunk(payload)
			if parseErr != nil {
				yield(ai.StreamEvent{}, ai.StreamError(fmt.Errorf("failed to parse streaming chunk: %w", parseErr)))
				return
			}
			if chunk.Error != nil {
				yield(ai.StreamEvent{}, ai.StreamError(errors.New(chunk.Error.Message)))
				return
			}

			for _, event := range state.convert(chunk) {
				if !yield(event, nil) {
					return
				}
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}

// streamState tracks what a stream has produced so far, so the content
// tool-call fallback can run once the response is complete.
//
// Content that may still turn out to be a tool call payload (it starts with
// "[" or "<TOOLCALL>") is held back rather than forwarded. If it parses as
// tool calls at the end it is dropped, the same way the non-streaming path
// clears it. Otherwise it is released as one content event before done.
type streamState struct {
	content        strings.Builder
	released       bool
	nativeToolCall bool
	finished       bool
}

// convert turns one chunk into events. The done event is held back until the
// content fallback has had a chance to emit tool calls.
func (s *streamState) convert(chunk *chatCompletionStreamChunk) []ai.StreamEvent {
	var events []ai.StreamEvent
	for _, event := range openaiChunkToStreamEvents(chunk) {
		switch event.Type {
		case ai.StreamEventContent:
			s.content.WriteString(event.Content)
			if s.released {
				break
			}
			if !s.finished && !s.nativeToolCall && mayBeToolCallContent(s.content.String()) {
				// Keep the role marker, hold the text.
				if event.Role == "" {
					continue
				}
				event.Content = ""
				break
			}
			s.released = true
			event.Content = s.content.String()
		case ai.StreamEventToolCall:
			s.nativeToolCall = true
			events = append(events, s.release()...)
		case ai.StreamEventDone:
			events = append(events, s.finish(event.FinishReason)...)
			continue
		}
		events = append(events, event)
	}
	return events
}

// release flushes held content as a single event.
func (s *streamState) release() []ai.StreamEvent {
	if s.released {
		return nil
	}
	s.released = true
	if s.content.Len() == 0 {
		return nil
	}
	return []ai.StreamEvent{{Type: ai.StreamEventContent, Content: s.content.String()}}
}

// finish emits fallback tool call events (when the content was a tool call
// array and no native call was seen) followed by a single done event. Held
// content is dropped when it became tool calls and released otherwise.
func (s *streamState) finish(finishReason string) []ai.StreamEvent {
	if s.finished {
		return nil
	}
	s.finished = true

	var events []ai.StreamEvent
	if !s.nativeToolCall {
		for index, toolCall := range parseToolCallsFromContent(s.content.String()) {
			events = append(events, ai.StreamEvent{
				Type: ai.StreamEventToolCall,
				ToolCall: &ai.ToolCallDelta{
					Index:     index,
					Name:      toolCall.Function.Name,
					Arguments: toolCall.Function.Arguments,
				},
			})
		}
		if len(events) > 0 {
			finishReason = "tool_calls"
			s.released = true
		}
	}

	events = append(s.release(), events...)
	return append(events, ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: finishReason})
}

// mayBeToolCallContent reports whether content so far is, or could still
// grow into, a tool call payload recognised by parseToolCallsFromContent.
func mayBeToolCallContent(content string) bool {
	trimmed := strings.TrimSpace(content)
	const tag = "<TOOLCALL>"
	return trimmed == "" ||
		strings.HasPrefix(trimmed, "[") ||
		strings.HasPrefix(trimmed, tag) ||
		strings.HasPrefix(tag, trimmed)
}

// openaiChunkToStreamEvents converts a single streaming chunk into one or more StreamEvents.
// The role marker rides on the first event of a choice; a role-only delta
// becomes an empty content event so the marker is never lost.
func openaiChunkToStreamEvents(chunk *chatCompletionStreamChunk) []ai.StreamEvent {
	var events []ai.StreamEvent

	// The usage chunk typically has empty choices, so process it first
	if chunk.Usage != nil {
		events = append(events, ai.StreamEvent{
			Type:  ai.StreamEventUsage,
			Usage: chunk.Usage.toGeneric(),
		})
	}

	for _, choice := range chunk.Choices {
		delta := choice.Delta
		role := ai.MessageRole(delta.Role)
		first := len(events)

		if delta.Content != nil && (*delta.Content != "" || role != "") {
			events = append(events, ai.StreamEvent{
				Type:    ai.StreamEventContent,
				Content: *delta.Content,
			})
		}

		if delta.Reasoning != nil && *delta.Reasoning != "" {
			events = append(events, ai.StreamEvent{
				Type:      ai.StreamEventReasoning,
				Reasoning: *delta.Reasoning,
			})
		}

		for _, toolCallPart := range delta.ToolCalls {
			events = append(events, ai.StreamEvent{
				Type: ai.StreamEventToolCall,
				ToolCall: &ai.ToolCallDelta{
					Index:     toolCallPart.Index,
					ID:        toolCallPart.ID,
					Name:      toolCallPart.Function.Name,
					Arguments: toolCallPart.Function.Arguments,
				},
			})
		}

		if role != "" {
			if len(events) == first {
				events = append(events, ai.StreamEvent{Type: ai.StreamEventContent})
			}
			events[first].Role = role
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			events = append(events, ai.StreamEvent{
				Type:         ai.StreamEventDone,
				FinishReason: *choice.FinishReason,
			})
		}
	}

	return events
}
