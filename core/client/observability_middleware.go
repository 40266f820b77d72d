package client

import (
	"context"
	"time"

	"github.com/leofalp/mathchat/internal/errorsx"
	"github.com/leofalp/mathchat/internal/utils"
	"github.com/leofalp/mathchat/providers/ai"
	"github.com/leofalp/mathchat/providers/observability"
)

// NewObservabilityMiddleware creates a Middleware that records a tracing span,
// metrics and log events for every completion request.
//
// The span starts when the request enters the chain and ends once the stream
// is fully consumed, fails, or is abandoned by the caller. Both the span and
// the observer are injected into the context before calling next, so that
// providers can retrieve them via [observability.SpanFromContext] and
// [observability.ObserverFromContext].
//
// [New] prepends this middleware automatically when [WithObserver] is given,
// so it observes the final outcome after any retry or timeout middleware.
func NewObservabilityMiddleware(observer observability.Provider, defaultModel string) Middleware {
	return func(next StreamFunc) StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			model := effectiveModel(request.Model, defaultModel)

			ctx, span := observer.StartSpan(ctx, observability.SpanLLMRequest,
				observability.String(observability.AttrLLMModel, model),
				observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
				observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
			)
			ctx = observability.ContextWithSpan(ctx, span)
			ctx = observability.ContextWithObserver(ctx, observer)

			span.AddEvent(observability.EventLLMRequestStart)

			start := time.Now()
			stream, err := next(ctx, request)
			if err != nil {
				recordObsFailure(ctx, span, observer, err, time.Since(start), model)
				return nil, err
			}

			return wrapStreamWithObservability(ctx, stream, span, observer, start, model), nil
		}
	}
}

// wrapStreamWithObservability returns a ChatStream that emits all events
// unchanged and records the outcome when the stream ends.
func wrapStreamWithObservability(
	ctx context.Context,
	stream *ai.ChatStream,
	span observability.Span,
	observer observability.Provider,
	start time.Time,
	model string,
) *ai.ChatStream {
	iteratorFunc := func(yield func(ai.StreamEvent, error) bool) {
		summary := &ai.ChatResponse{Model: model}
		var toolCalls ai.ToolCallAccumulator
		first := true

		for event, err := range stream.Iter() {
			if err != nil {
				recordObsFailure(ctx, span, observer, err, time.Since(start), model)
				yield(event, err)
				return
			}

			if first {
				first = false
				span.AddEvent(observability.EventLLMStreamFirstByte,
					observability.Duration(observability.AttrDuration, time.Since(start)),
				)
			}

			switch event.Type {
			case ai.StreamEventContent:
				summary.Content += event.Content
			case ai.StreamEventToolCall:
				toolCalls.Add(event.ToolCall)
			case ai.StreamEventUsage:
				if event.Usage != nil {
					summary.Usage = event.Usage
				}
			case ai.StreamEventDone:
				summary.FinishReason = event.FinishReason
			}

			if !yield(event, nil) {
				span.SetStatus(observability.StatusOK, "llm stream abandoned")
				span.End()
				observer.Info(ctx, "llm stream abandoned",
					observability.String(observability.AttrLLMModel, model),
					observability.Duration(observability.AttrDuration, time.Since(start)),
				)
				return
			}
		}

		summary.ToolCalls = toolCalls.ToolCalls()
		recordObsSuccess(ctx, span, observer, summary, time.Since(start), model)
	}

	return ai.NewChatStream(iteratorFunc)
}

// recordObsFailure ends the span with an error status and records the failure.
func recordObsFailure(
	ctx context.Context,
	span observability.Span,
	observer observability.Provider,
	err error,
	elapsed time.Duration,
	model string,
) {
	span.RecordError(err)
	span.SetStatus(observability.StatusError, "llm stream failed")
	span.End()

	observer.Error(ctx, "llm stream failed",
		observability.Error(err),
		observability.String(observability.AttrErrorReason, string(errorsx.Reason(err))),
		observability.Duration(observability.AttrDuration, elapsed),
		observability.String(observability.AttrLLMModel, model),
	)

	observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "error"),
		observability.String(observability.AttrLLMModel, model),
	)
}

// recordObsSuccess writes the success-path data: duration histogram, request
// counter, token counters, span attributes and an INFO log. It ends the span.
func recordObsSuccess(
	ctx context.Context,
	span observability.Span,
	observer observability.Provider,
	response *ai.ChatResponse,
	elapsed time.Duration,
	model string,
) {
	observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrLLMModel, model),
	)

	observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "success"),
		observability.String(observability.AttrLLMModel, model),
	)

	logAttrs := []observability.Attribute{
		observability.String(observability.AttrLLMModel, model),
		observability.String(observability.AttrLLMFinishReason, response.FinishReason),
		observability.Duration(observability.AttrDuration, elapsed),
		observability.Int(observability.AttrLLMToolCalls, len(response.ToolCalls)),
	}

	if response.Usage != nil {
		observer.Counter(observability.MetricClientTokensPrompt).Add(ctx, int64(response.Usage.PromptTokens),
			observability.String(observability.AttrLLMModel, model),
		)
		observer.Counter(observability.MetricClientTokensCompletion).Add(ctx, int64(response.Usage.CompletionTokens),
			observability.String(observability.AttrLLMModel, model),
		)

		usageAttrs := []observability.Attribute{
			observability.Int(observability.AttrLLMTokensPrompt, response.Usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, response.Usage.CompletionTokens),
			observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens),
		}
		span.SetAttributes(usageAttrs...)
		logAttrs = append(logAttrs, usageAttrs...)
	}

	if response.Content != "" {
		logAttrs = append(logAttrs,
			observability.String("response", utils.TruncateString(response.Content, 100)),
		)
	}

	observer.Info(ctx, "llm stream completed", logAttrs...)

	span.SetStatus(observability.StatusOK, "success")
	span.End()
}

// effectiveModel returns the request-level model when set, falling back to
// the client's configured default.
func effectiveModel(requestModel, defaultModel string) string {
	if requestModel != "" {
		return requestModel
	}

	return defaultModel
}
