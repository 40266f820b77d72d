package client

import (
	"context"
	"errors"

	"github.com/leofalp/mathchat/providers/ai"
)

// StreamFunc sends a chat request to the completion service and returns a
// ChatStream. It is the unit threaded through the middleware chain.
type StreamFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error)

// Middleware intercepts stream requests and may wrap the returned ChatStream
// to observe or transform the event sequence. Middlewares are applied
// outermost-first: the first middleware in the slice is the outermost wrapper.
type Middleware func(next StreamFunc) StreamFunc

// buildStreamChain constructs the linear middleware chain. The base function
// attempts a native stream via ai.StreamProvider; if the provider does not
// implement that interface it falls back to a synchronous SendMessage wrapped
// in a single-event stream whose missing finish reason is derived from the
// provider's IsStopMessage. Nil middlewares are skipped.
func buildStreamChain(provider ai.Provider, middlewares []Middleware) StreamFunc {
	var chain StreamFunc = func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
		if streamProvider, ok := provider.(ai.StreamProvider); ok {
			return streamProvider.StreamMessage(ctx, request)
		}

		response, err := provider.SendMessage(ctx, request)
		if err != nil {
			return nil, ai.TransportError(err)
		}
		if response == nil {
			return nil, ai.TransportError(errors.New("provider returned no response"))
		}

		if response.FinishReason == "" {
			response.FinishReason = finishReasonFor(provider, response)
		}
		return ai.NewSingleEventStream(response), nil
	}

	// Apply in reverse so that middlewares[0] is outermost.
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			chain = middlewares[i](chain)
		}
	}

	return chain
}

// finishReasonFor names the finish reason a provider implies for a response
// that did not report one.
func finishReasonFor(provider ai.Provider, response *ai.ChatResponse) string {
	if provider.IsStopMessage(response) {
		return "stop"
	}
	return "tool_calls"
}
