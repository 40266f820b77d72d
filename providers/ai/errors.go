package ai

import (
	"errors"
	"fmt"

	"github.com/leofalp/mathchat/internal/errorsx"
)

var (
	// ErrTransport means the completion service could not be reached or
	// rejected the request before any event was streamed.
	ErrTransport = errors.New("completion service transport failure")

	// ErrStreamInterrupted means the event stream broke after it started.
	ErrStreamInterrupted = errors.New("completion stream interrupted")
)

// TransportError wraps err so it matches ErrTransport and carries the llm_transport reason.
func TransportError(err error) error {
	if err == nil || errors.Is(err, ErrTransport) {
		return err
	}
	return errorsx.Wrap(fmt.Errorf("%w: %w", ErrTransport, err), errorsx.ReasonLLMTransport)
}

// StreamError wraps err so it matches ErrStreamInterrupted and carries the llm_stream_interrupted reason.
func StreamError(err error) error {
	if err == nil || errors.Is(err, ErrStreamInterrupted) {
		return err
	}
	return errorsx.Wrap(fmt.Errorf("%w: %w", ErrStreamInterrupted, err), errorsx.ReasonLLMStream)
}
