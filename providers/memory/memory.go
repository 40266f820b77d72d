package memory

import (
	"context"

	"github.com/leofalp/mathchat/providers/ai"
)

// Provider stores the ordered conversation history of one session.
type Provider interface {
	// AppendMessages appends messages atomically and in order.
	AppendMessages(ctx context.Context, messages ...ai.Message) error

	// Count returns the number of stored messages.
	Count(ctx context.Context) (int, error)

	// AllMessages returns a copy of the full history.
	AllMessages(ctx context.Context) ([]ai.Message, error)

	// LastMessages returns a copy of up to the last n messages.
	LastMessages(ctx context.Context, n int) ([]ai.Message, error)

	// FilterByRole returns a copy of the messages with the given role.
	FilterByRole(ctx context.Context, role ai.MessageRole) ([]ai.Message, error)
}
