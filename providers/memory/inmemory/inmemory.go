package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/leofalp/mathchat/providers/ai"
	"github.com/leofalp/mathchat/providers/memory"
	"github.com/leofalp/mathchat/providers/observability"
)

// ArrayMemory is a simple, concurrency-safe in-memory message store.
// It uses RWMutex to guard access and is efficient for read-heavy workloads.
type ArrayMemory struct {
	mu       sync.RWMutex
	messages []ai.Message
}

// New returns a new, empty [ArrayMemory] ready for immediate use.
func New() *ArrayMemory {
	return &ArrayMemory{
		messages: []ai.Message{},
	}
}

var _ memory.Provider = (*ArrayMemory)(nil)

// AppendMessages stores copies of messages at the end of the history in a
// single critical section. When an observability span is present in ctx, an
// event is recorded per message and the running total is set as a span attribute.
func (m *ArrayMemory) AppendMessages(ctx context.Context, messages ...ai.Message) error {
	if len(messages) == 0 {
		return nil
	}

	span := observability.SpanFromContext(ctx)
	if span != nil {
		for _, message := range messages {
			span.AddEvent(observability.EventMemoryAppend,
				observability.String(observability.AttrMemoryMessageRole, string(message.Role)),
				observability.Int(observability.AttrMemoryMessageLength, len(message.Content)),
			)
		}
	}

	m.mu.Lock()
	for _, message := range messages {
		message.ToolCalls = slices.Clone(message.ToolCalls)
		m.messages = append(m.messages, message)
	}
	totalMessages := len(m.messages)
	m.mu.Unlock()

	if span != nil {
		span.SetAttributes(observability.Int(observability.AttrMemoryTotalMessages, totalMessages))
	}
	return nil
}

// Count returns the number of messages stored.
func (m *ArrayMemory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages), nil
}

// AllMessages returns a copy of all messages to avoid external mutation of internal state.
func (m *ArrayMemory) AllMessages(_ context.Context) ([]ai.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneMessages(m.messages), nil
}

// LastMessages returns up to the last n messages as a new, independent slice.
// Returns an empty, non-nil slice when n is zero or negative.
func (m *ArrayMemory) LastMessages(_ context.Context, n int) ([]ai.Message, error) {
	if n <= 0 {
		return []ai.Message{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n = min(n, len(m.messages))
	return cloneMessages(m.messages[len(m.messages)-n:]), nil
}

// FilterByRole returns a copy of all messages whose role matches role.
// The returned slice is always non-nil.
func (m *ArrayMemory) FilterByRole(_ context.Context, role ai.MessageRole) ([]ai.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filtered := []ai.Message{}
	for _, message := range m.messages {
		if message.Role == role {
			message.ToolCalls = slices.Clone(message.ToolCalls)
			filtered = append(filtered, message)
		}
	}
	return filtered, nil
}

// cloneMessages copies the slice and each message's tool calls so callers
// cannot reach internal state.
func cloneMessages(messages []ai.Message) []ai.Message {
	out := make([]ai.Message, len(messages))
	for i, message := range messages {
		message.ToolCalls = slices.Clone(message.ToolCalls)
		out[i] = message
	}
	return out
}
