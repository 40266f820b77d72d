package ai

import (
	"errors"
	"iter"
	"testing"
)

func eventsOf(events ...StreamEvent) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
	}
}

// TestChatStream_Collect_Content verifies content deltas are concatenated in arrival order.
func TestChatStream_Collect_Content(t *testing.T) {
	stream := NewChatStream(eventsOf(
		StreamEvent{Type: StreamEventContent, Role: RoleAssistant, Content: "Hel"},
		StreamEvent{Type: StreamEventContent, Content: "lo"},
		StreamEvent{Type: StreamEventContent, Content: "!"},
		StreamEvent{Type: StreamEventUsage, Usage: &Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}},
		StreamEvent{Type: StreamEventDone, FinishReason: "stop"},
	))

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != "Hello!" {
		t.Errorf("Content = %q, want %q", response.Content, "Hello!")
	}
	if response.Role != RoleAssistant {
		t.Errorf("Role = %q, want assistant", response.Role)
	}
	if response.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", response.FinishReason)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 5 {
		t.Errorf("unexpected usage %+v", response.Usage)
	}
}

// TestChatStream_Collect_ToolCalls verifies interleaved deltas are merged by index.
func TestChatStream_Collect_ToolCalls(t *testing.T) {
	stream := NewChatStream(eventsOf(
		StreamEvent{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, ID: "call_a", Name: "Add"}},
		StreamEvent{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 1, ID: "call_b", Name: "Divide"}},
		StreamEvent{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, Arguments: `{"number1":`}},
		StreamEvent{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 1, Arguments: `{"number1":7,"number2":2}`}},
		StreamEvent{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, Arguments: `2,"number2":3}`}},
		StreamEvent{Type: StreamEventDone, FinishReason: "tool_calls"},
	))

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(response.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(response.ToolCalls))
	}
	first, second := response.ToolCalls[0], response.ToolCalls[1]
	if first.ID != "call_a" || first.Function.Name != "Add" || first.Function.Arguments != `{"number1":2,"number2":3}` {
		t.Errorf("unexpected first call %+v", first)
	}
	if second.ID != "call_b" || second.Function.Name != "Divide" || second.Type != "function" {
		t.Errorf("unexpected second call %+v", second)
	}
}

// TestChatStream_Collect_Error verifies a mid-stream error stops collection.
func TestChatStream_Collect_Error(t *testing.T) {
	boom := errors.New("connection reset")
	stream := NewChatStream(func(yield func(StreamEvent, error) bool) {
		if !yield(StreamEvent{Type: StreamEventContent, Content: "partial"}, nil) {
			return
		}
		yield(StreamEvent{}, boom)
	})

	response, err := stream.Collect()
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if response.Content != "partial" {
		t.Errorf("expected partial content, got %q", response.Content)
	}
}

// TestNewSingleEventStream verifies the synchronous fallback emits a role marker first.
func TestNewSingleEventStream(t *testing.T) {
	stream := NewSingleEventStream(&ChatResponse{
		Content:      "42",
		ToolCalls:    []ToolCall{{ID: "call_1", Type: "function", Function: ToolCallFunction{Name: "Add", Arguments: "{}"}}},
		Usage:        &Usage{TotalTokens: 7},
		FinishReason: "stop",
	})

	var types []StreamEventType
	var first StreamEvent
	for event, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(types) == 0 {
			first = event
		}
		types = append(types, event.Type)
	}

	want := []StreamEventType{StreamEventContent, StreamEventToolCall, StreamEventUsage, StreamEventDone}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event types = %v, want %v", types, want)
		}
	}
	if first.Role != RoleAssistant || first.Content != "42" {
		t.Errorf("unexpected first event %+v", first)
	}
}

// TestNewSingleEventStream_EarlyBreak verifies the iterator honors a loop break.
func TestNewSingleEventStream_EarlyBreak(t *testing.T) {
	stream := NewSingleEventStream(&ChatResponse{Content: "a", Usage: &Usage{}})
	count := 0
	for range stream.Iter() {
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected 1 event before break, got %d", count)
	}
}

// TestToolCallAccumulator_IgnoresEmpty verifies nil, negative and empty slots are skipped.
func TestToolCallAccumulator_IgnoresEmpty(t *testing.T) {
	var acc ToolCallAccumulator
	acc.Add(nil)
	acc.Add(&ToolCallDelta{Index: -1, Name: "Add"})
	acc.Add(&ToolCallDelta{Index: 2, Name: "Multiply", Arguments: "{}"})

	if acc.Len() != 3 {
		t.Errorf("Len() = %d, want 3", acc.Len())
	}
	calls := acc.ToolCalls()
	if len(calls) != 1 || calls[0].Function.Name != "Multiply" {
		t.Errorf("unexpected calls %+v", calls)
	}
}
