package inmemory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/leofalp/mathchat/providers/ai"
)

func TestArrayMemory_AppendAndAllMessages(t *testing.T) {
	ctx := context.Background()
	m := New()
	if n, _ := m.Count(ctx); n != 0 {
		t.Fatalf("expected empty memory")
	}

	err := m.AppendMessages(ctx,
		ai.Message{Role: ai.RoleUser, Content: "hi"},
		ai.Message{Role: ai.RoleAssistant, Content: "hello"},
	)
	if err != nil {
		t.Fatalf("AppendMessages: %v", err)
	}

	if n, _ := m.Count(ctx); n != 2 {
		t.Fatalf("expected 2 messages, got %d", n)
	}

	all, _ := m.AllMessages(ctx)
	if len(all) != 2 || all[0].Content != "hi" || all[1].Content != "hello" {
		t.Fatalf("unexpected messages %+v", all)
	}

	// mutating the returned slice must not affect internal state
	all[0].Content = "changed"
	again, _ := m.AllMessages(ctx)
	if again[0].Content == "changed" {
		t.Fatalf("expected copy protection in AllMessages")
	}
}

func TestArrayMemory_ToolCallsAreCopied(t *testing.T) {
	ctx := context.Background()
	m := New()

	calls := []ai.ToolCall{{ID: "call_1", Function: ai.ToolCallFunction{Name: "Add"}}}
	_ = m.AppendMessages(ctx, ai.Message{Role: ai.RoleAssistant, ToolCalls: calls})
	calls[0].ID = "mutated"

	all, _ := m.AllMessages(ctx)
	if all[0].ToolCalls[0].ID != "call_1" {
		t.Fatalf("caller mutation leaked into history: %+v", all[0].ToolCalls)
	}
	all[0].ToolCalls[0].ID = "mutated"
	again, _ := m.AllMessages(ctx)
	if again[0].ToolCalls[0].ID != "call_1" {
		t.Fatalf("reader mutation leaked into history: %+v", again[0].ToolCalls)
	}
}

func TestArrayMemory_AppendNothing(t *testing.T) {
	m := New()
	if err := m.AppendMessages(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := m.Count(context.Background()); n != 0 {
		t.Fatalf("expected no messages, got %d", n)
	}
}

func TestArrayMemory_LastMessages(t *testing.T) {
	ctx := context.Background()
	m := New()
	for i := range 5 {
		_ = m.AppendMessages(ctx, ai.Message{Role: ai.RoleUser, Content: string(rune('a' + i))})
	}

	tests := []struct {
		n    int
		want string
	}{
		{2, "de"},
		{10, "abcde"},
		{0, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		last, _ := m.LastMessages(ctx, tt.n)
		var got string
		for _, message := range last {
			got += message.Content
		}
		if got != tt.want || last == nil {
			t.Errorf("LastMessages(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestArrayMemory_FilterByRole(t *testing.T) {
	ctx := context.Background()
	m := New()
	_ = m.AppendMessages(ctx,
		ai.Message{Role: ai.RoleUser, Content: "2+3?"},
		ai.Message{Role: ai.RoleTool, Content: "5"},
		ai.Message{Role: ai.RoleAssistant, Content: "5"},
		ai.Message{Role: ai.RoleUser, Content: "thanks"},
	)

	users, _ := m.FilterByRole(ctx, ai.RoleUser)
	if len(users) != 2 || users[1].Content != "thanks" {
		t.Errorf("unexpected user messages %+v", users)
	}
	systems, _ := m.FilterByRole(ctx, ai.RoleSystem)
	if systems == nil || len(systems) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", systems)
	}
}

// TestArrayMemory_ConcurrentBatches verifies batches are never interleaved.
func TestArrayMemory_ConcurrentBatches(t *testing.T) {
	ctx := context.Background()
	m := New()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(turn int) {
			defer wg.Done()
			_ = m.AppendMessages(ctx,
				ai.Message{Role: ai.RoleUser, Content: fmt.Sprint(turn)},
				ai.Message{Role: ai.RoleAssistant, Content: fmt.Sprint(turn)},
			)
		}(i)
	}
	wg.Wait()

	all, _ := m.AllMessages(ctx)
	if len(all) != 100 {
		t.Fatalf("expected 100 messages, got %d", len(all))
	}
	for i := 0; i < len(all); i += 2 {
		if all[i].Role != ai.RoleUser || all[i+1].Role != ai.RoleAssistant || all[i].Content != all[i+1].Content {
			t.Fatalf("batch split at %d: %+v / %+v", i, all[i], all[i+1])
		}
	}
}
