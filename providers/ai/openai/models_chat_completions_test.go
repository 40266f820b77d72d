package openai

import (
	"testing"

	"github.com/leofalp/mathchat/providers/ai"
)

// TestRequestToChatCompletion_Messages verifies tool exchange messages keep their links.
func TestRequestToChatCompletion_Messages(t *testing.T) {
	request := ai.ChatRequest{
		Model: "mistral",
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "6*7?"},
			{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "call_1", Function: ai.ToolCallFunction{Name: "Multiply", Arguments: `{"number1":6,"number2":7}`}}}},
			{Role: ai.RoleTool, ToolCallID: "call_1", Name: "Multiply", Content: `{"success":true,"data":42}`},
		},
	}

	req := requestToChatCompletion(request)

	if len(req.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(req.Messages))
	}
	assistant := req.Messages[1]
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].Type != "function" || assistant.ToolCalls[0].ID != "call_1" {
		t.Errorf("unexpected assistant tool calls %+v", assistant.ToolCalls)
	}
	tool := req.Messages[2]
	if tool.Role != "tool" || tool.ToolCallID != "call_1" || tool.Name != "Multiply" {
		t.Errorf("unexpected tool message %+v", tool)
	}
	if req.Temperature != nil || req.MaxTokens != nil || req.ToolChoice != "" {
		t.Errorf("expected no generation parameters without config, got %+v", req)
	}
}

// TestRequestToChatCompletion_ToolMode verifies tool_choice is sent only with tools.
func TestRequestToChatCompletion_ToolMode(t *testing.T) {
	tools := []ai.ToolDescription{{Name: "Add"}}
	tests := []struct {
		name   string
		tools  []ai.ToolDescription
		config *ai.GenerationConfig
		want   string
	}{
		{"default auto", tools, nil, "auto"},
		{"none", tools, &ai.GenerationConfig{ToolMode: ai.ToolModeNone}, "none"},
		{"required", tools, &ai.GenerationConfig{ToolMode: ai.ToolModeRequired}, "required"},
		{"no tools", nil, &ai.GenerationConfig{ToolMode: ai.ToolModeRequired}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestToChatCompletion(ai.ChatRequest{Tools: tt.tools, GenerationConfig: tt.config})
			if req.ToolChoice != tt.want {
				t.Errorf("ToolChoice = %q, want %q", req.ToolChoice, tt.want)
			}
		})
	}
}

func TestParseToolCallsFromContent(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantNames []string
		wantArgs  string
	}{
		{"plain array", `[{"name":"Add","arguments":{"number1":1,"number2":2}}]`, []string{"Add"}, `{"number1":1,"number2":2}`},
		{"mistral marker", `[TOOL_CALLS] [{"name":"Subtract","arguments":{"number1":9,"number2":4}}]`, []string{"Subtract"}, `{"number1":9,"number2":4}`},
		{"toolcall tags", `<TOOLCALL>[{"name":"Multiply","arguments":{}}]</TOOLCALL>`, []string{"Multiply"}, `{}`},
		{"string arguments", `[{"name":"Add","arguments":"{\"number1\":1,\"number2\":2}"}]`, []string{"Add"}, `{"number1":1,"number2":2}`},
		{"trailing comma repaired", `[{"name":"Add","arguments":{"number1":1,"number2":2},},]`, []string{"Add"}, ""},
		{"two calls", `[{"name":"Add","arguments":{}},{"name":"Divide","arguments":{}}]`, []string{"Add", "Divide"}, ""},
		{"prose", `The answer is 5 [approximately].`, nil, ""},
		{"empty", ``, nil, ""},
		{"missing name", `[{"arguments":{}}]`, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := parseToolCallsFromContent(tt.content)
			if len(calls) != len(tt.wantNames) {
				t.Fatalf("expected %d calls, got %+v", len(tt.wantNames), calls)
			}
			for i, name := range tt.wantNames {
				if calls[i].Function.Name != name {
					t.Errorf("call %d name = %q, want %q", i, calls[i].Function.Name, name)
				}
			}
			if tt.wantArgs != "" && calls[0].Function.Arguments != tt.wantArgs {
				t.Errorf("arguments = %s, want %s", calls[0].Function.Arguments, tt.wantArgs)
			}
		})
	}
}

func TestThinkTags(t *testing.T) {
	tests := []struct {
		content       string
		wantReasoning string
		wantClean     string
	}{
		{"<think>carry the one</think>Answer: 10", "carry the one", "Answer: 10"},
		{"carry the one</think>Answer: 10", "carry the one", "Answer: 10"},
		{"no tags here", "", "no tags here"},
		{"<think>unterminated", "", "<think>unterminated"},
	}

	for _, tt := range tests {
		if got := extractReasoningFromThinkTags(tt.content); got != tt.wantReasoning {
			t.Errorf("extractReasoningFromThinkTags(%q) = %q, want %q", tt.content, got, tt.wantReasoning)
		}
		if got := cleanThinkTags(tt.content); got != tt.wantClean {
			t.Errorf("cleanThinkTags(%q) = %q, want %q", tt.content, got, tt.wantClean)
		}
	}
}
