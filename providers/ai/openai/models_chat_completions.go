package openai

import (
	"encoding/json"
	"strings"

	"github.com/leofalp/mathchat/core/parse"
	"github.com/leofalp/mathchat/internal/jsonschema"
	"github.com/leofalp/mathchat/internal/utils"
	"github.com/leofalp/mathchat/providers/ai"
)

/*
	CHAT COMPLETIONS API - INPUT
*/

// chatCompletionRequest represents the /v1/chat/completions request format
type chatCompletionRequest struct {
	Model         string         `json:"model"`
	Messages      []chatMessage  `json:"messages"`
	Temperature   *float64       `json:"temperature,omitempty"`
	MaxTokens     *int           `json:"max_tokens,omitempty"`
	Stream        *bool          `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`

	Tools      []chatTool `json:"tools,omitempty"`
	ToolChoice string     `json:"tool_choice,omitempty"` // "auto", "none" or "required"
}

type chatMessage struct {
	Role       string         `json:"role"` // system, user, assistant, tool
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"` // For role=tool
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`   // For role=assistant
}

type chatTool struct {
	Type     string       `json:"type"` // "function"
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // "function"
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

type chatCompletionResponse struct {
	ID                string       `json:"id"`
	Object            string       `json:"object"` // "chat.completion"
	Created           int64        `json:"created"`
	Model             string       `json:"model"`
	SystemFingerprint string       `json:"system_fingerprint,omitempty"`
	Choices           []chatChoice `json:"choices"`
	Usage             *chatUsage   `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"` // "stop", "length", "tool_calls", "content_filter"
}

type chatResponseMessage struct {
	Role      string         `json:"role"` // "assistant"
	Content   string         `json:"content,omitempty"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
	Reasoning string         `json:"reasoning,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u *chatUsage) toGeneric() *ai.Usage {
	if u == nil {
		return nil
	}
	return &ai.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

/*
	CONVERSION FUNCTIONS
*/

// requestToChatCompletion converts ai.ChatRequest to chat completions format
func requestToChatCompletion(request ai.ChatRequest) chatCompletionRequest {
	req := chatCompletionRequest{
		Model: request.Model,
	}

	if request.SystemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{
			Role:    string(ai.RoleSystem),
			Content: request.SystemPrompt,
		})
	}

	for _, msg := range request.Messages {
		chatMsg := chatMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
		}

		for _, tc := range msg.ToolCalls {
			toolCall := chatToolCall{
				ID:   tc.ID,
				Type: tc.Type,
			}
			if toolCall.Type == "" {
				toolCall.Type = "function"
			}
			toolCall.Function.Name = tc.Function.Name
			toolCall.Function.Arguments = tc.Function.Arguments
			chatMsg.ToolCalls = append(chatMsg.ToolCalls, toolCall)
		}

		req.Messages = append(req.Messages, chatMsg)
	}

	toolMode := ai.ToolModeAuto
	if cfg := request.GenerationConfig; cfg != nil {
		// A zero temperature is meaningful and is sent as is
		if cfg.Temperature != nil {
			req.Temperature = utils.Ptr(*cfg.Temperature)
		}
		if cfg.MaxOutputTokens > 0 {
			maxTokens := cfg.MaxOutputTokens
			req.MaxTokens = &maxTokens
		}
		if cfg.ToolMode != "" {
			toolMode = cfg.ToolMode
		}
	}

	if len(request.Tools) > 0 {
		for _, tl := range request.Tools {
			req.Tools = append(req.Tools, chatTool{
				Type: "function",
				Function: chatFunction{
					Name:        tl.Name,
					Description: tl.Description,
					Parameters:  tl.Parameters,
				},
			})
		}
		req.ToolChoice = string(toolMode)
	}

	return req
}

// chatCompletionToGeneric converts chat completion response to ai.ChatResponse
func chatCompletionToGeneric(resp chatCompletionResponse) *ai.ChatResponse {
	if len(resp.Choices) == 0 {
		return &ai.ChatResponse{
			Id:           resp.ID,
			Model:        resp.Model,
			Object:       resp.Object,
			Created:      resp.Created,
			Usage:        resp.Usage.toGeneric(),
			FinishReason: "error",
		}
	}

	choice := resp.Choices[0]

	// Some models wrap chain-of-thought in <think> tags inside content
	content := strings.TrimSpace(choice.Message.Content)
	reasoning := strings.TrimSpace(choice.Message.Reasoning)
	if inContent := extractReasoningFromThinkTags(content); inContent != "" {
		if reasoning != "" {
			reasoning += "\n"
		}
		reasoning += inContent
		content = cleanThinkTags(content)
	}

	role := ai.MessageRole(choice.Message.Role)
	if role == "" {
		role = ai.RoleAssistant
	}

	chatResp := &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Object:       resp.Object,
		Created:      resp.Created,
		Role:         role,
		Content:      content,
		Reasoning:    reasoning,
		FinishReason: choice.FinishReason,
		Usage:        resp.Usage.toGeneric(),
	}

	if len(choice.Message.ToolCalls) > 0 {
		for _, tc := range choice.Message.ToolCalls {
			chatResp.ToolCalls = append(chatResp.ToolCalls, ai.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: ai.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	} else if parsed := parseToolCallsFromContent(content); len(parsed) > 0 {
		chatResp.ToolCalls = parsed
		chatResp.Content = ""
		chatResp.FinishReason = "tool_calls"
	}

	return chatResp
}

// parseToolCallsFromContent is a fallback for models that write tool calls
// into the text content instead of the tool_calls field. It accepts
// <TOOLCALL>[...]</TOOLCALL>, [TOOL_CALLS] [...] and a bare JSON array.
func parseToolCallsFromContent(content string) []ai.ToolCall {
	cleaned := cleanToolCallContent(content)
	if cleaned == "" {
		return nil
	}

	if start, end := strings.Index(cleaned, "<TOOLCALL>"), strings.Index(cleaned, "</TOOLCALL>"); start != -1 && end > start {
		if toolCalls := parseToolCallsJSON(cleaned[start+len("<TOOLCALL>") : end]); len(toolCalls) > 0 {
			return toolCalls
		}
	}

	// Only content that is itself a JSON array is treated as tool calls;
	// arrays embedded in prose are left alone.
	if !strings.HasPrefix(cleaned, "[") {
		return nil
	}
	return parseToolCallsJSON(cleaned)
}

// cleanToolCallContent removes provider-specific markers that jsonrepair doesn't handle.
func cleanToolCallContent(content string) string {
	content = strings.TrimSpace(content)

	markers := []string{
		"[TOOL_CALLS]",
		"<|END OF THOUGHT|>",
		"<|END_OF_THOUGHT|>",
		"<|endofthought|>",
		"[/TOOLCALL]",
	}
	for _, marker := range markers {
		content = strings.ReplaceAll(content, marker, "")
	}

	return strings.TrimSpace(content)
}

// parseToolCallsJSON decodes a (possibly malformed) JSON array of
// {"name": ..., "arguments": ...} objects.
func parseToolCallsJSON(jsonStr string) []ai.ToolCall {
	jsonStr = strings.TrimSpace(jsonStr)
	if jsonStr == "" {
		return nil
	}
	if !strings.HasPrefix(jsonStr, "[") {
		jsonStr = "[" + jsonStr
	}
	if !strings.HasSuffix(jsonStr, "]") {
		lastBrace := strings.LastIndex(jsonStr, "}")
		if lastBrace <= 0 {
			return nil
		}
		jsonStr = jsonStr[:lastBrace+1] + "]"
	}

	type toolCallParsed struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	calls, err := parse.ParseStringAs[[]toolCallParsed](jsonStr)
	if err != nil {
		return nil
	}

	var toolCalls []ai.ToolCall
	for _, call := range calls {
		if call.Name == "" {
			continue
		}

		argsStr := "{}"
		if len(call.Arguments) > 0 {
			argsStr = string(call.Arguments)
			// Arguments given as a JSON-encoded string are unwrapped
			var encoded string
			if json.Unmarshal(call.Arguments, &encoded) == nil {
				argsStr = encoded
			}
		}

		toolCalls = append(toolCalls, ai.ToolCall{
			Type: "function",
			Function: ai.ToolCallFunction{
				Name:      call.Name,
				Arguments: argsStr,
			},
		})
	}

	return toolCalls
}

// extractReasoningFromThinkTags extracts the text inside <think>...</think>.
// A missing start tag means the reasoning starts at the beginning; the end
// tag is mandatory.
func extractReasoningFromThinkTags(content string) string {
	const startTag, endTag = "<think>", "</think>"

	start := strings.Index(content, startTag)
	if start == -1 {
		start = 0
	} else {
		start += len(startTag)
	}

	end := strings.Index(content, endTag)
	if end == -1 || end < start {
		return ""
	}

	return strings.TrimSpace(content[start:end])
}

// cleanThinkTags removes <think>...</think> and its content from the text.
func cleanThinkTags(content string) string {
	const startTag, endTag = "<think>", "</think>"

	start := strings.Index(content, startTag)
	if start == -1 {
		start = 0
	}

	end := strings.Index(content, endTag)
	if end == -1 || end < start {
		return content
	}

	return strings.TrimSpace(content[:start] + content[end+len(endTag):])
}
