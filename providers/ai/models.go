package ai

import (
	"encoding/json"

	"github.com/leofalp/mathchat/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents one dispatch to the completion service.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Model name or identifier
	Messages         []Message         `json:"messages"`                    // All messages in the conversation except the system prompt
	SystemPrompt     string            `json:"system_prompt,omitempty"`     // Optional system prompt
	Tools            []ToolDescription `json:"tools,omitempty"`             // Tool descriptors offered to the model
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Fixed generation parameters
}

// ToolDescription is how a registered tool is advertised to the model.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	// Tool calling fields
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For role=assistant requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // For role=tool, links to the tool call being responded to
	Name       string     `json:"name,omitempty"`         // For role=tool, name of the tool that generated this response

	Reasoning string `json:"reasoning,omitempty"` // Chain-of-thought reasoning, never sent back to the server
}

// ToolMode controls whether the model may, must, or must not call tools.
type ToolMode string

const (
	ToolModeAuto     ToolMode = "auto"
	ToolModeNone     ToolMode = "none"
	ToolModeRequired ToolMode = "required"
)

// Valid reports whether m is one of the known modes.
func (m ToolMode) Valid() bool {
	switch m {
	case ToolModeAuto, ToolModeNone, ToolModeRequired:
		return true
	}
	return false
}

// GenerationConfig holds the parameters that stay fixed for the whole session.
type GenerationConfig struct {
	MaxOutputTokens int      `json:"max_output_tokens,omitempty"` // Output token limit, 0 leaves it to the server
	Temperature     *float64 `json:"temperature,omitempty"`       // Sampling temperature [0..2]; nil leaves it to the server, 0 is sent explicitly
	ToolMode        ToolMode `json:"tool_mode,omitempty"`         // Tool invocation mode, empty behaves as auto
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Add accumulates other into u. A nil other is ignored.
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ChatResponse represents the response from a chat completion
type ChatResponse struct {
	Id           string      `json:"id"`
	Model        string      `json:"model"`
	Object       string      `json:"object"`
	Created      int64       `json:"created"`
	Role         MessageRole `json:"role,omitempty"`
	Content      string      `json:"content"`
	ToolCalls    []ToolCall  `json:"tool_calls,omitempty"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        *Usage      `json:"usage,omitempty"`
	Reasoning    string      `json:"reasoning,omitempty"`
}

// ToolCall represents a function/tool call request from the LLM
type ToolCall struct {
	ID       string           `json:"id,omitempty"` // Unique identifier for this tool call
	Type     string           `json:"type"`         // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// ToolResult is the envelope sent back to the model as tool-message content.
// Failures are reported here instead of aborting the turn, so the model can
// read what went wrong and answer the user.
type ToolResult struct {
	Success bool   `json:"success"`           // Whether the tool executed successfully
	Error   string `json:"error,omitempty"`   // Machine-readable code if success=false (e.g. "tool_not_found")
	Message string `json:"message,omitempty"` // Human-readable description
	Data    any    `json:"data,omitempty"`    // Result data if success=true
}

// NewToolResultSuccess creates a successful tool result.
func NewToolResultSuccess(data any) ToolResult {
	return ToolResult{
		Success: true,
		Data:    data,
	}
}

// NewToolResultError creates a failed tool result.
// errorType should be a machine-readable code, message a human-readable description.
func NewToolResultError(errorType, message string) ToolResult {
	return ToolResult{
		Success: false,
		Error:   errorType,
		Message: message,
	}
}

// ToJSON converts the ToolResult to a JSON string.
func (tr ToolResult) ToJSON() (string, error) {
	bytes, err := json.Marshal(tr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
	RoleTool      MessageRole = "tool"      // Tool/function output
)
