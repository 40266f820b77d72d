package observability

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the name of the provider implementation (e.g. "openai").
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g. "mistral").
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL.
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMFinishReason is the reason the generation finished.
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMTemperature is the sampling temperature used.
	AttrLLMTemperature = "llm.temperature"

	// AttrLLMMaxTokens is the output token limit.
	AttrLLMMaxTokens = "llm.max_tokens" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMToolChoice is the tool invocation mode sent with the request.
	AttrLLMToolChoice = "llm.tool_choice"

	// AttrLLMToolCalls is the number of tool calls requested in a response.
	AttrLLMToolCalls = "llm.tool_calls"

	// AttrLLMAttempt is the 1-based attempt number of a retried request.
	AttrLLMAttempt = "llm.attempt"
)

// --- Token Usage Attributes ---

const (
	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- Not a credential, token refers to LLM tokens
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- Not a credential, token refers to LLM tokens
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Tool Execution Attributes ---

const (
	AttrToolName     = "tool.name"
	AttrToolCallID   = "tool.call_id"
	AttrToolInput    = "tool.input"
	AttrToolOutput   = "tool.output"
	AttrToolDuration = "tool.duration"
	AttrToolError    = "tool.error"
)

// --- Request Attributes ---

const (
	AttrRequestMessagesCount = "request.messages_count"
	AttrRequestToolsCount    = "request.tools_count"
)

// --- HTTP Attributes ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPURL              = "http.url"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Memory Attributes ---

const (
	AttrMemoryMessageRole   = "memory.message.role"
	AttrMemoryMessageLength = "memory.message.length"
	AttrMemoryTotalMessages = "memory.total_messages"
)

// --- Session Attributes ---

const (
	// AttrSessionID identifies one console session.
	AttrSessionID = "session.id"

	// AttrSessionTurn is the 1-based turn number.
	AttrSessionTurn = "session.turn"

	// AttrSessionState is the session state after a transition.
	AttrSessionState = "session.state"

	// AttrSessionPreviousState is the session state before a transition.
	AttrSessionPreviousState = "session.previous_state"

	// AttrSessionToolRound is the 1-based tool round within a turn.
	AttrSessionToolRound = "session.tool_round"
)

// --- General Attributes ---

const (
	AttrError             = "error"
	AttrErrorReason       = "error.reason"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	SpanSessionTurn   = "session.turn"
	SpanLLMRequest    = "llm.request"
	SpanToolExecution = "tool.execution"
)

// --- Event Names ---

const (
	EventLLMRequestStart    = "llm.request.start"
	EventLLMStreamFirstByte = "llm.stream.first_event"
	EventToolExecutionStart = "tool.execution.start"
	EventToolExecutionEnd   = "tool.execution.end"
	EventMemoryAppend       = "memory.append"
	EventStateTransition    = "session.state.transition"
)

// --- Metric Names ---

const (
	MetricSessionTurnCount       = "mathchat.session.turn.count"
	MetricSessionTurnDuration    = "mathchat.session.turn.duration"
	MetricSessionTurnErrors      = "mathchat.session.turn.errors"
	MetricToolInvocationCount    = "mathchat.tool.invocation.count"
	MetricClientRequestCount     = "mathchat.client.request.count"
	MetricClientRequestDuration  = "mathchat.client.request.duration"
	MetricClientTokensPrompt     = "mathchat.client.tokens.prompt"
	MetricClientTokensCompletion = "mathchat.client.tokens.completion"
)
