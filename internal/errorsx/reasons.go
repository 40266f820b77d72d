package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonToolNotFound       ReasonCode = "tool_not_found"
	ReasonInvalidArguments   ReasonCode = "invalid_arguments"
	ReasonToolExecution      ReasonCode = "tool_execution_failed"
	ReasonToolDuplicate      ReasonCode = "tool_duplicate"
	ReasonToolInvalid        ReasonCode = "tool_invalid_definition"
	ReasonToolResultEncoding ReasonCode = "tool_result_encoding"
	ReasonLLMTransport       ReasonCode = "llm_transport"
	ReasonLLMStream          ReasonCode = "llm_stream_interrupted"
	ReasonLLMTimeout         ReasonCode = "llm_timeout"
	ReasonLLMRetryExhausted  ReasonCode = "llm_retry_exhausted"
	ReasonSessionToolRounds  ReasonCode = "session_tool_rounds_exceeded"
	ReasonSessionTransition  ReasonCode = "session_invalid_transition"
	ReasonConfigInvalid      ReasonCode = "config_invalid"
)
