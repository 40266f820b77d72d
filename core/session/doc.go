// Package session implements the interactive chat loop.
//
// A [Session] moves through an explicit state machine:
//
//	AwaitingInput → Dispatching → Streaming → (ToolInvocation → Dispatching → Streaming)* → Appending → AwaitingInput
//
// with Closed as the terminal state reached at end of input. Each turn sends
// the full history plus the registered tool descriptors, streams the answer
// to a [display.Sink] as it arrives, resolves requested tool calls in the
// order the model listed them and feeds the results back within the same
// turn. Tool failures travel back to the model as error envelopes. Transport
// and stream failures abort the turn without touching the history.
package session
