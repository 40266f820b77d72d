package session

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leofalp/mathchat/internal/errorsx"
	"github.com/leofalp/mathchat/providers/ai"
	"github.com/leofalp/mathchat/providers/display"
	"github.com/leofalp/mathchat/providers/memory"
	"github.com/leofalp/mathchat/providers/memory/inmemory"
	"github.com/leofalp/mathchat/providers/observability"
	"github.com/leofalp/mathchat/providers/tool"
)

// DefaultMaxToolRounds bounds the tool exchanges within one turn.
const DefaultMaxToolRounds = 5

// maxLineSize is the longest input line Run accepts.
const maxLineSize = 1024 * 1024

// Completer opens a completion stream for the given conversation.
// *client.Client satisfies it.
type Completer interface {
	Stream(ctx context.Context, messages []ai.Message, tools []ai.ToolDescription) (*ai.ChatStream, error)
}

// Tools is the registry surface the session needs. *tool.Registry satisfies it.
type Tools interface {
	Descriptors() []ai.ToolDescription
	InvokeJSON(ctx context.Context, name string, argumentsJSON string) (string, error)
}

// TurnResult summarizes a completed turn.
type TurnResult struct {
	// Content is the text of the final assistant message.
	Content string
	// Messages are the messages appended to the history, user message first.
	Messages []ai.Message
	// ToolRounds is the number of tool exchanges performed.
	ToolRounds int
	// Usage sums the token usage reported across all rounds.
	Usage ai.Usage
}

// Session runs the conversational loop: it owns the history, dispatches it
// with the tool descriptors, renders the streamed answer and resolves tool
// calls until the model produces a final message.
type Session struct {
	id            string
	completer     Completer
	tools         Tools
	memory        memory.Provider
	sink          display.Sink
	observer      observability.Provider
	maxToolRounds int
	fsm           *stateMachine

	turnMu sync.Mutex
	turns  int
}

// Option configures a Session.
type Option func(*Session)

// WithMemory replaces the default in-memory history store.
func WithMemory(provider memory.Provider) Option {
	return func(s *Session) {
		s.memory = provider
	}
}

// WithSink sets where the conversation is rendered. The default discards output.
func WithSink(sink display.Sink) Option {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithObserver enables a span per turn and per tool call, plus turn metrics.
func WithObserver(observer observability.Provider) Option {
	return func(s *Session) {
		s.observer = observer
	}
}

// WithMaxToolRounds sets how many tool exchanges a single turn may perform.
func WithMaxToolRounds(n int) Option {
	return func(s *Session) {
		s.maxToolRounds = n
	}
}

// WithStateListener registers a listener for state transitions.
func WithStateListener(listener StateListener) Option {
	return func(s *Session) {
		s.fsm.AddListener(listener)
	}
}

// New creates a session in StateAwaitingInput with an empty history.
func New(completer Completer, tools Tools, opts ...Option) (*Session, error) {
	if completer == nil {
		return nil, errors.New("session: completer must not be nil")
	}
	if tools == nil {
		tools = tool.NewRegistry()
	}

	s := &Session{
		id:            uuid.NewString(),
		completer:     completer,
		tools:         tools,
		memory:        inmemory.New(),
		sink:          display.Discard,
		maxToolRounds: DefaultMaxToolRounds,
		fsm:           newStateMachine(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.memory == nil {
		return nil, errors.New("session: memory must not be nil")
	}
	if s.sink == nil {
		s.sink = display.Discard
	}
	if s.maxToolRounds < 0 {
		return nil, fmt.Errorf("session: max tool rounds must not be negative, got %d", s.maxToolRounds)
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	return s.fsm.State()
}

// History returns a copy of the conversation so far.
func (s *Session) History(ctx context.Context) ([]ai.Message, error) {
	return s.memory.AllMessages(ctx)
}

// Run reads one line per turn from in until end of input, which closes the
// session and returns nil. Each line is trimmed first. Empty and
// whitespace-only lines are not sent to the model as turns: the prompt is
// shown again and nothing is added to the history. Turn failures are shown
// through the sink and the loop continues. If ctx is cancelled, Run closes
// the session and returns ctx.Err() once the current turn finished.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(in, done)

	for {
		if err := ctx.Err(); err != nil {
			s.close(ctx, "context cancelled")
			return err
		}

		s.sink.Prompt()

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			s.close(ctx, "context cancelled")
			return ctx.Err()
		case line, ok = <-lines:
		}

		if !ok {
			s.close(ctx, "end of input")
			return <-readErr
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if _, err := s.Turn(ctx, input); err != nil && isFatal(err) {
			return err
		}
	}
}

// readLines scans in on its own goroutine so that Run can react to ctx while
// waiting for input. The error channel yields the scanner error (nil at EOF)
// once lines is closed.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	return lines, readErr
}

func (s *Session) close(ctx context.Context, reason string) {
	if s.fsm.State() == StateClosed {
		return
	}
	_ = s.transition(ctx, StateClosed, reason)
}

// Turn runs exactly one user turn. On success the user message, any tool
// exchange and the final assistant message are appended to the history in
// one step. On failure the error is reported to the sink, the history is
// left untouched and the session returns to StateAwaitingInput.
func (s *Session) Turn(ctx context.Context, input string) (*TurnResult, error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	if s.fsm.State() == StateClosed {
		return nil, ErrClosed
	}

	s.turns++
	turn := s.turns
	start := time.Now()

	var span observability.Span
	if s.observer != nil {
		ctx, span = s.observer.StartSpan(ctx, observability.SpanSessionTurn,
			observability.String(observability.AttrSessionID, s.id),
			observability.Int(observability.AttrSessionTurn, turn),
		)
		ctx = observability.ContextWithObserver(ctx, s.observer)
		defer span.End()
	}

	result, err := s.runTurn(ctx, input)

	if s.observer != nil {
		s.recordTurn(ctx, span, turn, time.Since(start), result, err)
	}
	return result, err
}

func (s *Session) runTurn(ctx context.Context, input string) (*TurnResult, error) {
	history, err := s.memory.AllMessages(ctx)
	if err != nil {
		err = fmt.Errorf("loading history: %w", err)
		s.sink.ReportError(err)
		return nil, err
	}

	if err := s.transition(ctx, StateDispatching, "user input"); err != nil {
		return nil, err
	}

	result := &TurnResult{}
	pending := []ai.Message{{Role: ai.RoleUser, Content: input}}
	started := false

	for {
		stream, err := s.completer.Stream(ctx, slices.Concat(history, pending), s.tools.Descriptors())
		if err != nil {
			return nil, s.abort(ctx, ai.TransportError(err))
		}

		if err := s.transition(ctx, StateStreaming, "stream opened"); err != nil {
			return nil, err
		}

		var content strings.Builder
		var toolCalls ai.ToolCallAccumulator

		for event, err := range stream.Iter() {
			if err != nil {
				return nil, s.abort(ctx, ai.StreamError(err))
			}

			if event.Role != "" && !started {
				started = true
				s.sink.StartMessage(event.Role)
			}

			switch event.Type {
			case ai.StreamEventContent:
				if event.Content == "" {
					continue
				}
				if !started {
					started = true
					s.sink.StartMessage(ai.RoleAssistant)
				}
				s.sink.Emit(event.Content)
				content.WriteString(event.Content)
			case ai.StreamEventToolCall:
				toolCalls.Add(event.ToolCall)
			case ai.StreamEventUsage:
				result.Usage.Add(event.Usage)
			}
		}

		calls := toolCalls.ToolCalls()
		if len(calls) == 0 {
			result.Content = content.String()
			break
		}

		if result.ToolRounds >= s.maxToolRounds {
			return nil, s.abort(ctx, toolRoundsExceeded(s.maxToolRounds))
		}

		if err := s.transition(ctx, StateToolInvocation, "tool calls requested"); err != nil {
			return nil, err
		}
		result.ToolRounds++

		for i := range calls {
			if calls[i].ID == "" {
				calls[i].ID = "call_" + uuid.NewString()
			}
			if calls[i].Type == "" {
				calls[i].Type = "function"
			}
		}

		pending = append(pending, ai.Message{
			Role:      ai.RoleAssistant,
			Content:   content.String(),
			ToolCalls: calls,
		})
		for _, call := range calls {
			pending = append(pending, ai.Message{
				Role:       ai.RoleTool,
				Content:    s.invokeTool(ctx, result.ToolRounds, call),
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}

		if err := s.transition(ctx, StateDispatching, "tool results ready"); err != nil {
			return nil, err
		}
	}

	if err := s.transition(ctx, StateAppending, "stream finished"); err != nil {
		return nil, err
	}

	pending = append(pending, ai.Message{Role: ai.RoleAssistant, Content: result.Content})
	if err := s.memory.AppendMessages(ctx, pending...); err != nil {
		return nil, s.abort(ctx, fmt.Errorf("appending history: %w", err))
	}
	result.Messages = pending

	if !started {
		s.sink.StartMessage(ai.RoleAssistant)
	}
	s.sink.EndMessage()

	if err := s.transition(ctx, StateAwaitingInput, "turn complete"); err != nil {
		return nil, err
	}
	return result, nil
}

// invokeTool resolves one call and returns the ToolResult envelope sent back
// to the model. Failures become error envelopes and never abort the turn.
func (s *Session) invokeTool(ctx context.Context, round int, call ai.ToolCall) string {
	if s.observer != nil {
		var span observability.Span
		ctx, span = s.observer.StartSpan(ctx, observability.SpanToolExecution,
			observability.String(observability.AttrToolName, call.Function.Name),
			observability.String(observability.AttrToolCallID, call.ID),
			observability.Int(observability.AttrSessionToolRound, round),
		)
		defer span.End()
	}

	var result ai.ToolResult
	output, err := s.tools.InvokeJSON(ctx, call.Function.Name, call.Function.Arguments)
	if err != nil {
		result = tool.ResultFromError(err)
		if span := observability.SpanFromContext(ctx); span != nil {
			span.RecordError(err)
		}
		if s.observer != nil {
			s.observer.Warn(ctx, "tool call failed",
				observability.String(observability.AttrToolName, call.Function.Name),
				observability.String(observability.AttrErrorReason, result.Error),
				observability.Error(err),
			)
		}
	} else {
		result = ai.NewToolResultSuccess(json.RawMessage(output))
	}

	encoded, err := result.ToJSON()
	if err != nil {
		fallback, _ := ai.NewToolResultError(string(errorsx.ReasonToolResultEncoding), err.Error()).ToJSON()
		return fallback
	}
	return encoded
}

// abort reports err, returns the session to StateAwaitingInput and hands err back.
func (s *Session) abort(ctx context.Context, err error) error {
	s.sink.ReportError(err)
	if transitionErr := s.transition(ctx, StateAwaitingInput, "turn aborted"); transitionErr != nil {
		return errors.Join(err, transitionErr)
	}
	return err
}

func (s *Session) transition(ctx context.Context, to State, reason string) error {
	change, err := s.fsm.Transition(to, reason)
	if err != nil {
		return err
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventStateTransition,
			observability.String(observability.AttrSessionPreviousState, change.From.String()),
			observability.String(observability.AttrSessionState, change.To.String()),
		)
	}
	if s.observer != nil {
		s.observer.Trace(ctx, "session state changed",
			observability.String(observability.AttrSessionID, s.id),
			observability.String(observability.AttrSessionPreviousState, change.From.String()),
			observability.String(observability.AttrSessionState, change.To.String()),
			observability.String("reason", reason),
		)
	}
	return nil
}

func (s *Session) recordTurn(ctx context.Context, span observability.Span, turn int, elapsed time.Duration, result *TurnResult, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.observer.Counter(observability.MetricSessionTurnCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, status),
	)
	s.observer.Histogram(observability.MetricSessionTurnDuration).Record(ctx, elapsed.Seconds())

	if err != nil {
		reason := string(errorsx.Reason(err))
		s.observer.Counter(observability.MetricSessionTurnErrors).Add(ctx, 1,
			observability.String(observability.AttrErrorReason, reason),
		)
		span.RecordError(err)
		span.SetStatus(observability.StatusError, reason)
		s.observer.Error(ctx, "turn failed",
			observability.String(observability.AttrSessionID, s.id),
			observability.Int(observability.AttrSessionTurn, turn),
			observability.String(observability.AttrErrorReason, reason),
			observability.Error(err),
		)
		return
	}

	span.SetAttributes(
		observability.Int(observability.AttrSessionToolRound, result.ToolRounds),
		observability.Int(observability.AttrLLMTokensPrompt, result.Usage.PromptTokens),
		observability.Int(observability.AttrLLMTokensCompletion, result.Usage.CompletionTokens),
	)
	span.SetStatus(observability.StatusOK, "turn complete")
	s.observer.Info(ctx, "turn completed",
		observability.String(observability.AttrSessionID, s.id),
		observability.Int(observability.AttrSessionTurn, turn),
		observability.Int(observability.AttrSessionToolRound, result.ToolRounds),
		observability.Duration(observability.AttrDuration, elapsed),
	)
}
