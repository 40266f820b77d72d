package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/leofalp/mathchat/core/parse"
	"github.com/leofalp/mathchat/providers/ai"
	"github.com/leofalp/mathchat/providers/observability"
)

// Registry holds the tools available to a session, keyed by exact name.
// It is populated at startup and read during the session; all methods are
// safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Definition
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Definition),
	}
}

// Register adds a tool. It fails with ErrDuplicateTool when the name is
// taken and with ErrInvalidDefinition for an empty name, a nil function, an
// unknown parameter type or repeated parameter names.
func (r *Registry) Register(definition Definition) error {
	if err := validateDefinition(definition); err != nil {
		return newError(KindInvalidDefinition, definition.Name, err)
	}

	// The registry keeps its own copy so later edits by the caller have no effect
	definition.Parameters = slices.Clone(definition.Parameters)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[definition.Name]; exists {
		return newError(KindDuplicateTool, definition.Name, nil)
	}
	r.tools[definition.Name] = &definition
	r.order = append(r.order, definition.Name)
	return nil
}

// MustRegister is like Register but panics on error. It is meant for static
// registration at program start.
func (r *Registry) MustRegister(definitions ...Definition) *Registry {
	for _, definition := range definitions {
		if err := r.Register(definition); err != nil {
			panic(err)
		}
	}
	return r
}

func validateDefinition(definition Definition) error {
	if strings.TrimSpace(definition.Name) == "" {
		return errors.New("name is empty")
	}
	if definition.Func == nil {
		return errors.New("function is nil")
	}
	seen := make(map[string]bool, len(definition.Parameters))
	for _, param := range definition.Parameters {
		if param.Name == "" {
			return errors.New("parameter name is empty")
		}
		if seen[param.Name] {
			return fmt.Errorf("parameter %q declared twice", param.Name)
		}
		if !param.Type.Valid() {
			return fmt.Errorf("parameter %q has unsupported type %q", param.Name, param.Type)
		}
		seen[param.Name] = true
	}
	return nil
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	definition, ok := r.tools[name]
	if !ok {
		return Definition{}, false
	}
	return *definition, true
}

// Has reports whether a tool named name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Size returns the number of registered tools.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Descriptors returns the tool descriptors in registration order.
func (r *Registry) Descriptors() []ai.ToolDescription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]ai.ToolDescription, 0, len(r.order))
	for _, name := range r.order {
		descriptors = append(descriptors, r.tools[name].ToolInfo())
	}
	return descriptors
}

// Invoke calls the tool named name with positional arguments. Arguments are
// validated against the declared parameters and coerced when that loses no
// information (e.g. 3.0 or "3" for an integer). Function errors and panics
// are reported as ErrExecutionFailure.
func (r *Registry) Invoke(ctx context.Context, name string, args []any) (any, error) {
	r.mu.RLock()
	definition, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, newError(KindUnknownTool, name, nil)
	}

	if len(args) != len(definition.Parameters) {
		return nil, newError(KindArgumentMismatch, name,
			fmt.Errorf("expected %d arguments, got %d", len(definition.Parameters), len(args)))
	}

	coerced := make([]any, len(args))
	for i, param := range definition.Parameters {
		value, err := coerce(param.Type, args[i])
		if err != nil {
			return nil, newError(KindArgumentMismatch, name, fmt.Errorf("parameter %q: %w", param.Name, err))
		}
		coerced[i] = value
	}

	return execute(ctx, definition, coerced)
}

// InvokeJSON calls a tool with a JSON object of named arguments, as emitted
// by a model, and returns the JSON-encoded result. Malformed JSON is
// repaired when possible; missing or unexpected fields are ErrArgumentMismatch.
func (r *Registry) InvokeJSON(ctx context.Context, name string, argumentsJSON string) (string, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventToolExecutionStart,
			observability.String(observability.AttrToolName, name),
			observability.String(observability.AttrToolInput, argumentsJSON),
		)
		defer span.AddEvent(observability.EventToolExecutionEnd,
			observability.String(observability.AttrToolName, name),
		)
	}

	start := time.Now()
	output, err := r.invokeJSON(ctx, name, argumentsJSON)
	duration := time.Since(start)

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		status := "ok"
		if err != nil {
			status = ResultFromError(err).Error
		}
		observer.Counter(observability.MetricToolInvocationCount).Add(ctx, 1,
			observability.String(observability.AttrToolName, name),
			observability.String(observability.AttrStatus, status),
		)
	}

	if span != nil {
		if err != nil {
			span.SetAttributes(
				observability.String(observability.AttrToolError, err.Error()),
				observability.Duration(observability.AttrToolDuration, duration),
			)
		} else {
			span.SetAttributes(
				observability.String(observability.AttrToolOutput, output),
				observability.Duration(observability.AttrToolDuration, duration),
			)
		}
	}

	return output, err
}

func (r *Registry) invokeJSON(ctx context.Context, name string, argumentsJSON string) (string, error) {
	r.mu.RLock()
	definition, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", newError(KindUnknownTool, name, nil)
	}

	args, err := decodeArguments(definition, argumentsJSON)
	if err != nil {
		return "", newError(KindArgumentMismatch, name, err)
	}

	result, err := r.Invoke(ctx, name, args)
	if err != nil {
		return "", err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return "", newError(KindExecutionFailure, name, fmt.Errorf("encoding result: %w", err))
	}
	return string(encoded), nil
}

// decodeArguments maps a JSON object onto the declared positional order.
func decodeArguments(definition *Definition, argumentsJSON string) ([]any, error) {
	if strings.TrimSpace(argumentsJSON) == "" {
		argumentsJSON = "{}"
	}

	fields, err := parse.ParseStringAs[map[string]json.RawMessage](argumentsJSON)
	if err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}

	declared := make(map[string]bool, len(definition.Parameters))
	args := make([]any, len(definition.Parameters))
	for i, param := range definition.Parameters {
		declared[param.Name] = true

		raw, ok := fields[param.Name]
		if !ok {
			return nil, fmt.Errorf("missing argument %q", param.Name)
		}
		value, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", param.Name, err)
		}
		args[i] = value
	}

	var unexpected []string
	for field := range fields {
		if !declared[field] {
			unexpected = append(unexpected, field)
		}
	}
	if len(unexpected) > 0 {
		slices.Sort(unexpected)
		return nil, fmt.Errorf("unexpected arguments %q", unexpected)
	}

	return args, nil
}

// decodeValue decodes one argument, keeping numbers as json.Number and
// unwrapping {"type": ..., "value": ...} objects some models send.
func decodeValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if unwrapped, err := parse.UnwrapSchemaValues(string(trimmed)); err == nil {
			trimmed = []byte(unwrapped)
		}
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

// execute runs the function, converting errors and panics into ErrExecutionFailure.
func execute(ctx context.Context, definition *Definition, args []any) (result any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = nil
			err = newError(KindExecutionFailure, definition.Name, fmt.Errorf("panic: %v", recovered))
		}
	}()

	result, err = definition.Func(ctx, args)
	if err != nil {
		return nil, newError(KindExecutionFailure, definition.Name, err)
	}
	return result, nil
}
