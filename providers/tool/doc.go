// Package tool provides the registry of callable tools offered to the model.
//
// A [Definition] binds a name, a description and an ordered parameter list
// to a [Func]. Definitions are added to a [Registry] at startup with
// [Registry.Register]; the registry advertises them through
// [Registry.Descriptors] and runs them by exact name with [Registry.Invoke]
// (positional arguments) or [Registry.InvokeJSON] (a JSON object of named
// arguments as emitted by a model).
//
// Every failure is an [*Error] whose Kind matches one of the sentinels
// [ErrUnknownTool], [ErrArgumentMismatch], [ErrExecutionFailure],
// [ErrDuplicateTool] or [ErrInvalidDefinition] through errors.Is.
// [ResultFromError] turns such an error into the envelope sent back to the
// model instead of aborting the conversation.
package tool
