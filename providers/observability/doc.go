// Package observability defines the interfaces and semantic conventions used
// for tracing, metrics and structured logging across mathchat.
//
// [Provider] composes [Tracer], [Metrics] and [Logger] into one injectable
// dependency. The active [Provider] and [Span] travel through a
// [context.Context] via [ContextWithObserver] and [ContextWithSpan]; transport
// and tool code enrich whatever span they find there with [SpanFromContext].
//
// semconv.go holds the attribute, span, event and metric names.
package observability
