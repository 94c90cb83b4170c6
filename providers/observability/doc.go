// Package observability defines the tracing, metrics and logging interfaces
// used throughout llmstream, together with the attribute keys, span names and
// metric names shared by every component.
//
// A [Provider] composes [Tracer], [Metrics] and [Logger]. Components never
// hold a Provider directly: it travels in a [context.Context], attached with
// [ContextWithObserver] and read back with [ObserverFromContext]. The active
// [Span] travels the same way via [ContextWithSpan] and [SpanFromContext].
// Both lookups return nil when nothing is attached, and callers are expected
// to skip instrumentation in that case.
package observability
