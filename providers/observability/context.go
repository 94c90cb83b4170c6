package observability

import "context"

type spanContextKey struct{}

type observerContextKey struct{}

// SpanFromContext extracts a Span from the context.
// Returns nil if no span is present.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanContextKey{}).(Span)
	return span
}

// ContextWithSpan returns a new context with the given span attached.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanContextKey{}, span)
}

// ObserverFromContext extracts the Provider attached to ctx, or nil.
func ObserverFromContext(ctx context.Context) Provider {
	if ctx == nil {
		return nil
	}
	provider, _ := ctx.Value(observerContextKey{}).(Provider)
	return provider
}

// ContextWithObserver returns a new context carrying provider.
func ContextWithObserver(ctx context.Context, provider Provider) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, observerContextKey{}, provider)
}

// StartSpan starts a span on the Provider found in ctx and returns a context
// carrying it. Without a Provider it returns ctx unchanged and a nil Span.
func StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	provider := ObserverFromContext(ctx)
	if provider == nil {
		return ctx, nil
	}
	spanCtx, span := provider.StartSpan(ctx, name, attrs...)
	return ContextWithSpan(spanCtx, span), span
}

// RecordFailure records err on span and marks it failed. A nil span is
// ignored.
func RecordFailure(span Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(StatusError, err.Error())
}
