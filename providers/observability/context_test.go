package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSpan struct {
	name   string
	events []string
}

func (s *recordingSpan) End()                                  {}
func (s *recordingSpan) SetAttributes(...Attribute)            {}
func (s *recordingSpan) SetStatus(StatusCode, string)          {}
func (s *recordingSpan) RecordError(error)                     {}
func (s *recordingSpan) AddEvent(name string, _ ...Attribute) { s.events = append(s.events, name) }

type recordingProvider struct {
	Provider
	started []string
}

func (p *recordingProvider) StartSpan(ctx context.Context, name string, _ ...Attribute) (context.Context, Span) {
	p.started = append(p.started, name)
	return ctx, &recordingSpan{name: name}
}

func TestSpanFromContext(t *testing.T) {
	assert.Nil(t, SpanFromContext(context.Background()))

	span := &recordingSpan{name: "s"}
	ctx := ContextWithSpan(context.Background(), span)
	assert.Same(t, span, SpanFromContext(ctx))

	other := &recordingSpan{name: "other"}
	assert.Same(t, other, SpanFromContext(ContextWithSpan(ctx, other)))
	assert.Same(t, span, SpanFromContext(ctx))
}

func TestObserverFromContext(t *testing.T) {
	assert.Nil(t, ObserverFromContext(context.Background()))

	provider := &recordingProvider{}
	ctx := ContextWithObserver(context.Background(), provider)
	assert.Same(t, provider, ObserverFromContext(ctx))
}

func TestStartSpan_WithoutObserverIsNoop(t *testing.T) {
	ctx := context.Background()
	spanCtx, span := StartSpan(ctx, SpanLLMStream)

	assert.Nil(t, span)
	assert.Equal(t, ctx, spanCtx)
}

func TestStartSpan_AttachesSpanToContext(t *testing.T) {
	provider := &recordingProvider{}
	ctx := ContextWithObserver(context.Background(), provider)

	spanCtx, span := StartSpan(ctx, SpanAgentRun)

	require.NotNil(t, span)
	assert.Equal(t, []string{SpanAgentRun}, provider.started)
	assert.Same(t, span, SpanFromContext(spanCtx))
}
