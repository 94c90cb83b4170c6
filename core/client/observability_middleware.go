package client

import (
	"context"
	"sync"
	"time"

	"github.com/leofalp/llmstream/providers/ai"
	"github.com/leofalp/llmstream/providers/observability"
)

// NewObservabilityMiddleware records a client span, stream counters and
// token metrics for every call. The span and the observer are injected into
// the context so adapters can attach child spans and trace logs.
//
// Completion metrics are deferred until the terminal event: the span stays
// open for the whole life of the stream.
func NewObservabilityMiddleware(observer observability.Provider) Middleware {
	return func(next StreamFunc) StreamFunc {
		return func(ctx context.Context, request Request) *ai.MessageStream {
			modelAttrs := []observability.Attribute{
				observability.String(observability.AttrLLMProvider, string(request.Model.Backend)),
				observability.String(observability.AttrLLMModel, request.Model.ID),
			}

			ctx = observability.ContextWithObserver(ctx, observer)
			ctx, span := observer.StartSpan(ctx, observability.SpanClientStream, modelAttrs...)
			ctx = observability.ContextWithSpan(ctx, span)

			observer.Debug(ctx, "llm stream",
				append(modelAttrs,
					observability.Int(observability.AttrRequestMessagesCount, len(request.Conversation.Messages)),
					observability.Int(observability.AttrRequestToolsCount, len(request.Conversation.Tools)),
				)...,
			)

			start := time.Now()
			var firstEvent sync.Once
			return Relay(next(ctx, request), func(event ai.Event) {
				if event.Type() != ai.EventStart {
					firstEvent.Do(func() {
						observer.Histogram(observability.MetricStreamFirstEventSec).Record(ctx, time.Since(start).Seconds(), modelAttrs...)
					})
				}
				if ai.IsTerminal(event) {
					recordCompletion(ctx, observer, span, event.Snapshot(), time.Since(start), modelAttrs)
				}
			})
		}
	}
}

func recordCompletion(ctx context.Context, observer observability.Provider, span observability.Span, message *ai.AssistantMessage, elapsed time.Duration, modelAttrs []observability.Attribute) {
	defer span.End()

	status := "success"
	if message.StopReason.IsFailure() {
		status = string(message.StopReason)
	}
	statusAttrs := append([]observability.Attribute{observability.String(observability.AttrStatus, status)}, modelAttrs...)

	observer.Counter(observability.MetricStreamCount).Add(ctx, 1, statusAttrs...)
	observer.Counter(observability.MetricTokensInput).Add(ctx, int64(message.Usage.Input+message.Usage.CacheRead+message.Usage.CacheWrite), modelAttrs...)
	observer.Counter(observability.MetricTokensOutput).Add(ctx, int64(message.Usage.Output), modelAttrs...)

	span.SetAttributes(
		observability.String(observability.AttrLLMStopReason, string(message.StopReason)),
		observability.String(observability.AttrLLMResponseID, message.ResponseID),
		observability.Int(observability.AttrLLMTokensTotal, message.Usage.Total),
		observability.Float64(observability.AttrLLMCostTotal, message.Usage.Cost.Total),
		observability.Int(observability.AttrStreamPartCount, len(message.Parts)),
	)

	if message.StopReason.IsFailure() {
		observer.Counter(observability.MetricStreamErrors).Add(ctx, 1, statusAttrs...)
		span.SetStatus(observability.StatusError, message.ErrorMessage)
		observer.Error(ctx, "llm stream failed",
			observability.String(observability.AttrLLMStopReason, string(message.StopReason)),
			observability.String(observability.AttrError, message.ErrorMessage),
			observability.Duration(observability.AttrDuration, elapsed),
		)
		return
	}

	span.SetStatus(observability.StatusOK, "")
	observer.Info(ctx, "llm stream completed",
		observability.String(observability.AttrLLMModel, message.Model),
		observability.String(observability.AttrLLMStopReason, string(message.StopReason)),
		observability.Int(observability.AttrLLMTokensTotal, message.Usage.Total),
		observability.Duration(observability.AttrDuration, elapsed),
	)
}
