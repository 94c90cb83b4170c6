package react

import (
	"context"
	"fmt"
	"time"

	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/ai"
	"github.com/leofalp/llmstream/providers/observability"
)

// execute runs handler for call and turns its outcome into the tool result
// sent back to the model.
func execute(ctx context.Context, handler Handler, call *ai.ToolCallPart) *ai.ToolResultMessage {
	ctx, span := observability.StartSpan(ctx, observability.SpanToolExecute,
		observability.String(observability.AttrToolName, call.Name),
		observability.String(observability.AttrToolCallID, call.ID),
	)
	if span != nil {
		defer span.End()
	}

	start := time.Now()
	value, err := invoke(ctx, handler, call.Args)
	elapsed := time.Since(start)

	result := &ai.ToolResultMessage{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Timestamp:  time.Now(),
	}
	if err != nil {
		result.Content = err.Error()
		result.IsError = true
	} else {
		result.Content = stringify(value)
	}

	recordExecution(ctx, span, call, result, elapsed)
	return result
}

// invoke calls handler, converting a panic into an error.
func invoke(ctx context.Context, handler Handler, args map[string]any) (value any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tool panicked: %v", p)
		}
	}()
	if args == nil {
		args = map[string]any{}
	}
	return handler(ctx, args)
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return utils.CompactJSON(value)
}

func recordExecution(ctx context.Context, span observability.Span, call *ai.ToolCallPart, result *ai.ToolResultMessage, elapsed time.Duration) {
	observer := observability.ObserverFromContext(ctx)
	if observer == nil {
		return
	}

	status := "success"
	if result.IsError {
		status = "error"
	}
	attrs := []observability.Attribute{
		observability.String(observability.AttrToolName, call.Name),
		observability.String(observability.AttrStatus, status),
	}
	observer.Counter(observability.MetricToolExecutions).Add(ctx, 1, attrs...)
	observer.Histogram(observability.MetricToolDuration).Record(ctx, elapsed.Seconds(), attrs...)

	if span != nil {
		span.SetAttributes(observability.Duration(observability.AttrToolDuration, elapsed))
	}

	if result.IsError {
		if span != nil {
			span.SetStatus(observability.StatusError, result.Content)
		}
		observer.Warn(ctx, "tool execution failed",
			observability.String(observability.AttrToolName, call.Name),
			observability.String(observability.AttrToolError, result.Content),
			observability.Duration(observability.AttrToolDuration, elapsed),
		)
		return
	}

	observer.Debug(ctx, "tool executed",
		observability.String(observability.AttrToolName, call.Name),
		observability.String(observability.AttrToolOutput, utils.Preview(result.Content, 0)),
		observability.Duration(observability.AttrToolDuration, elapsed),
	)
}
