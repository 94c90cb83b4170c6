package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/llmstream/core/client"
	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/ai"
)

// LogLevel controls how much detail the logging middleware emits per call.
type LogLevel int

const (
	// LogLevelMinimal logs the model, the duration and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the message count and the stop reason.
	LogLevelStandard

	// LogLevelVerbose adds the last user message and the response text,
	// each truncated to 500 characters.
	//
	// WARNING: DO NOT use LogLevelVerbose in production. It logs raw prompt
	// and response text, which may contain sensitive user data.
	LogLevelVerbose
)

// NewLoggingMiddleware logs an entry when a stream opens and one when its
// terminal event passes: "llm stream completed" for done streams and
// "llm stream failed" for error or aborted ones.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.Middleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request client.Request) *ai.MessageStream {
			logger.InfoContext(ctx, "llm stream", requestAttrs(request, level)...)

			start := time.Now()
			return client.Relay(next(ctx, request), func(event ai.Event) {
				if !ai.IsTerminal(event) {
					return
				}
				message := event.Snapshot()
				attrs := responseAttrs(request, message, time.Since(start), level)
				if message.StopReason.IsFailure() {
					logger.ErrorContext(ctx, "llm stream failed", append(attrs, slog.String("error", message.ErrorMessage))...)
					return
				}
				logger.InfoContext(ctx, "llm stream completed", attrs...)
			})
		}
	}
}

func requestAttrs(request client.Request, level LogLevel) []any {
	attrs := []any{
		slog.String("backend", string(request.Model.Backend)),
		slog.String("model", request.Model.ID),
	}

	if level >= LogLevelStandard {
		attrs = append(attrs,
			slog.Int("message_count", len(request.Conversation.Messages)),
			slog.String("reasoning_effort", string(request.Options.ReasoningEffort)),
		)
	}

	if level >= LogLevelVerbose {
		if text, ok := lastUserText(request.Conversation.Messages); ok {
			attrs = append(attrs, slog.String("last_user_message", utils.Preview(text, 0)))
		}
	}

	return attrs
}

func responseAttrs(request client.Request, message *ai.AssistantMessage, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", request.Model.ID),
		slog.Duration("duration", elapsed),
		slog.Int("input_tokens", message.Usage.Input),
		slog.Int("output_tokens", message.Usage.Output),
		slog.Int("total_tokens", message.Usage.Total),
	}

	if level >= LogLevelStandard {
		attrs = append(attrs, slog.String("stop_reason", string(message.StopReason)))
	}

	if level >= LogLevelVerbose {
		if text := message.Text(); text != "" {
			attrs = append(attrs, slog.String("response_content", utils.Preview(text, 0)))
		}
	}

	return attrs
}

func lastUserText(messages []ai.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if user, ok := messages[i].(*ai.UserMessage); ok {
			return user.Text, true
		}
	}
	return "", false
}
