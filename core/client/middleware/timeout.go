package middleware

import (
	"context"
	"time"

	"github.com/leofalp/llmstream/core/client"
	"github.com/leofalp/llmstream/providers/ai"
)

// NewTimeoutMiddleware bounds each call with timeout. The deadline covers
// the complete stream, not only the time to the first byte: the derived
// context is released once the terminal event has passed. A call that runs
// out of time ends with stop reason aborted.
//
// A shorter deadline already present on the caller's context still wins.
func NewTimeoutMiddleware(timeout time.Duration) client.Middleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request client.Request) *ai.MessageStream {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			return client.Relay(next(ctx, request), func(event ai.Event) {
				if ai.IsTerminal(event) {
					cancel()
				}
			})
		}
	}
}
