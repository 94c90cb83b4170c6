package ai

import (
	"context"

	"github.com/leofalp/llmstream/core/cost"
)

// StreamProvider is implemented by every backend adapter. Stream never
// fails synchronously: it returns immediately and reports everything,
// transport errors included, through the events of the returned stream,
// which always ends with exactly one DoneEvent or ErrorEvent.
type StreamProvider interface {
	Backend() Backend
	Stream(ctx context.Context, model Model, conversation NormalizedConversation, options ResolvedOptions) *MessageStream
}

// ResolvedOptions are the per-call settings after defaults and credentials
// have been applied.
type ResolvedOptions struct {
	APIKey          string
	MaxTokens       int
	ReasoningEffort ReasoningEffort
	// Temperature is omitted from the request when nil.
	Temperature *float64
	ServiceTier cost.ServiceTier
	// SessionID is forwarded to backends that support prompt-cache affinity.
	SessionID string
	Debug     DebugSink
}
