package anthropic

import (
	"slices"
	"strings"
)

// Known anthropic-beta header values. Any other beta string can be passed to
// WithBetaFeatures as well.
const (
	// BetaInterleavedThinking lets thinking blocks appear between tool calls.
	// It is requested automatically whenever thinking is enabled.
	BetaInterleavedThinking = "interleaved-thinking-2025-05-14"

	// BetaFineGrainedToolStreaming streams tool arguments without buffering
	// whole JSON values.
	BetaFineGrainedToolStreaming = "fine-grained-tool-streaming-2025-05-14"

	// BetaContextManagement enables server-side context editing.
	BetaContextManagement = "context-management-2025-06-27"
)

// betaHeaderValue returns the comma-joined anthropic-beta header, adding the
// interleaved-thinking beta when thinking is on. It is empty when no beta is
// needed.
func betaHeaderValue(configured []string, thinking bool) string {
	features := slices.Clone(configured)
	if thinking && !slices.Contains(features, BetaInterleavedThinking) {
		features = append(features, BetaInterleavedThinking)
	}
	return strings.Join(features, ",")
}
