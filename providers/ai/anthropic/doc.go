// Package anthropic streams completions from Anthropic's Messages API.
//
// The adapter posts a stream=true request and folds the SSE block protocol
// (message_start, content_block_start/delta/stop, message_delta,
// message_stop) into the unified part sequence of an [ai.StreamController].
// Thinking signatures and redacted thinking data are kept as part metadata so
// a later turn to the same model can replay them verbatim.
//
// [New] returns a provider with the public endpoint; [WithBaseURL],
// [WithHTTPClient] and [WithBetaFeatures] adjust it. The endpoint can also be
// overridden per model or through ANTHROPIC_API_BASE_URL.
package anthropic
