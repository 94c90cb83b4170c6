// Package utils holds the transport and parsing helpers the adapters share:
// [OpenEventStream] and [SSEScanner] for the Anthropic and OpenAI
// event streams, [ParsePartialJSON] and [ParseJSONObject] for tool-call
// arguments, [SanitizeSurrogates] for streamed text, and [Preview] and
// [CompactJSON] for log and tool output.
package utils
