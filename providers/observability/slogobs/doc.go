// Package slogobs provides an observability.Provider backed by log/slog.
// Spans and metric updates are emitted as debug records, log calls map onto
// slog levels (with an extra TRACE level below DEBUG), and counters keep
// their running totals in memory so callers can read them back.
//
// The main entry point is [New]; output format and level can be tuned with
// [WithFormat], [WithLevel], [WithOutput] and [WithLogger], or through the
// LLMSTREAM_LOG_FORMAT and LLMSTREAM_LOG_LEVEL environment variables.
package slogobs
