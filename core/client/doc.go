// Package client is the entry point for streaming completions.
//
// A [Client] resolves a model from its registry, applies credentials and
// option defaults, validates tools, normalizes the conversation for the
// target model and dispatches to the backend's adapter through an optional
// middleware chain. Pre-flight problems are returned as errors; once a
// stream is open every outcome is reported through its events.
//
//	c := client.New()
//	stream, err := c.Stream(ctx, ai.BackendAnthropic, anthropic.ModelSonnet45, conversation, client.StreamOptions{})
//	if err != nil {
//	    return err
//	}
//	for event := range stream.All() {
//	    ...
//	}
package client
