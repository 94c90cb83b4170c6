// Package react implements the multi-turn tool loop (Reason + Act) on top of
// the core client. Each turn streams one assistant message; every tool call
// in it is answered by a caller-supplied [Handler], in call order, and the
// results are sent back on the next turn. The loop ends when a turn holds no
// tool calls, when a call fails, when the model asks for an unknown tool or
// when the turn limit is reached.
//
// The main entry point is [New]; [Agent.Run] returns a [Stream] of loop
// events whose result is the history the loop accumulated.
//
//	agent := react.New(c, ai.BackendAnthropic, "claude-sonnet-4-5", handlers, react.WithMaxTurns(5))
//	stream := agent.Run(ctx, conversation)
//	for event := range stream.All() {
//	    if e, ok := event.(*react.ToolResultEvent); ok {
//	        fmt.Println(e.Result.ToolName, e.Result.Content)
//	    }
//	}
//	result, _ := stream.Result(ctx)
package react
