package main

import (
	"fmt"
	"io"

	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/patterns/react"
	"github.com/leofalp/llmstream/providers/ai"
)

// toolOutputPreview bounds how much of a tool result is echoed.
const toolOutputPreview = 200

// renderer prints agent events as they arrive: answer text to out,
// everything else to status.
type renderer struct {
	out          io.Writer
	status       io.Writer
	showThinking bool
	midLine      bool
}

func newRenderer(out, status io.Writer, showThinking bool) *renderer {
	return &renderer{out: out, status: status, showThinking: showThinking}
}

func (r *renderer) render(event react.Event) {
	switch e := event.(type) {
	case *react.TurnStartEvent:
		if e.Turn > 1 {
			r.newline()
		}
	case *react.AssistantEvent:
		r.renderAssistant(e.Event)
	case *react.ToolResultEvent:
		r.newline()
		marker := "→"
		if e.Result.IsError {
			marker = "✗"
		}
		fmt.Fprintf(r.status, "[%s %s] %s\n", marker, e.Result.ToolName, utils.Preview(e.Result.Content, toolOutputPreview))
	case *react.DoneEvent, *react.ErrorEvent:
		r.newline()
	}
}

func (r *renderer) renderAssistant(event ai.Event) {
	switch e := event.(type) {
	case *ai.PartDeltaEvent:
		switch e.Message.Parts[e.Index].(type) {
		case *ai.TextPart:
			fmt.Fprint(r.out, e.Delta)
			r.midLine = true
		case *ai.ThinkingPart:
			if r.showThinking {
				fmt.Fprint(r.status, e.Delta)
			}
		}
	case *ai.PartEndEvent:
		if call, ok := e.Part.(*ai.ToolCallPart); ok {
			r.newline()
			fmt.Fprintf(r.status, "[call %s] %v\n", call.Name, call.Args)
		}
		if _, ok := e.Part.(*ai.ThinkingPart); ok && r.showThinking {
			fmt.Fprintln(r.status)
		}
	}
}

func (r *renderer) newline() {
	if r.midLine {
		fmt.Fprintln(r.out)
		r.midLine = false
	}
}

func (r *renderer) summary(result react.Result) {
	var usage ai.Usage
	for _, message := range result.Messages {
		if assistant, ok := message.(*ai.AssistantMessage); ok {
			usage.Input += assistant.Usage.Input
			usage.Output += assistant.Usage.Output
			usage.CacheRead += assistant.Usage.CacheRead
			usage.CacheWrite += assistant.Usage.CacheWrite
		}
	}

	fmt.Fprintf(r.status, "tokens: %d in, %d out, %d cache read, %d cache write; cost: $%.6f\n",
		usage.Input, usage.Output, usage.CacheRead, usage.CacheWrite, result.Cost.TotalCost())
	if result.Err != nil {
		fmt.Fprintf(r.status, "error: %v\n", result.Err)
	}
}
