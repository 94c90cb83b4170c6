package react

import (
	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/providers/ai"
)

// EventType names a step of the loop.
type EventType string

const (
	EventTurnStart  EventType = "turn_start"
	EventAssistant  EventType = "assistant_event"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// Event is one step of an agent run.
type Event interface {
	Type() EventType
	isEvent()
}

// TurnStartEvent opens turn Turn (1-based).
type TurnStartEvent struct {
	Turn int
}

// AssistantEvent wraps one event of the turn's streaming call.
type AssistantEvent struct {
	Turn  int
	Event ai.Event
}

// ToolResultEvent reports one executed tool call.
type ToolResultEvent struct {
	Turn   int
	Call   *ai.ToolCallPart
	Result *ai.ToolResultMessage
}

// DoneEvent ends a run whose last turn requested no tools.
type DoneEvent struct {
	Messages []ai.Message
	Cost     cost.Summary
}

// ErrorEvent ends a failed run. Messages is the history accumulated up to
// the failure.
type ErrorEvent struct {
	Err      error
	Messages []ai.Message
	Cost     cost.Summary
}

func (*TurnStartEvent) Type() EventType  { return EventTurnStart }
func (*AssistantEvent) Type() EventType  { return EventAssistant }
func (*ToolResultEvent) Type() EventType { return EventToolResult }
func (*DoneEvent) Type() EventType       { return EventDone }
func (*ErrorEvent) Type() EventType      { return EventError }

func (*TurnStartEvent) isEvent()  {}
func (*AssistantEvent) isEvent()  {}
func (*ToolResultEvent) isEvent() {}
func (*DoneEvent) isEvent()       {}
func (*ErrorEvent) isEvent()      {}

// Result is the outcome of a run: the messages the loop appended, in order,
// what they cost and the error that ended the run, if any.
type Result struct {
	Messages []ai.Message
	Cost     cost.Summary
	Err      error
}

// Stream is the event stream of one run.
type Stream struct {
	*ai.EventStream[Event, Result]
}

func newStream() *Stream {
	return &Stream{
		EventStream: ai.NewEventStream(isTerminal, func(event Event) Result {
			switch e := event.(type) {
			case *DoneEvent:
				return Result{Messages: e.Messages, Cost: e.Cost}
			case *ErrorEvent:
				return Result{Messages: e.Messages, Cost: e.Cost, Err: e.Err}
			default:
				return Result{}
			}
		}),
	}
}

func isTerminal(event Event) bool {
	switch event.(type) {
	case *DoneEvent, *ErrorEvent:
		return true
	default:
		return false
	}
}
