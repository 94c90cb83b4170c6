package ai

// EventType names the phase an Event belongs to.
type EventType string

const (
	EventStart     EventType = "start"
	EventPartStart EventType = "part_start"
	EventPartDelta EventType = "part_delta"
	EventPartEnd   EventType = "part_end"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// Event is one lifecycle step of a streaming call. Every event carries a
// snapshot of the assistant message as it stood when the event was emitted;
// snapshots are never mutated afterwards.
type Event interface {
	Type() EventType
	Snapshot() *AssistantMessage
	isEvent()
}

// StartEvent opens the stream with the empty draft.
type StartEvent struct {
	Message *AssistantMessage
}

// PartStartEvent announces a new part at Index.
type PartStartEvent struct {
	Index   int
	Part    Part
	Message *AssistantMessage
}

// PartDeltaEvent carries incremental text for the part at Index: visible
// text, thinking text or a raw fragment of tool-call argument JSON.
type PartDeltaEvent struct {
	Index   int
	Delta   string
	Message *AssistantMessage
}

// PartEndEvent closes the part at Index; Part is its final form.
type PartEndEvent struct {
	Index   int
	Part    Part
	Message *AssistantMessage
}

// DoneEvent terminates a call that completed.
type DoneEvent struct {
	Reason  StopReason
	Message *AssistantMessage
}

// ErrorEvent terminates a call that failed or was aborted. Message holds the
// partial result with its ErrorMessage set.
type ErrorEvent struct {
	Reason  StopReason
	Message *AssistantMessage
}

func (*StartEvent) Type() EventType     { return EventStart }
func (*PartStartEvent) Type() EventType { return EventPartStart }
func (*PartDeltaEvent) Type() EventType { return EventPartDelta }
func (*PartEndEvent) Type() EventType   { return EventPartEnd }
func (*DoneEvent) Type() EventType      { return EventDone }
func (*ErrorEvent) Type() EventType     { return EventError }

func (e *StartEvent) Snapshot() *AssistantMessage     { return e.Message }
func (e *PartStartEvent) Snapshot() *AssistantMessage { return e.Message }
func (e *PartDeltaEvent) Snapshot() *AssistantMessage { return e.Message }
func (e *PartEndEvent) Snapshot() *AssistantMessage   { return e.Message }
func (e *DoneEvent) Snapshot() *AssistantMessage      { return e.Message }
func (e *ErrorEvent) Snapshot() *AssistantMessage     { return e.Message }

func (*StartEvent) isEvent()     {}
func (*PartStartEvent) isEvent() {}
func (*PartDeltaEvent) isEvent() {}
func (*PartEndEvent) isEvent()   {}
func (*DoneEvent) isEvent()      {}
func (*ErrorEvent) isEvent()     {}

// IsTerminal reports whether e ends its stream.
func IsTerminal(e Event) bool {
	switch e.(type) {
	case *DoneEvent, *ErrorEvent:
		return true
	case *StartEvent, *PartStartEvent, *PartDeltaEvent, *PartEndEvent:
		return false
	default:
		Unreachable(e)
		return false
	}
}
