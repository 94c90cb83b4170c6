package ai

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/leofalp/llmstream/core/cost"
)

// DefaultAbortMessage is the error message of an aborted call that did not
// record a more specific one.
const DefaultAbortMessage = "Request was aborted"

// StreamController owns the draft message of exactly one call and is the
// only way to mutate it. Every operation both updates the draft and emits the
// matching event with a snapshot of the draft. Adapters accumulate text into
// the parts they added themselves, then report the increment with Delta.
//
// A controller is used from a single goroutine. After Finish or Fail the
// message is frozen and every further call is a no-op.
type StreamController struct {
	ctx    context.Context
	model  Model
	tier   cost.ServiceTier
	stream *MessageStream

	draft   *AssistantMessage
	open    map[int]bool
	started bool
	frozen  bool
}

// NewStreamController creates a controller for one call to model. ctx is the
// call's cancellation token; tier only affects cost on tiered backends.
func NewStreamController(ctx context.Context, model Model, tier cost.ServiceTier) *StreamController {
	return &StreamController{
		ctx:    ctx,
		model:  model,
		tier:   tier,
		stream: NewMessageStream(),
		draft: &AssistantMessage{
			Backend:   model.Backend,
			Model:     model.ID,
			Parts:     []Part{},
			Timestamp: time.Now(),
		},
		open: map[int]bool{},
	}
}

// Stream returns the stream the controller emits into.
func (c *StreamController) Stream() *MessageStream {
	return c.stream
}

// Start emits the StartEvent. It is emitted at most once.
func (c *StreamController) Start() {
	if c.frozen || c.started {
		return
	}
	c.started = true
	c.stream.Push(&StartEvent{Message: c.draft.Clone()})
}

// AddPart appends part to the draft and returns its stable index. The
// controller keeps the pointer: the adapter accumulates content into part
// directly.
func (c *StreamController) AddPart(part Part) int {
	if c.frozen {
		return -1
	}
	c.Start()
	c.draft.Parts = append(c.draft.Parts, part)
	index := len(c.draft.Parts) - 1
	c.open[index] = true
	c.stream.Push(&PartStartEvent{Index: index, Part: ClonePart(part), Message: c.draft.Clone()})
	return index
}

// Delta reports an increment of the open part at index.
func (c *StreamController) Delta(index int, delta string) {
	if c.frozen || !c.open[index] {
		return
	}
	c.stream.Push(&PartDeltaEvent{Index: index, Delta: delta, Message: c.draft.Clone()})
}

// EndPart closes the part at index.
func (c *StreamController) EndPart(index int) {
	if c.frozen || !c.open[index] {
		return
	}
	delete(c.open, index)
	c.stream.Push(&PartEndEvent{Index: index, Part: ClonePart(c.draft.Parts[index]), Message: c.draft.Clone()})
}

// SetUsage replaces the usage snapshot, recomputing its cost from the bound
// model and tier.
func (c *StreamController) SetUsage(tokens cost.Tokens) {
	if c.frozen {
		return
	}
	c.draft.Usage = Usage{
		Input:      tokens.Input,
		Output:     tokens.Output,
		CacheRead:  tokens.CacheRead,
		CacheWrite: tokens.CacheWrite,
		Total:      tokens.Total(),
		Cost:       CalculateCost(c.model, tokens, c.tier),
	}
}

// SetStopReason records the stop reason; the last write wins.
func (c *StreamController) SetStopReason(reason StopReason) {
	if c.frozen {
		return
	}
	c.draft.StopReason = reason
}

// SetErrorMessage records a human-readable failure description.
func (c *StreamController) SetErrorMessage(message string) {
	if c.frozen {
		return
	}
	c.draft.ErrorMessage = message
}

// SetResponseID records the vendor's response identifier.
func (c *StreamController) SetResponseID(id string) {
	if c.frozen {
		return
	}
	c.draft.ResponseID = id
}

// Finish completes the call: a cancelled context forces stop reason aborted,
// a missing stop reason defaults to stop, and stop becomes tool_use when the
// message holds a tool call. It then freezes the message and emits the
// single terminal event.
func (c *StreamController) Finish() {
	if c.frozen {
		return
	}
	if c.ctx.Err() != nil {
		c.draft.StopReason = StopReasonAborted
		if c.draft.ErrorMessage == "" {
			c.draft.ErrorMessage = DefaultAbortMessage
		}
	}
	if c.draft.StopReason == "" {
		c.draft.StopReason = StopReasonStop
	}
	c.freeze()
}

// Fail completes the call after the adapter's driving loop failed. The stop
// reason is aborted when the context was cancelled and error otherwise.
func (c *StreamController) Fail(err error) {
	if c.frozen {
		return
	}
	if c.ctx.Err() != nil {
		c.draft.StopReason = StopReasonAborted
	} else {
		c.draft.StopReason = StopReasonError
	}
	switch {
	case err != nil:
		c.draft.ErrorMessage = err.Error()
	case c.draft.ErrorMessage == "" && c.draft.StopReason == StopReasonAborted:
		c.draft.ErrorMessage = DefaultAbortMessage
	case c.draft.ErrorMessage == "":
		c.draft.ErrorMessage = "unknown error"
	}
	c.freeze()
}

func (c *StreamController) freeze() {
	c.Start()

	for _, index := range sortedOpen(c.open) {
		c.EndPart(index)
	}

	if c.draft.StopReason == StopReasonStop && len(c.draft.ToolCalls()) > 0 {
		c.draft.StopReason = StopReasonToolUse
	}

	c.draft.Parts = slices.DeleteFunc(c.draft.Parts, func(part Part) bool {
		thinking, ok := part.(*ThinkingPart)
		return ok && thinking.Metadata == nil
	})

	c.frozen = true
	final := c.draft.Clone()
	if final.StopReason.IsFailure() {
		c.stream.Push(&ErrorEvent{Reason: final.StopReason, Message: final})
	} else {
		c.stream.Push(&DoneEvent{Reason: final.StopReason, Message: final})
	}
}

// Drive runs one adapter call in its own goroutine and returns its stream.
// drive feeds the controller from the vendor wire stream; a nil return
// finishes the call, an error or a panic fails it. Exactly one terminal
// event is emitted either way.
func Drive(ctx context.Context, model Model, tier cost.ServiceTier, drive func(ctx context.Context, controller *StreamController) error) *MessageStream {
	controller := NewStreamController(ctx, model, tier)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				controller.Fail(fmt.Errorf("internal error: %v", r))
			}
		}()

		controller.Start()
		if err := drive(ctx, controller); err != nil {
			controller.Fail(err)
			return
		}
		controller.Finish()
	}()
	return controller.Stream()
}

func sortedOpen(open map[int]bool) []int {
	indices := make([]int, 0, len(open))
	for index := range open {
		indices = append(indices, index)
	}
	slices.Sort(indices)
	return indices
}
