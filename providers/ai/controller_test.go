package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/llmstream/core/cost"
)

var testModel = Model{
	ID:      "test-model",
	Backend: BackendOpenAI,
	Pricing: cost.ModelCost{InputCostPerMillion: 2, OutputCostPerMillion: 12, CachedInputCostPerMillion: 0.2},
}

func drain(t *testing.T, stream *MessageStream) []Event {
	t.Helper()
	var events []Event
	for event := range stream.All() {
		events = append(events, event)
	}
	return events
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, event := range events {
		types[i] = event.Type()
	}
	return types
}

func TestStreamController_TextDeltasAccumulate(t *testing.T) {
	controller := NewStreamController(context.Background(), testModel, cost.TierDefault)
	controller.Start()

	part := &TextPart{}
	index := controller.AddPart(part)
	for _, delta := range []string{"Hello", " world"} {
		part.Text += delta
		controller.Delta(index, delta)
	}
	controller.EndPart(index)
	controller.Finish()

	events := drain(t, controller.Stream())
	assert.Equal(t, []EventType{EventStart, EventPartStart, EventPartDelta, EventPartDelta, EventPartEnd, EventDone}, eventTypes(events))

	final, err := controller.Stream().ResultOrError(context.Background())
	require.NoError(t, err)
	require.Len(t, final.Parts, 1)
	assert.Equal(t, "Hello world", final.Parts[0].(*TextPart).Text)
	assert.Equal(t, StopReasonStop, final.StopReason)
	assert.Equal(t, BackendOpenAI, final.Backend)
	assert.Equal(t, "test-model", final.Model)
}

func TestStreamController_SnapshotsAreIsolated(t *testing.T) {
	controller := NewStreamController(context.Background(), testModel, cost.TierDefault)

	part := &TextPart{}
	index := controller.AddPart(part)
	part.Text = "a"
	controller.Delta(index, "a")
	part.Text = "ab"
	controller.Delta(index, "b")
	controller.Finish()

	events := drain(t, controller.Stream())
	require.Len(t, events, 6)

	first := events[2].(*PartDeltaEvent)
	second := events[3].(*PartDeltaEvent)
	assert.Equal(t, "a", first.Message.Parts[0].(*TextPart).Text)
	assert.Equal(t, "ab", second.Message.Parts[0].(*TextPart).Text)
	assert.Equal(t, "", events[1].(*PartStartEvent).Part.(*TextPart).Text)
}

func TestStreamController_PromotesStopToToolUse(t *testing.T) {
	controller := NewStreamController(context.Background(), testModel, cost.TierDefault)
	index := controller.AddPart(&ToolCallPart{ID: "call_1", Name: "search", Args: map[string]any{}})
	controller.EndPart(index)
	controller.SetStopReason(StopReasonStop)
	controller.Finish()

	final, err := controller.Stream().Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopReasonToolUse, final.StopReason)
}

func TestStreamController_DoesNotPromoteWithoutToolCalls(t *testing.T) {
	controller := NewStreamController(context.Background(), testModel, cost.TierDefault)
	controller.SetStopReason(StopReasonLength)
	controller.Finish()

	final, err := controller.Stream().Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopReasonLength, final.StopReason)
	assert.Equal(t, Usage{}, final.Usage)
}

func TestStreamController_DropsUnsignedThinking(t *testing.T) {
	controller := NewStreamController(context.Background(), testModel, cost.TierDefault)
	unsigned := controller.AddPart(&ThinkingPart{Thinking: "hmm"})
	controller.EndPart(unsigned)
	signed := controller.AddPart(&ThinkingPart{Thinking: "ok"})
	controller.EndPart(signed)
	text := controller.AddPart(&TextPart{Text: "answer"})
	controller.EndPart(text)

	// Metadata is attached at closure by the adapter.
	controller.draft.Parts[signed].(*ThinkingPart).Metadata = NewMetadata(BackendOpenAI, "sig")
	controller.Finish()

	final, err := controller.Stream().Result(context.Background())
	require.NoError(t, err)
	require.Len(t, final.Parts, 2)
	assert.Equal(t, "ok", final.Parts[0].(*ThinkingPart).Thinking)
	assert.Equal(t, "answer", final.Parts[1].(*TextPart).Text)
}

func TestStreamController_UsageCost(t *testing.T) {
	controller := NewStreamController(context.Background(), testModel, cost.TierDefault)
	controller.SetUsage(cost.Tokens{Input: 1_000_000, Output: 1_000_000, CacheRead: 1_000_000})
	controller.Finish()

	final, err := controller.Stream().Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3_000_000, final.Usage.Total)
	assert.InDelta(t, 2.0, final.Usage.Cost.Input, 1e-9)
	assert.InDelta(t, 12.0, final.Usage.Cost.Output, 1e-9)
	assert.InDelta(t, 0.2, final.Usage.Cost.CacheRead, 1e-9)
	assert.InDelta(t, 14.2, final.Usage.Cost.Total, 1e-9)
}

func TestStreamController_UsageIsReplacedNotAccumulated(t *testing.T) {
	flex := NewStreamController(context.Background(), testModel, cost.TierFlex)
	flex.SetUsage(cost.Tokens{Input: 500_000})
	flex.SetUsage(cost.Tokens{Input: 1_000_000})
	flex.Finish()

	final, err := flex.Stream().Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1_000_000, final.Usage.Input)
	assert.InDelta(t, 1.0, final.Usage.Cost.Total, 1e-9)
}

func TestStreamController_AbortedContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	controller := NewStreamController(ctx, testModel, cost.TierDefault)
	index := controller.AddPart(&TextPart{Text: "partial"})
	controller.Delta(index, "partial")
	cancel()
	controller.Finish()

	events := drain(t, controller.Stream())
	last := events[len(events)-1]
	require.IsType(t, &ErrorEvent{}, last)
	assert.Equal(t, EventPartEnd, events[len(events)-2].Type())

	final := last.Snapshot()
	assert.Equal(t, StopReasonAborted, final.StopReason)
	assert.Equal(t, DefaultAbortMessage, final.ErrorMessage)
	assert.Equal(t, "partial", final.Text())
}

func TestStreamController_Fail(t *testing.T) {
	controller := NewStreamController(context.Background(), testModel, cost.TierDefault)
	controller.AddPart(&ToolCallPart{ID: "c", Name: "n", Args: map[string]any{"a": 1}})
	controller.Fail(errors.New("connection reset"))

	_, err := controller.Stream().ResultOrError(context.Background())
	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, StopReasonError, streamErr.Reason)
	assert.Equal(t, "connection reset", streamErr.Message)
	assert.Len(t, streamErr.Partial.ToolCalls(), 1)
}

func TestStreamController_ExactlyOneTerminalEvent(t *testing.T) {
	controller := NewStreamController(context.Background(), testModel, cost.TierDefault)
	controller.Finish()
	controller.Fail(errors.New("late"))
	controller.Finish()
	controller.AddPart(&TextPart{})
	controller.SetStopReason(StopReasonError)

	events := drain(t, controller.Stream())
	assert.Equal(t, []EventType{EventStart, EventDone}, eventTypes(events))

	final, err := controller.Stream().Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopReasonStop, final.StopReason)
}

func TestStreamController_DeltaIgnoredOutsideOpenPart(t *testing.T) {
	controller := NewStreamController(context.Background(), testModel, cost.TierDefault)
	controller.Delta(0, "nothing open")
	index := controller.AddPart(&TextPart{})
	controller.EndPart(index)
	controller.Delta(index, "after end")
	controller.Finish()

	assert.Equal(t, []EventType{EventStart, EventPartStart, EventPartEnd, EventDone}, eventTypes(drain(t, controller.Stream())))
}

func TestDrive_RecoversPanics(t *testing.T) {
	stream := Drive(context.Background(), testModel, cost.TierDefault, func(ctx context.Context, controller *StreamController) error {
		controller.AddPart(&TextPart{})
		panic("unexpected vendor value")
	})

	_, err := stream.ResultOrError(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected vendor value")
}

func TestDrive_FinishesOnSuccess(t *testing.T) {
	stream := Drive(context.Background(), testModel, cost.TierDefault, func(ctx context.Context, controller *StreamController) error {
		part := &TextPart{Text: "hi"}
		index := controller.AddPart(part)
		controller.Delta(index, "hi")
		controller.EndPart(index)
		return nil
	})

	events := drain(t, stream)
	assert.Equal(t, []EventType{EventStart, EventPartStart, EventPartDelta, EventPartEnd, EventDone}, eventTypes(events))
}
